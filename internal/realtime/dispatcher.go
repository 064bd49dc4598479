package realtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Suraj127-git/genai-coach-backend/internal/auth"
	"github.com/Suraj127-git/genai-coach-backend/internal/observability"
	"github.com/Suraj127-git/genai-coach-backend/internal/pipeline"
	"github.com/Suraj127-git/genai-coach-backend/internal/protocol"
	"github.com/Suraj127-git/genai-coach-backend/internal/store"
)

// connState tracks where a connection is in its lifecycle.
type connState int

const (
	stateAwaitingAuth connState = iota
	stateActive
	stateClosed
)

const maxMessageBytes = 1 << 20

// TokenVerifier validates a bearer token and extracts the principal.
type TokenVerifier interface {
	VerifyAccess(token string) (auth.Identity, error)
}

// SessionMinter creates the interview-session record backing a realtime
// session, so synthesized audio is keyed by a real session id rather than
// the connecting user's identity.
type SessionMinter interface {
	CreateSession(ctx context.Context, userID, title, question string) (*store.Session, error)
}

// Dispatcher owns the realtime channel's protocol state machine:
// AwaitingAuth until a valid auth message arrives, Active for the message
// loop, Closed on transport teardown. One Dispatcher serves all connections.
type Dispatcher struct {
	verifier    TokenVerifier
	registry    *Registry
	pipe        *pipeline.Pipeline
	sessions    SessionMinter
	metrics     *observability.Metrics
	authTimeout time.Duration
}

func NewDispatcher(
	verifier TokenVerifier,
	registry *Registry,
	pipe *pipeline.Pipeline,
	sessions SessionMinter,
	metrics *observability.Metrics,
	authTimeout time.Duration,
) *Dispatcher {
	if authTimeout <= 0 {
		authTimeout = 10 * time.Second
	}
	return &Dispatcher{
		verifier:    verifier,
		registry:    registry,
		pipe:        pipe,
		sessions:    sessions,
		metrics:     metrics,
		authTimeout: authTimeout,
	}
}

type client struct {
	state    connState
	identity auth.Identity
	conn     *Conn
	sctx     *SessionContext
}

// HandleConn runs one connection from handshake to teardown. It returns when
// the transport closes; by then the connection has been unregistered exactly
// once (or never registered, if the handshake failed).
func (d *Dispatcher) HandleConn(ctx context.Context, ws *websocket.Conn) {
	defer ws.Close()
	ws.SetReadLimit(maxMessageBytes)

	c := &client{state: stateAwaitingAuth, sctx: newSessionContext()}

	identity, ok := d.handshake(ws)
	if !ok {
		c.state = stateClosed
		d.metrics.ConnectionEvents.WithLabelValues("auth_rejected").Inc()
		return
	}

	c.identity = identity
	c.state = stateActive
	c.conn = newConn(ws, identity)
	go c.conn.writeLoop()

	// auth_success is enqueued before the connection becomes reachable for
	// directed sends, so it is always the first outbound frame.
	_ = c.conn.Deliver(protocol.AuthSuccess{Type: protocol.TypeAuthSuccess})
	d.metrics.WSMessages.WithLabelValues("outbound", string(protocol.TypeAuthSuccess)).Inc()

	d.registry.Register(identity, c.conn)
	d.metrics.ConnectionEvents.WithLabelValues("connected").Inc()
	d.metrics.ActiveConnections.Set(float64(d.registry.Len()))
	log.Printf("ws connected: %s", identity)

	d.readLoop(ctx, c)

	c.state = stateClosed
	c.conn.shutdown()
	d.registry.Unregister(identity, c.conn)
	d.metrics.ConnectionEvents.WithLabelValues("disconnected").Inc()
	d.metrics.ActiveConnections.Set(float64(d.registry.Len()))
	log.Printf("ws disconnected: %s", identity)
}

// handshake enforces the auth-first invariant: the first inbound frame must
// be a valid auth message within the configured timeout, otherwise the
// transport is closed with the policy code and nothing is sent.
func (d *Dispatcher) handshake(ws *websocket.Conn) (auth.Identity, bool) {
	_ = ws.SetReadDeadline(time.Now().Add(d.authTimeout))
	defer func() { _ = ws.SetReadDeadline(time.Time{}) }()

	_, raw, err := ws.ReadMessage()
	if err != nil {
		d.closePolicy(ws, "authentication timeout")
		return "", false
	}

	msg, err := protocol.ParseClientMessage(raw)
	if err != nil {
		d.closePolicy(ws, "authentication required")
		return "", false
	}
	authMsg, ok := msg.(protocol.Auth)
	if !ok {
		d.closePolicy(ws, "authentication required")
		return "", false
	}

	identity, err := d.verifier.VerifyAccess(authMsg.Token)
	if err != nil {
		log.Printf("ws auth rejected: %v", err)
		d.closePolicy(ws, "invalid token")
		return "", false
	}
	return identity, true
}

// closePolicy terminates the transport with the fixed policy close code used
// for failed or missing handshakes.
func (d *Dispatcher) closePolicy(ws *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (d *Dispatcher) readLoop(ctx context.Context, c *client) {
	for c.state == stateActive {
		_, raw, err := c.conn.ws.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.ParseClientMessage(raw)
		if err != nil {
			if errors.Is(err, protocol.ErrUnsupportedType) {
				log.Printf("unknown message type from %s ignored", c.identity)
				continue
			}
			// Malformed payloads are reported, never fatal.
			d.deliver(c.conn, protocol.TypeError, protocol.ErrorMessage{
				Type:    protocol.TypeError,
				Message: "Invalid JSON",
			})
			continue
		}

		switch m := msg.(type) {
		case protocol.Auth:
			d.metrics.WSMessages.WithLabelValues("inbound", string(protocol.TypeAuth)).Inc()
			log.Printf("duplicate auth from %s ignored", c.identity)
		case protocol.SessionStart:
			d.metrics.WSMessages.WithLabelValues("inbound", string(protocol.TypeSessionStart)).Inc()
			d.handleSessionStart(ctx, c, m)
		case protocol.AudioURI:
			d.metrics.WSMessages.WithLabelValues("inbound", string(protocol.TypeAudioURI)).Inc()
			d.handleAudioURI(ctx, c, m)
		}
	}
}

func (d *Dispatcher) handleSessionStart(ctx context.Context, c *client, msg protocol.SessionStart) {
	sessionID := d.mintSession(ctx, c.identity, msg.Question)
	c.sctx.StartSession(sessionID, msg.Question)
	log.Printf("session %s started for %s", sessionID, c.identity)

	// Greeting synthesis is detached from the message loop; failures are
	// logged and never surface to the loop's control flow.
	ordinal := c.sctx.NextOrdinal()
	go d.speak(ctx, c.identity, sessionID, ordinal, greetingText(msg.Question))
}

func (d *Dispatcher) handleAudioURI(ctx context.Context, c *client, msg protocol.AudioURI) {
	sessionID := c.sctx.EnsureSessionID()
	_, question := c.sctx.Snapshot()
	ordinal := c.sctx.NextOrdinal()

	// Each turn runs detached so a slow pipeline call suspends only this
	// turn, and turns triggered by different messages may finish out of
	// order. Within one turn the stages are sequential, so the transcript
	// always precedes its ai_audio_url.
	go d.runTurn(ctx, c.identity, sessionID, question, ordinal, msg.Key)
}

func (d *Dispatcher) runTurn(ctx context.Context, identity auth.Identity, sessionID, question string, ordinal int64, key string) {
	transcript, err := d.pipe.Transcribe(ctx, key)
	if err != nil {
		log.Printf("transcription failed for %s (%s): %v", identity, key, err)
		d.push(identity, protocol.TypeError, protocol.ErrorMessage{
			Type:    protocol.TypeError,
			Message: "Transcription failed",
		})
		return
	}
	d.push(identity, protocol.TypeTranscript, protocol.Transcript{
		Type: protocol.TypeTranscript,
		Text: transcript,
	})

	reply := d.pipe.Respond(ctx, question, transcript)
	d.speak(ctx, identity, sessionID, ordinal, reply)
}

// speak synthesizes text and pushes an ai_audio_url frame. Synthesis failure
// skips the push rather than reporting an error.
func (d *Dispatcher) speak(ctx context.Context, identity auth.Identity, sessionID string, ordinal int64, text string) {
	key, err := d.pipe.Synthesize(ctx, sessionID, ordinal, text)
	if err != nil {
		log.Printf("synthesis skipped for %s: %v", identity, err)
		return
	}
	url, err := d.pipe.AudioURL(ctx, key)
	if err != nil {
		log.Printf("audio url for %s failed: %v", key, err)
		return
	}
	d.push(identity, protocol.TypeAIAudioURL, protocol.AIAudioURL{
		Type: protocol.TypeAIAudioURL,
		URL:  url,
		Text: text,
	})
}

// mintSession asks the session store for a real per-session id. If the store
// is unavailable the channel keeps working with a locally minted id.
func (d *Dispatcher) mintSession(ctx context.Context, identity auth.Identity, question string) string {
	if d.sessions != nil {
		title := question
		if r := []rune(title); len(r) > 80 {
			title = string(r[:80])
		}
		s, err := d.sessions.CreateSession(ctx, string(identity), title, question)
		if err == nil {
			return s.ID
		}
		log.Printf("session record create failed for %s: %v", identity, err)
	}
	return uuid.NewString()
}

// push routes a pipeline result back through the registry. The connection
// may have gone away while the pipeline ran; its result is then discarded.
func (d *Dispatcher) push(identity auth.Identity, t protocol.MessageType, msg any) {
	if err := d.registry.Send(identity, msg); err != nil {
		log.Printf("drop outbound %s for %s: %v", t, identity, err)
		return
	}
	d.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
}

func (d *Dispatcher) deliver(conn *Conn, t protocol.MessageType, msg any) {
	if err := conn.Deliver(msg); err != nil {
		log.Printf("drop outbound %s for %s: %v", t, conn.identity, err)
		return
	}
	d.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
}

func greetingText(question string) string {
	return fmt.Sprintf("Welcome to your mock interview. Let's begin with your question: %s", question)
}
