package realtime

import (
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Suraj127-git/genai-coach-backend/internal/auth"
)

var (
	errConnClosed   = errors.New("connection closed")
	errOutboundFull = errors.New("outbound queue full")
)

const (
	outboundBuffer = 64
	writeTimeout   = 10 * time.Second
)

// Conn wraps one websocket transport with a single-writer outbound queue.
// All outbound frames funnel through the queue, so per-connection delivery
// order matches enqueue order and the websocket only ever has one writer.
type Conn struct {
	identity auth.Identity
	ws       *websocket.Conn
	outbound chan any
	done     chan struct{}
	closed   chan struct{}
}

func newConn(ws *websocket.Conn, identity auth.Identity) *Conn {
	return &Conn{
		identity: identity,
		ws:       ws,
		outbound: make(chan any, outboundBuffer),
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

// Deliver queues msg for writing. It never blocks: a saturated queue or a
// closed connection is reported as a non-fatal error.
func (c *Conn) Deliver(msg any) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	select {
	case c.outbound <- msg:
		return nil
	default:
		return errOutboundFull
	}
}

// writeLoop drains the outbound queue. A write failure tears down the
// transport, which unblocks the dispatcher's read loop.
func (c *Conn) writeLoop() {
	defer close(c.done)
	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.outbound:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteJSON(msg); err != nil {
				log.Printf("ws write failed for %s: %v", c.identity, err)
				_ = c.ws.Close()
				return
			}
		}
	}
}

// shutdown stops the writer and waits for it to exit. Safe to call once.
func (c *Conn) shutdown() {
	close(c.closed)
	<-c.done
}
