package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists account, session, and upload records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS interview_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			question TEXT NOT NULL DEFAULT '',
			transcript TEXT NOT NULL DEFAULT '',
			audio_s3_key TEXT NOT NULL DEFAULT '',
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			overall_score DOUBLE PRECISION,
			communication_score DOUBLE PRECISION,
			technical_score DOUBLE PRECISION,
			clarity_score DOUBLE PRECISION,
			strengths TEXT[],
			improvements TEXT[],
			detailed_feedback TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_created ON interview_sessions (user_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS uploads (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			s3_key TEXT NOT NULL UNIQUE,
			content_type TEXT NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			uploaded_at TIMESTAMPTZ NOT NULL,
			confirmed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_user ON uploads (user_id);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, email, passwordHash, fullName string) (*User, error) {
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, full_name, created_at FROM users WHERE email=$1`, email))
}

func (s *PostgresStore) UserByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, full_name, created_at FROM users WHERE id=$1`, id))
}

func (s *PostgresStore) scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, userID, title, question string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Question:  question,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO interview_sessions (id, user_id, title, question, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sess.ID, sess.UserID, sess.Title, sess.Question, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

const sessionColumns = `id, user_id, title, question, transcript, audio_s3_key, duration_seconds,
	overall_score, communication_score, technical_score, clarity_score,
	strengths, improvements, detailed_feedback, created_at, updated_at, completed_at`

func (s *PostgresStore) SessionByID(ctx context.Context, id, userID string) (*Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM interview_sessions WHERE id=$1 AND user_id=$2`, id, userID)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, userID string, limit, offset int) ([]*Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM interview_sessions
		 WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*Session, 0, limit)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return sessions, nil
}

func (s *PostgresStore) CompleteSession(ctx context.Context, id, userID string, c Completion) (*Session, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE interview_sessions SET
			transcript=$3, audio_s3_key=$4, duration_seconds=$5,
			overall_score=$6, communication_score=$7, technical_score=$8, clarity_score=$9,
			strengths=$10, improvements=$11, detailed_feedback=$12,
			updated_at=$13, completed_at=$13
		 WHERE id=$1 AND user_id=$2`,
		id, userID,
		c.Transcript, c.AudioKey, c.DurationSeconds,
		c.Feedback.OverallScore, c.Feedback.CommunicationScore, c.Feedback.TechnicalScore, c.Feedback.ClarityScore,
		c.Feedback.Strengths, c.Feedback.Improvements, c.Feedback.DetailedFeedback,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.SessionByID(ctx, id, userID)
}

func scanSession(row pgx.Row) (*Session, error) {
	var (
		sess                                    Session
		overall, communication, tech, clarity   *float64
		strengths, improvements                 []string
		detailed                                string
	)
	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.Title, &sess.Question, &sess.Transcript,
		&sess.AudioKey, &sess.DurationSeconds,
		&overall, &communication, &tech, &clarity,
		&strengths, &improvements, &detailed,
		&sess.CreatedAt, &sess.UpdatedAt, &sess.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if overall != nil {
		sess.Feedback = &Feedback{
			OverallScore:       *overall,
			CommunicationScore: deref(communication),
			TechnicalScore:     deref(tech),
			ClarityScore:       deref(clarity),
			Strengths:          strengths,
			Improvements:       improvements,
			DetailedFeedback:   detailed,
		}
	}
	return &sess, nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func (s *PostgresStore) CreateUpload(ctx context.Context, userID, key, contentType string, size int64, uploadedAt time.Time) (*Upload, error) {
	u := &Upload{
		ID:          uuid.NewString(),
		UserID:      userID,
		Key:         key,
		ContentType: contentType,
		FileSize:    size,
		UploadedAt:  uploadedAt.UTC(),
		ConfirmedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO uploads (id, user_id, s3_key, content_type, file_size, uploaded_at, confirmed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.UserID, u.Key, u.ContentType, u.FileSize, u.UploadedAt, u.ConfirmedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
