package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateUserAndLookup(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "a@example.com", "hash", "Ada Lovelace")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if u.ID == "" {
		t.Fatalf("CreateUser() returned empty id")
	}

	byEmail, err := s.UserByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("UserByEmail() error = %v", err)
	}
	if byEmail.ID != u.ID {
		t.Fatalf("UserByEmail() id = %q, want %q", byEmail.ID, u.ID)
	}

	byID, err := s.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID() error = %v", err)
	}
	if byID.Email != "a@example.com" {
		t.Fatalf("UserByID() email = %q", byID.Email)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "a@example.com", "h1", "One"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := s.CreateUser(ctx, "a@example.com", "h2", "Two"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("CreateUser(duplicate) error = %v, want ErrEmailTaken", err)
	}
}

func TestUserLookupMisses(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UserByEmail(miss) error = %v, want ErrNotFound", err)
	}
	if _, err := s.UserByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UserByID(miss) error = %v, want ErrNotFound", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "user-1", "Two pointers", "Explain the two-pointer technique.")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if sess.CompletedAt != nil || sess.Feedback != nil {
		t.Fatalf("new session already completed: %+v", sess)
	}

	got, err := s.SessionByID(ctx, sess.ID, "user-1")
	if err != nil {
		t.Fatalf("SessionByID() error = %v", err)
	}
	if got.Question != "Explain the two-pointer technique." {
		t.Fatalf("Question = %q", got.Question)
	}

	done, err := s.CompleteSession(ctx, sess.ID, "user-1", Completion{
		Transcript:      "You move both indices toward each other.",
		AudioKey:        "uploads/user-1/a.m4a",
		DurationSeconds: 95,
		Feedback:        Feedback{OverallScore: 82, Strengths: []string{"clear"}},
	})
	if err != nil {
		t.Fatalf("CompleteSession() error = %v", err)
	}
	if done.CompletedAt == nil {
		t.Fatalf("CompletedAt = nil after completion")
	}
	if done.Feedback == nil || done.Feedback.OverallScore != 82 {
		t.Fatalf("Feedback = %+v", done.Feedback)
	}
	if done.DurationSeconds != 95 {
		t.Fatalf("DurationSeconds = %d, want 95", done.DurationSeconds)
	}
}

func TestSessionOwnershipEnforced(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "user-1", "T", "Q")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if _, err := s.SessionByID(ctx, sess.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SessionByID(other user) error = %v, want ErrNotFound", err)
	}
	if _, err := s.CompleteSession(ctx, sess.ID, "user-2", Completion{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("CompleteSession(other user) error = %v, want ErrNotFound", err)
	}
}

func TestListSessionsNewestFirstWithPaging(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		sess, err := s.CreateSession(ctx, "user-1", "T", "Q")
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		ids = append(ids, sess.ID)
		time.Sleep(2 * time.Millisecond)
	}
	if _, err := s.CreateSession(ctx, "user-2", "T", "Q"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	all, err := s.ListSessions(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListSessions() len = %d, want 3", len(all))
	}
	if all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Fatalf("ListSessions() not newest-first: %v", []string{all[0].ID, all[1].ID, all[2].ID})
	}

	page, err := s.ListSessions(ctx, "user-1", 1, 1)
	if err != nil {
		t.Fatalf("ListSessions(paged) error = %v", err)
	}
	if len(page) != 1 || page[0].ID != ids[1] {
		t.Fatalf("ListSessions(limit=1, offset=1) = %+v, want middle session", page)
	}

	empty, err := s.ListSessions(ctx, "user-1", 10, 10)
	if err != nil {
		t.Fatalf("ListSessions(past end) error = %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("ListSessions(past end) len = %d, want 0", len(empty))
	}
}

func TestListSessionsReturnsCopies(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "user-1", "T", "Q")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := s.SessionByID(ctx, sess.ID, "user-1")
	if err != nil {
		t.Fatalf("SessionByID() error = %v", err)
	}
	got.Title = "mutated"

	again, err := s.SessionByID(ctx, sess.ID, "user-1")
	if err != nil {
		t.Fatalf("SessionByID() error = %v", err)
	}
	if again.Title != "T" {
		t.Fatalf("store leaked mutable reference, Title = %q", again.Title)
	}
}

func TestCreateUpload(t *testing.T) {
	s := NewInMemory()
	uploadedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	up, err := s.CreateUpload(context.Background(), "user-1", "uploads/user-1/a.m4a", "audio/mp4", 2048, uploadedAt)
	if err != nil {
		t.Fatalf("CreateUpload() error = %v", err)
	}
	if up.ID == "" || up.Key != "uploads/user-1/a.m4a" || up.FileSize != 2048 {
		t.Fatalf("CreateUpload() = %+v", up)
	}
	if !up.UploadedAt.Equal(uploadedAt) {
		t.Fatalf("UploadedAt = %v, want %v", up.UploadedAt, uploadedAt)
	}
}
