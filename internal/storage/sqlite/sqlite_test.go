package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/michaelbrown/codemaster/internal/llm"
	"github.com/michaelbrown/codemaster/internal/storage"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening memory db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{
		ID:          "abc12345-0000-0000-0000-000000000000",
		Title:       "fibonacci help",
		Status:      storage.StatusActive,
		Provider:    "groq",
		Model:       "llama-3.1-8b-instant",
		Temperature: 0.1,
		MaxTokens:   4000,
	}

	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}

	if got.Title != "fibonacci help" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Provider != "groq" || got.Model != "llama-3.1-8b-instant" {
		t.Errorf("provider/model = %q/%q", got.Provider, got.Model)
	}
	if got.Temperature != 0.1 || got.MaxTokens != 4000 {
		t.Errorf("sampling = %v/%v", got.Temperature, got.MaxTokens)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should not be zero")
	}
}

func TestGetSessionByPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{
		ID:     "abc12345-0000-0000-0000-000000000000",
		Status: storage.StatusActive,
	}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, "abc12345")
	if err != nil {
		t.Fatalf("GetSession by prefix: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("got ID %q, want %q", got.ID, sess.ID)
	}
}

func TestGetSessionAmbiguousPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{
		"abc11111-0000-0000-0000-000000000000",
		"abc22222-0000-0000-0000-000000000000",
	} {
		if err := s.CreateSession(ctx, &storage.Session{ID: id, Status: storage.StatusActive}); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	_, err := s.GetSession(ctx, "abc")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("want ambiguous prefix error, got %v", err)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.GetSession(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("want not found error, got %v", err)
	}
}

func TestListSessionsFilterAndLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	active := &storage.Session{ID: "aaa00000-0000-0000-0000-000000000000", Status: storage.StatusActive}
	archived := &storage.Session{ID: "bbb00000-0000-0000-0000-000000000000", Status: storage.StatusArchived}
	for _, sess := range []*storage.Session{active, archived} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	got, err := s.ListSessions(ctx, storage.SessionListOptions{Status: storage.StatusArchived})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 1 || got[0].ID != archived.ID {
		t.Errorf("filtered list = %+v", got)
	}

	got, err = s.ListSessions(ctx, storage.SessionListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("limited list has %d entries", len(got))
	}
}

func TestUpdateSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{ID: "abc00000-0000-0000-0000-000000000000", Status: storage.StatusActive}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	sess.Title = "renamed"
	sess.Status = storage.StatusArchived
	if err := s.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Title != "renamed" || got.Status != storage.StatusArchived {
		t.Errorf("after update: %+v", got)
	}
}

func TestSaveAndLoadMessages(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{ID: "abc00000-0000-0000-0000-000000000000", Status: storage.StatusActive}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	msgs := []llm.Message{
		llm.UserMessage("write hello world in python"),
		llm.AssistantMessage("```python\nprint(\"hello world\")\n```"),
	}
	if err := s.SaveMessages(ctx, sess.ID, msgs); err != nil {
		t.Fatalf("SaveMessages: %v", err)
	}

	got, err := s.LoadMessages(ctx, sess.ID)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d messages, want 2", len(got))
	}
	if got[1].Role != llm.RoleAssistant || !strings.Contains(got[1].Content, "print") {
		t.Errorf("message round trip: %+v", got[1])
	}

	// Overwrite semantics
	if err := s.SaveMessages(ctx, sess.ID, msgs[:1]); err != nil {
		t.Fatalf("SaveMessages overwrite: %v", err)
	}
	got, err = s.LoadMessages(ctx, sess.ID)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("after overwrite: %d messages, want 1", len(got))
	}
}

func TestLoadMessagesUnknownSession(t *testing.T) {
	s := testStore(t)

	got, err := s.LoadMessages(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("LoadMessages unknown = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestDeleteSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{ID: "abc00000-0000-0000-0000-000000000000", Status: storage.StatusActive}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.DeleteSession(ctx, "abc"); err != nil {
		t.Fatalf("DeleteSession by prefix: %v", err)
	}

	if _, err := s.GetSession(ctx, sess.ID); err == nil {
		t.Error("session should be gone")
	}
	if msgs, _ := s.LoadMessages(ctx, sess.ID); msgs != nil {
		t.Error("messages should be gone")
	}
}
