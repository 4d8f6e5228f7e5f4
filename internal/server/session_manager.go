package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/michaelbrown/codemaster/internal/chat"
	"github.com/michaelbrown/codemaster/internal/config"
	"github.com/michaelbrown/codemaster/internal/llm"
	"github.com/michaelbrown/codemaster/internal/storage"
)

// ActiveSession tracks an in-memory conversation for a session.
type ActiveSession struct {
	Conv   *chat.Conversation
	Cancel context.CancelFunc // cancels an in-flight completion
	mu     sync.Mutex         // one message at a time per session
}

// SessionManager tracks which sessions have an active Conversation in memory.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*ActiveSession
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*ActiveSession),
	}
}

// Get returns an active session if it exists.
func (sm *SessionManager) Get(sessionID string) (*ActiveSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	as, ok := sm.sessions[sessionID]
	return as, ok
}

// GetOrCreate returns an existing active session or builds one from the
// stored session's provider, model, and sampling settings.
func (sm *SessionManager) GetOrCreate(
	ctx context.Context,
	sess *storage.Session,
	cfg *config.Config,
	store storage.Store,
) (*ActiveSession, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if as, ok := sm.sessions[sess.ID]; ok {
		return as, nil
	}

	providerName := sess.Provider
	if providerName == "" {
		providerName = cfg.DefaultProvider
	}
	provider, err := cfg.Provider(providerName)
	if err != nil {
		return nil, fmt.Errorf("resolving provider: %w", err)
	}

	model := sess.Model
	if model == "" {
		model = provider.Models["default"]
	}

	sampling := llm.Sampling{
		Temperature: sess.Temperature,
		MaxTokens:   sess.MaxTokens,
	}
	if sampling.Temperature == 0 {
		sampling.Temperature = cfg.Chat.Temperature
	}
	if sampling.MaxTokens == 0 {
		sampling.MaxTokens = cfg.Chat.MaxTokens
	}

	client := llm.NewClient(provider.BaseURL, provider.APIKey, model, sampling)
	conv := chat.New(client, cfg.Chat.HistoryWindow)

	// Load existing history if any
	messages, err := store.LoadMessages(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	if len(messages) > 0 {
		conv.SetHistory(messages)
	}

	as := &ActiveSession{
		Conv: conv,
	}
	sm.sessions[sess.ID] = as
	return as, nil
}

// Remove removes an active session and cancels any in-flight work.
func (sm *SessionManager) Remove(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if as, ok := sm.sessions[sessionID]; ok {
		if as.Cancel != nil {
			as.Cancel()
		}
		delete(sm.sessions, sessionID)
	}
}

// CloseAll cancels all active sessions.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, as := range sm.sessions {
		if as.Cancel != nil {
			as.Cancel()
		}
		delete(sm.sessions, id)
	}
}
