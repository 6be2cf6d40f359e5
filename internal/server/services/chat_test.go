package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/hassankhurram/chatbot-gemini/internal/common"
	"github.com/hassankhurram/chatbot-gemini/internal/server/llm"
	"github.com/hassankhurram/chatbot-gemini/internal/server/models"
)

// --- fakes ---

type fakeMessagesRepo struct {
	saved     []*models.ChatMessage
	insertErr error

	recent  []*models.ChatMessage
	listErr error
	gotLimit int
}

func (f *fakeMessagesRepo) Insert(ctx context.Context, m *models.ChatMessage) (*models.ChatMessage, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()
	f.saved = append(f.saved, m)
	return m, nil
}

func (f *fakeMessagesRepo) ListRecent(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error) {
	f.gotLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.recent, nil
}

type fakeSessionsRepo struct {
	latest  *models.ChatSession
	created int
	touched int
}

func (f *fakeSessionsRepo) Create(ctx context.Context, s *models.ChatSession) (*models.ChatSession, error) {
	f.created++
	s.ID = "s-1"
	s.MessageCount = 1
	return s, nil
}

func (f *fakeSessionsRepo) GetLatest(ctx context.Context, userID string) (*models.ChatSession, error) {
	if f.latest == nil {
		return nil, common.ErrorNotFound
	}
	return f.latest, nil
}

func (f *fakeSessionsRepo) Touch(ctx context.Context, id string) error {
	f.touched++
	return nil
}

// fakeEngine streams canned chunks. savedAtCall records how many messages
// had been persisted when the engine was contacted.
type fakeEngine struct {
	chunks    []string
	chunkErr  error
	streamErr error

	messagesRepo *fakeMessagesRepo
	savedAtCall  int
}

func (f *fakeEngine) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	return strings.Join(f.chunks, ""), f.streamErr
}

func (f *fakeEngine) Stream(ctx context.Context, messages []llm.Message) (<-chan llm.Chunk, error) {
	if f.messagesRepo != nil {
		f.savedAtCall = len(f.messagesRepo.saved)
	}
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	out := make(chan llm.Chunk)
	go func() {
		defer close(out)
		for _, c := range f.chunks {
			out <- llm.Chunk{Content: c}
		}
		if f.chunkErr != nil {
			out <- llm.Chunk{Err: f.chunkErr}
		}
	}()
	return out, nil
}

func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func chatUser() *models.User {
	return &models.User{ID: "u-1", Username: "admin"}
}

// --- SaveMessage ---

func TestSaveMessage_CreatesSessionLazily(t *testing.T) {
	db, mock := newSQLMockDB(t)
	expectTx(mock, 1)

	msgs := &fakeMessagesRepo{}
	sess := &fakeSessionsRepo{}
	s := NewChatService(db, &fakeRepoManager{messages: msgs, sessions: sess}, nil)

	got, err := s.SaveMessage(context.Background(), &models.ChatMessage{
		UserID: "u-1", Username: "admin", Content: "hi", Role: models.RoleUser,
	})
	if err != nil {
		t.Fatalf("SaveMessage error: %v", err)
	}
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Fatalf("expected stored record with ID and timestamp, got %+v", got)
	}
	if sess.created != 1 || sess.touched != 0 {
		t.Fatalf("expected lazy session creation, created=%d touched=%d", sess.created, sess.touched)
	}
}

func TestSaveMessage_TouchesExistingSession(t *testing.T) {
	db, mock := newSQLMockDB(t)
	expectTx(mock, 1)

	msgs := &fakeMessagesRepo{}
	sess := &fakeSessionsRepo{latest: &models.ChatSession{ID: "s-1", UserID: "u-1"}}
	s := NewChatService(db, &fakeRepoManager{messages: msgs, sessions: sess}, nil)

	_, err := s.SaveMessage(context.Background(), &models.ChatMessage{
		UserID: "u-1", Username: "admin", Content: "hi again", Role: models.RoleUser,
	})
	if err != nil {
		t.Fatalf("SaveMessage error: %v", err)
	}
	if sess.created != 0 || sess.touched != 1 {
		t.Fatalf("expected session touch, created=%d touched=%d", sess.created, sess.touched)
	}
}

func TestSaveMessage_PropagatesInsertError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	msgs := &fakeMessagesRepo{insertErr: errors.New("db down")}
	s := NewChatService(db, &fakeRepoManager{messages: msgs, sessions: &fakeSessionsRepo{}}, nil)

	_, err := s.SaveMessage(context.Background(), &models.ChatMessage{UserID: "u-1", Role: models.RoleUser})
	if err == nil {
		t.Fatalf("storage errors must propagate, got nil")
	}
}

// --- History ---

func TestHistory_ReversesToOldestFirst(t *testing.T) {
	db, _ := newSQLMockDB(t)

	// Repository returns newest first: C, B.
	msgs := &fakeMessagesRepo{recent: []*models.ChatMessage{
		{ID: "C", Content: "c"},
		{ID: "B", Content: "b"},
	}}
	s := NewChatService(db, &fakeRepoManager{messages: msgs}, nil)

	got, err := s.History(context.Background(), "u-1", 2)
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "B" || got[1].ID != "C" {
		t.Fatalf("expected [B C], got %+v", got)
	}
}

func TestHistory_DefaultLimit(t *testing.T) {
	db, _ := newSQLMockDB(t)

	msgs := &fakeMessagesRepo{}
	s := NewChatService(db, &fakeRepoManager{messages: msgs}, nil)

	got, err := s.History(context.Background(), "u-1", 0)
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if msgs.gotLimit != DefaultHistoryLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultHistoryLimit, msgs.gotLimit)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %+v", got)
	}
}

// --- Relay ---

func TestRelay_StreamsAndPersistsBothTurns(t *testing.T) {
	db, mock := newSQLMockDB(t)
	expectTx(mock, 2) // user message + assistant message

	msgs := &fakeMessagesRepo{}
	engine := &fakeEngine{chunks: []string{"Hel", "lo ", "there"}, messagesRepo: msgs}
	s := NewChatService(db, &fakeRepoManager{messages: msgs, sessions: &fakeSessionsRepo{}}, engine)

	var received []string
	err := s.Relay(context.Background(), chatUser(),
		[]TurnMessage{{Role: models.RoleUser, Content: "hi"}},
		func(chunk string) error {
			received = append(received, chunk)
			return nil
		})
	if err != nil {
		t.Fatalf("Relay error: %v", err)
	}

	if fmt.Sprint(received) != fmt.Sprint(engine.chunks) {
		t.Fatalf("chunks reordered or lost: got %v want %v", received, engine.chunks)
	}
	if engine.savedAtCall != 1 {
		t.Fatalf("user message must be persisted before the engine call, saved=%d", engine.savedAtCall)
	}
	if len(msgs.saved) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs.saved))
	}
	reply := msgs.saved[1]
	if reply.Role != models.RoleAssistant || reply.Username != common.AssistantDisplayName {
		t.Fatalf("unexpected assistant message: %+v", reply)
	}
	if reply.Content != "Hello there" {
		t.Fatalf("assembled reply mismatch: %q", reply.Content)
	}
}

func TestRelay_EngineFailure_KeepsUserMessage(t *testing.T) {
	db, mock := newSQLMockDB(t)
	expectTx(mock, 1) // only the user message

	msgs := &fakeMessagesRepo{}
	engine := &fakeEngine{streamErr: errors.New("quota"), messagesRepo: msgs}
	s := NewChatService(db, &fakeRepoManager{messages: msgs, sessions: &fakeSessionsRepo{}}, engine)

	err := s.Relay(context.Background(), chatUser(),
		[]TurnMessage{{Role: models.RoleUser, Content: "hi"}},
		func(string) error { return nil })
	if !errors.Is(err, common.ErrorUpstream) {
		t.Fatalf("expected common.ErrorUpstream, got %v", err)
	}
	if len(msgs.saved) != 1 || msgs.saved[0].Role != models.RoleUser {
		t.Fatalf("user message must survive engine failure: %+v", msgs.saved)
	}
}

func TestRelay_MidStreamError_NoAssistantPersisted(t *testing.T) {
	db, mock := newSQLMockDB(t)
	expectTx(mock, 1)

	msgs := &fakeMessagesRepo{}
	engine := &fakeEngine{chunks: []string{"par"}, chunkErr: errors.New("connection reset"), messagesRepo: msgs}
	s := NewChatService(db, &fakeRepoManager{messages: msgs, sessions: &fakeSessionsRepo{}}, engine)

	err := s.Relay(context.Background(), chatUser(),
		[]TurnMessage{{Role: models.RoleUser, Content: "hi"}},
		func(string) error { return nil })
	if !errors.Is(err, common.ErrorUpstream) {
		t.Fatalf("expected common.ErrorUpstream, got %v", err)
	}
	if len(msgs.saved) != 1 {
		t.Fatalf("aborted stream must not persist an assistant message: %+v", msgs.saved)
	}
}

func TestRelay_ConsumerGone_StillPersistsReply(t *testing.T) {
	db, mock := newSQLMockDB(t)
	expectTx(mock, 2)

	msgs := &fakeMessagesRepo{}
	engine := &fakeEngine{chunks: []string{"a", "b", "c"}, messagesRepo: msgs}
	s := NewChatService(db, &fakeRepoManager{messages: msgs, sessions: &fakeSessionsRepo{}}, engine)

	calls := 0
	err := s.Relay(context.Background(), chatUser(),
		[]TurnMessage{{Role: models.RoleUser, Content: "hi"}},
		func(string) error {
			calls++
			return errors.New("client disconnected")
		})
	if err != nil {
		t.Fatalf("Relay error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("forwarding must stop once the consumer is gone, calls=%d", calls)
	}
	if len(msgs.saved) != 2 || msgs.saved[1].Content != "abc" {
		t.Fatalf("gracefully completed reply must still be persisted: %+v", msgs.saved)
	}
}

func TestRelay_AssistantFinalTurn_NotReSaved(t *testing.T) {
	db, mock := newSQLMockDB(t)
	expectTx(mock, 1) // only the assistant reply at the end

	msgs := &fakeMessagesRepo{}
	engine := &fakeEngine{chunks: []string{"ok"}, messagesRepo: msgs}
	s := NewChatService(db, &fakeRepoManager{messages: msgs, sessions: &fakeSessionsRepo{}}, engine)

	err := s.Relay(context.Background(), chatUser(),
		[]TurnMessage{{Role: models.RoleAssistant, Content: "previous reply"}},
		func(string) error { return nil })
	if err != nil {
		t.Fatalf("Relay error: %v", err)
	}
	if engine.savedAtCall != 0 {
		t.Fatalf("non-user final turn must not be persisted before the engine call")
	}
}

func TestRelay_EmptyTurns_ValidationError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	s := NewChatService(db, &fakeRepoManager{}, &fakeEngine{})

	err := s.Relay(context.Background(), chatUser(), nil, func(string) error { return nil })
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("expected common.ErrorValidation, got %v", err)
	}
}
