package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"news-rag-client/internal/model"
	"news-rag-client/internal/repository"
	"news-rag-client/pkg/events"
	"news-rag-client/pkg/ragapi"
	"news-rag-client/pkg/storage"

	"github.com/stretchr/testify/require"
)

// fakeAPI 是内存中的 ragapi.Client。gate 让测试挂起请求，直到关闭该通道。
type fakeAPI struct {
	mu          sync.Mutex
	history     map[string][]model.Message
	historyErr  error
	historyGate map[string]chan struct{}
	sendFn      func(ctx context.Context, sessionID, text string) (*model.ChatReply, error)
	clearErr    error
	articles    []model.Article
	sent        []string
	cleared     []string
}

var _ ragapi.Client = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		history:     map[string][]model.Message{},
		historyGate: map[string]chan struct{}{},
	}
}

func (f *fakeAPI) gate(sessionID string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.historyGate[sessionID] = ch
	return ch
}

func (f *fakeAPI) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeAPI) SendMessage(ctx context.Context, sessionID, message string, _ map[string]any) (*model.ChatReply, error) {
	f.mu.Lock()
	f.sent = append(f.sent, message)
	fn := f.sendFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, sessionID, message)
	}
	return &model.ChatReply{Message: model.Message{
		ID:      "reply-" + message,
		Role:    model.RoleAssistant,
		Content: "Echo: " + message,
	}}, nil
}

func (f *fakeAPI) GetHistory(ctx context.Context, sessionID string, _, _ int) ([]model.Message, error) {
	f.mu.Lock()
	gate := f.historyGate[sessionID]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &ragapi.TransportError{Op: "Failed to fetch chat history", Err: ctx.Err()}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return model.CloneMessages(f.history[sessionID]), nil
}

func (f *fakeAPI) ClearHistory(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = append(f.cleared, sessionID)
	delete(f.history, sessionID)
	return nil
}

func (f *fakeAPI) DeleteSession(context.Context, string) error { return nil }

func (f *fakeAPI) GetArticles(context.Context) (*model.ArticleList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.ArticleList{Articles: f.articles}, nil
}

func (f *fakeAPI) GetArticleStats(context.Context) (json.RawMessage, error) { return nil, nil }

func (f *fakeAPI) SearchArticles(_ context.Context, query string, _ model.ArticleFilters) (*model.ArticleList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Article
	for _, a := range f.articles {
		if a.Title == query {
			out = append(out, a)
		}
	}
	return &model.ArticleList{Articles: out}, nil
}

func (f *fakeAPI) SearchDocuments(context.Context, string, map[string]any) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeAPI) GetSearchStats(context.Context) (json.RawMessage, error)  { return nil, nil }
func (f *fakeAPI) GetHealthStatus(context.Context) (json.RawMessage, error) { return nil, nil }
func (f *fakeAPI) IsAvailable(context.Context) bool                         { return true }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ConversationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.ConversationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	kv         *storage.MemoryStore
	sessions   repository.SessionStore
	history    repository.HistoryCache
	api        *fakeAPI
	publisher  *recordingPublisher
	controller *ConversationController
}

func newHarness() *harness {
	kv := storage.NewMemoryStore()
	history := repository.NewHistoryCache(kv)
	sessions := repository.NewSessionStore(kv, history)
	api := newFakeAPI()
	publisher := &recordingPublisher{}
	return &harness{
		kv:         kv,
		sessions:   sessions,
		history:    history,
		api:        api,
		publisher:  publisher,
		controller: NewConversationController(sessions, history, api, WithEvents(publisher)),
	}
}

// seedCache 写入一份 cachedAt 早于当前 age 时长的缓存。
func (h *harness) seedCache(t *testing.T, sessionID string, age time.Duration, messages []model.Message) {
	t.Helper()
	data, err := json.Marshal(model.CachedTranscript{
		SessionID: sessionID,
		Messages:  messages,
		CachedAt:  time.Now().Add(-age).UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, h.kv.Set(context.Background(), repository.HistoryKey, string(data)))
}

func waitFor(t *testing.T, ch <-chan Snapshot, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if cond(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
			return Snapshot{}
		}
	}
}

func contents(messages []model.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Content)
	}
	return out
}

func userMsg(id, content string) model.Message {
	return model.Message{ID: id, Role: model.RoleUser, Content: content}
}

func assistantMsg(id, content string) model.Message {
	return model.Message{ID: id, Role: model.RoleAssistant, Content: content}
}
