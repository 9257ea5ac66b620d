// Package service 包含了客户端的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"news-rag-client/internal/model"
	"news-rag-client/internal/repository"
	"news-rag-client/pkg/events"
	"news-rag-client/pkg/log"
	"news-rag-client/pkg/ragapi"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State 是当前会话的加载状态。
type State string

const (
	StateLoadingHistory State = "loading_history"
	StateReady          State = "ready"
)

// 展示给用户的错误提示。
const (
	loadFailedNotice  = "Failed to load chat history. Starting fresh conversation."
	clearFailedNotice = "Failed to clear chat history."
)

var (
	// ErrNoSession 表示在建立会话之前调用了需要会话的操作。
	ErrNoSession = errors.New("no active session")
	// ErrSendInFlight 表示有消息正在发送，操作被拒绝。
	ErrSendInFlight = errors.New("a message is still being sent")
)

// Snapshot 是某一时刻对话状态的只读副本，供展示层渲染。
type Snapshot struct {
	SessionID string          `json:"sessionId"`
	Article   *model.Article  `json:"article,omitempty"`
	State     State           `json:"state"`
	Sending   bool            `json:"sending"`
	Typing    bool            `json:"typing"` // Sending 的别名，供展示层显示输入提示
	Messages  []model.Message `json:"messages"`
	Error     string          `json:"error,omitempty"`
}

// ControllerOption 配置 ConversationController。
type ControllerOption func(*ConversationController)

// WithEvents 设置会话事件的发布者。
func WithEvents(p events.Publisher) ControllerOption {
	return func(c *ConversationController) { c.events = p }
}

// WithHistoryLimit 设置加载历史时请求的消息条数。
func WithHistoryLimit(limit int) ControllerOption {
	return func(c *ConversationController) {
		if limit > 0 {
			c.historyLimit = limit
		}
	}
}

// ConversationController 持有当前会话的对话记录，负责历史加载与对账、
// 乐观发送以及合并服务端响应。
//
// 每次切换会话都会递增 generation；进行中的操作在开始时记录
// (sessionID, generation)，完成时若标记已过期则丢弃结果。
type ConversationController struct {
	sessions     repository.SessionStore
	history      repository.HistoryCache
	api          ragapi.Client
	events       events.Publisher
	historyLimit int

	mu          sync.Mutex
	sessionID   string
	article     *model.Article
	generation  uint64
	state       State
	sending     bool
	messages    []model.Message
	errMsg      string
	subscribers map[int]chan Snapshot
	nextSubID   int
}

// NewConversationController 创建一个新的 ConversationController。
func NewConversationController(sessions repository.SessionStore, history repository.HistoryCache, api ragapi.Client, opts ...ControllerOption) *ConversationController {
	c := &ConversationController{
		sessions:     sessions,
		history:      history,
		api:          api,
		events:       events.Noop{},
		historyLimit: 50,
		state:        StateReady,
		messages:     []model.Message{},
		subscribers:  make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start 恢复已持久化的会话，没有则新建一个，然后加载历史。
// 返回的错误只表示历史加载失败，会话本身始终可用。
func (c *ConversationController) Start(ctx context.Context) (string, error) {
	sessionID, ok := c.sessions.CurrentSessionID(ctx)
	if !ok {
		sessionID = c.sessions.CreateSession(ctx)
		c.emit(ctx, events.ConversationEvent{Type: events.SessionCreated, SessionID: sessionID})
	}
	gen := c.enter(sessionID, nil)
	return sessionID, c.loadHistory(ctx, sessionID, gen)
}

// NewSession 开始一个全新的对话。
func (c *ConversationController) NewSession(ctx context.Context) (string, error) {
	sessionID, gen := c.createAndEnter(ctx, nil)
	return sessionID, c.loadHistory(ctx, sessionID, gen)
}

// SelectArticle 为文章新建会话，等待历史加载结束后自动发送第一条提问。
func (c *ConversationController) SelectArticle(ctx context.Context, article model.Article) (string, error) {
	sessionID, gen := c.createAndEnter(ctx, &article)

	// 加载失败不影响自动提问，错误已体现在快照中
	_ = c.loadHistory(ctx, sessionID, gen)

	if strings.TrimSpace(article.Title) == "" || !c.isCurrent(gen) {
		return sessionID, nil
	}
	return sessionID, c.SendMessage(ctx, "Tell me about: "+article.Title)
}

func (c *ConversationController) createAndEnter(ctx context.Context, article *model.Article) (string, uint64) {
	sessionID := c.sessions.CreateSession(ctx)
	c.history.Clear(ctx, sessionID)

	event := events.ConversationEvent{Type: events.SessionCreated, SessionID: sessionID}
	if article != nil {
		event.ArticleID = article.ID
	}
	c.emit(ctx, event)

	return sessionID, c.enter(sessionID, article)
}

// enter 切换到 sessionID，清空展示中的对话记录并进入 LoadingHistory。
func (c *ConversationController) enter(sessionID string, article *model.Article) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.sessionID = sessionID
	c.article = article
	c.state = StateLoadingHistory
	c.sending = false
	c.messages = []model.Message{}
	c.errMsg = ""
	c.notifyLocked()
	return c.generation
}

// LoadHistory 对当前会话执行"先缓存后校验"的历史加载。
// 当前会话已在加载中时直接返回。
func (c *ConversationController) LoadHistory(ctx context.Context) error {
	c.mu.Lock()
	if c.sessionID == "" {
		c.mu.Unlock()
		return ErrNoSession
	}
	if c.state == StateLoadingHistory {
		c.mu.Unlock()
		return nil
	}
	c.state = StateLoadingHistory
	c.errMsg = ""
	sessionID, gen := c.sessionID, c.generation
	c.notifyLocked()
	c.mu.Unlock()

	return c.loadHistory(ctx, sessionID, gen)
}

// Retry 清除错误提示并重新加载历史。
func (c *ConversationController) Retry(ctx context.Context) error {
	c.mu.Lock()
	c.errMsg = ""
	c.notifyLocked()
	c.mu.Unlock()
	return c.LoadHistory(ctx)
}

type historyResult struct {
	messages []model.Message
	err      error
}

func (c *ConversationController) loadHistory(ctx context.Context, sessionID string, gen uint64) error {
	// 远端调用只受客户端超时约束，调用方断开不会中断请求
	ctx = context.WithoutCancel(ctx)
	fetched := make(chan historyResult, 1)
	go func() {
		messages, err := c.api.GetHistory(ctx, sessionID, c.historyLimit, 0)
		fetched <- historyResult{messages: messages, err: err}
	}()

	// 缓存只是占位：它总在网络结果应用之前发布
	cached, hit := c.history.Get(ctx, sessionID)
	if hit {
		c.mu.Lock()
		if gen == c.generation && c.state == StateLoadingHistory {
			c.messages = model.CloneMessages(cached)
			c.notifyLocked()
		}
		c.mu.Unlock()
	}

	res := <-fetched

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Debugf("Discarding history for stale session %s", sessionID)
		return nil
	}
	c.state = StateReady
	if res.err != nil {
		if hit {
			c.errMsg = res.err.Error()
		} else {
			c.messages = []model.Message{}
			c.errMsg = loadFailedNotice
		}
		c.notifyLocked()
		c.mu.Unlock()
		log.Errorf("Failed to load chat history for session %s: %v", sessionID, res.err)
		return res.err
	}
	c.messages = model.CloneMessages(res.messages)
	c.errMsg = ""
	c.notifyLocked()
	c.mu.Unlock()

	c.history.Set(ctx, sessionID, res.messages)
	c.sessions.TouchActivity(ctx, sessionID)
	return nil
}

// SendMessage 乐观地追加用户消息，再把服务端的回复追加到对话记录。
// 空白内容或已有消息在发送中时静默忽略并返回 nil。
func (c *ConversationController) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if c.sessionID == "" {
		c.mu.Unlock()
		return ErrNoSession
	}
	if c.sending || c.state != StateReady {
		sending, state := c.sending, c.state
		c.mu.Unlock()
		log.Debugf("Ignoring message: sending=%v state=%s", sending, state)
		return nil
	}
	sessionID, gen := c.sessionID, c.generation
	c.messages = append(c.messages, model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Content:   text,
		Timestamp: model.NewTimestamp(time.Now()),
	})
	c.sending = true
	c.errMsg = ""
	c.notifyLocked()
	c.mu.Unlock()

	defer c.endSend(gen)

	// 服务端会完成已发出的请求，这里同样不随调用方取消
	ctx = context.WithoutCancel(ctx)
	reply, err := c.api.SendMessage(ctx, sessionID, text, nil)
	if err != nil {
		return c.failSend(ctx, sessionID, gen, err)
	}
	c.completeSend(ctx, sessionID, gen, reply)
	return nil
}

func (c *ConversationController) completeSend(ctx context.Context, sessionID string, gen uint64, reply *model.ChatReply) {
	assistant := reply.Message

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Debugf("Discarding reply for stale session %s", sessionID)
		return
	}
	if assistant.ID == "" || c.hasMessageLocked(assistant.ID) {
		assistant.ID = uuid.NewString()
	}
	c.messages = append(c.messages, assistant)
	toCache := cacheable(c.messages)
	c.notifyLocked()
	c.mu.Unlock()

	c.history.Set(ctx, sessionID, toCache)
	c.sessions.TouchActivity(ctx, sessionID)

	event := events.ConversationEvent{Type: events.MessageExchanged, SessionID: sessionID, MessageID: assistant.ID}
	if md := assistant.Metadata; md != nil {
		event.RAGUsed = md.RAGUsed
		event.SourceCount = len(md.Sources)
	}
	if reply.RAGContext != nil {
		log.Infow("RAG Context Used", "sessionId", sessionID, "contexts", len(reply.RAGContext.Contexts), "ragUsed", event.RAGUsed)
	}
	c.emit(ctx, event)
}

// failSend 追加一条错误提示消息。该消息不写入缓存。
func (c *ConversationController) failSend(ctx context.Context, sessionID string, gen uint64, err error) error {
	log.Errorf("Failed to send message for session %s: %v", sessionID, err)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return err
	}
	c.messages = append(c.messages, model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleAssistant,
		Content:   fmt.Sprintf("Sorry, I encountered an error: %s. Please try again.", strings.TrimRight(err.Error(), ".")),
		Timestamp: model.NewTimestamp(time.Now()),
		Metadata:  &model.MessageMetadata{Error: true},
	})
	c.errMsg = err.Error()
	c.notifyLocked()
	c.mu.Unlock()

	c.emit(ctx, events.ConversationEvent{Type: events.SendFailed, SessionID: sessionID, Error: err.Error()})
	return err
}

// endSend 在所有退出路径上结束 Sending 状态。
func (c *ConversationController) endSend(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.sending = false
	c.notifyLocked()
}

// ClearHistory 清空服务端与本地的对话记录，失败时保持对话记录不变。
func (c *ConversationController) ClearHistory(ctx context.Context) error {
	c.mu.Lock()
	if c.sessionID == "" {
		c.mu.Unlock()
		return ErrNoSession
	}
	if c.sending {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	sessionID, gen := c.sessionID, c.generation
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	err := c.api.ClearHistory(ctx, sessionID)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.errMsg = clearFailedNotice
		c.notifyLocked()
		c.mu.Unlock()
		log.Errorf("Failed to clear history for session %s: %v", sessionID, err)
		return err
	}
	c.messages = []model.Message{}
	c.errMsg = ""
	c.notifyLocked()
	c.mu.Unlock()

	c.history.Clear(ctx, sessionID)
	c.emit(ctx, events.ConversationEvent{Type: events.HistoryCleared, SessionID: sessionID})
	return nil
}

// Snapshot 返回当前状态的副本。
func (c *ConversationController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe 返回一个接收状态快照的通道。读取过慢时只保留最新的快照。
// 调用返回的函数取消订阅。
func (c *ConversationController) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
		})
	}
}

func (c *ConversationController) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation
}

func (c *ConversationController) hasMessageLocked(id string) bool {
	for _, m := range c.messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (c *ConversationController) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID: c.sessionID,
		Article:   c.article,
		State:     c.state,
		Sending:   c.sending,
		Typing:    c.sending,
		Messages:  model.CloneMessages(c.messages),
		Error:     c.errMsg,
	}
}

// notifyLocked 在持有 mu 时推送快照，保证订阅者看到的顺序与状态变更顺序一致。
func (c *ConversationController) notifyLocked() {
	if len(c.subscribers) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (c *ConversationController) emit(ctx context.Context, event events.ConversationEvent) {
	event.At = time.Now().UTC()
	if err := c.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		log.Warnw("Failed to publish conversation event", "type", event.Type, "error", err)
	}
}

// cacheable 返回去掉本地错误提示后的对话记录。
func cacheable(messages []model.Message) []model.Message {
	out := make([]model.Message, 0, len(messages))
	for _, m := range messages {
		if !m.IsError() {
			out = append(out, m)
		}
	}
	return out
}
