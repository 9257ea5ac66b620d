package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"news-rag-client/internal/model"
	"news-rag-client/pkg/log"
	"news-rag-client/pkg/storage"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionValidity 是会话被视为仍然活跃的时长，仅供展示和决策参考。
const SessionValidity = 24 * time.Hour

// SessionStore 定义了当前会话身份的存取操作。
type SessionStore interface {
	// CreateSession 生成并持久化新会话，同时使已有的对话缓存失效。
	// 存储失败时仍返回新的 ID，调用方可以只在内存中继续。
	CreateSession(ctx context.Context) string
	CurrentSessionID(ctx context.Context) (string, bool)
	CurrentSession(ctx context.Context) (model.Session, bool)
	// TouchActivity 仅在持久化的会话 ID 与 sessionID 相同时刷新 LastActivity。
	TouchActivity(ctx context.Context, sessionID string)
	IsValid(session model.Session) bool
	DisplayName(session *model.Session) string
	// Reset 删除会话与缓存，用于完全重置客户端。
	Reset(ctx context.Context)
}

type sessionStore struct {
	mu      sync.Mutex
	store   storage.Store
	history HistoryCache
	now     func() time.Time
}

// NewSessionStore 创建一个新的 SessionStore 实例。
func NewSessionStore(store storage.Store, history HistoryCache, opts ...Option) SessionStore {
	o := buildOptions(opts)
	return &sessionStore{store: store, history: history, now: o.now}
}

func (s *sessionStore) CreateSession(ctx context.Context) string {
	now := s.now().UTC()
	session := model.Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 先清空缓存：即使会话写入失败，新会话也不会读到旧的对话记录
	s.history.ClearAll(ctx)
	if err := s.write(ctx, session); err != nil {
		log.Warnw("Failed to save session, continuing in memory", "sessionId", session.ID, "error", err)
		return session.ID
	}
	log.Infof("Created new session: %s", session.ID)
	return session.ID
}

func (s *sessionStore) CurrentSessionID(ctx context.Context) (string, bool) {
	session, ok := s.CurrentSession(ctx)
	if !ok {
		return "", false
	}
	return session.ID, true
}

func (s *sessionStore) CurrentSession(ctx context.Context) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *sessionStore) TouchActivity(ctx context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.read(ctx)
	if !ok || session.ID != sessionID {
		return
	}
	session.LastActivity = s.now().UTC()
	if err := s.write(ctx, session); err != nil {
		log.Warnw("Failed to update session activity", "sessionId", sessionID, "error", err)
	}
}

func (s *sessionStore) IsValid(session model.Session) bool {
	return s.now().Sub(session.LastActivity) < SessionValidity
}

func (s *sessionStore) DisplayName(session *model.Session) string {
	if session == nil {
		return "New Chat"
	}
	minutes := int(s.now().Sub(session.CreatedAt) / time.Minute)
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%dh ago", minutes/60)
	default:
		return model.FormatDate(session.CreatedAt)
	}
}

func (s *sessionStore) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Remove(ctx, SessionKey); err != nil {
		log.Warnw("Failed to remove session", "error", err)
	}
	s.history.ClearAll(ctx)
	log.Info("Session cache cleared")
}

func (s *sessionStore) read(ctx context.Context) (model.Session, bool) {
	var session model.Session
	raw, err := s.store.Get(ctx, SessionKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warnw("Failed to read session", "error", err)
		}
		return session, false
	}
	if err := json.Unmarshal([]byte(raw), &session); err != nil || session.ID == "" {
		log.Warnw("Discarding malformed session record", "error", err)
		return model.Session{}, false
	}
	return session, true
}

func (s *sessionStore) write(ctx context.Context, session model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, SessionKey, string(data))
}
