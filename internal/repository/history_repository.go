// Package repository 提供了会话身份与对话缓存的本地存取实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"news-rag-client/internal/model"
	"news-rag-client/pkg/log"
	"news-rag-client/pkg/storage"
	"sync"
	"time"
)

// 持久化存储中使用的两个键。
const (
	SessionKey = "rag_chat_session"
	HistoryKey = "rag_chat_history"
)

// HistoryTTL 是缓存对话记录的有效期。
const HistoryTTL = time.Hour

// Option 配置仓库实例。
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock 替换仓库使用的时钟，测试中用来模拟时间流逝。
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// HistoryCache 定义了最近一次对话记录的缓存操作。
// 所有方法都不返回错误：存储失败只记录日志，调用方按缓存未命中处理。
type HistoryCache interface {
	Get(ctx context.Context, sessionID string) ([]model.Message, bool)
	Set(ctx context.Context, sessionID string, messages []model.Message)
	Clear(ctx context.Context, sessionID string)
	ClearAll(ctx context.Context)
}

type historyCache struct {
	// mu 保证 Clear 的"读取-比较-删除"与 Set 不会交错
	mu    sync.Mutex
	store storage.Store
	now   func() time.Time
}

// NewHistoryCache 创建一个新的 HistoryCache 实例。
func NewHistoryCache(store storage.Store, opts ...Option) HistoryCache {
	o := buildOptions(opts)
	return &historyCache{store: store, now: o.now}
}

// Get 仅当缓存属于 sessionID 且未超过 HistoryTTL 时返回缓存的消息。
func (c *historyCache) Get(ctx context.Context, sessionID string) ([]model.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.read(ctx)
	if !ok || cached.SessionID != sessionID {
		return nil, false
	}
	if c.now().Sub(cached.CachedAt) >= HistoryTTL {
		return nil, false
	}
	if cached.Messages == nil {
		return []model.Message{}, true
	}
	return cached.Messages, true
}

// Set 覆盖唯一的缓存槽位，后写者生效。
func (c *historyCache) Set(ctx context.Context, sessionID string, messages []model.Message) {
	if messages == nil {
		messages = []model.Message{}
	}
	data, err := json.Marshal(model.CachedTranscript{
		SessionID: sessionID,
		Messages:  messages,
		CachedAt:  c.now().UTC(),
	})
	if err != nil {
		log.Error("Failed to encode chat history cache", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Set(ctx, HistoryKey, string(data)); err != nil {
		log.Warnw("Failed to cache chat history", "sessionId", sessionID, "error", err)
	}
}

// Clear 仅当缓存槽位仍属于 sessionID 时删除它。
func (c *historyCache) Clear(ctx context.Context, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.read(ctx)
	if !ok || cached.SessionID != sessionID {
		return
	}
	if err := c.store.Remove(ctx, HistoryKey); err != nil {
		log.Warnw("Failed to clear cached history", "sessionId", sessionID, "error", err)
		return
	}
	log.Debugf("Cached history cleared for session: %s", sessionID)
}

// ClearAll 无条件删除缓存槽位。
func (c *historyCache) ClearAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Remove(ctx, HistoryKey); err != nil {
		log.Warnw("Failed to clear chat history cache", "error", err)
	}
}

// read 读取并解析缓存槽位，缺失或损坏都视为不存在。调用方需持有 mu。
func (c *historyCache) read(ctx context.Context) (model.CachedTranscript, bool) {
	var cached model.CachedTranscript
	raw, err := c.store.Get(ctx, HistoryKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warnw("Failed to read chat history cache", "error", err)
		}
		return cached, false
	}
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		log.Warnw("Discarding malformed chat history cache", "error", err)
		return cached, false
	}
	return cached, true
}
