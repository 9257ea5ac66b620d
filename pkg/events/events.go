// Package events 定义了客户端发布的会话事件。
package events

import (
	"context"
	"time"
)

// 事件类型
const (
	SessionCreated   = "session_created"
	MessageExchanged = "message_exchanged"
	SendFailed       = "send_failed"
	HistoryCleared   = "history_cleared"
)

// ConversationEvent 是会话中一个可观察的步骤。
type ConversationEvent struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"session_id"`
	MessageID   string    `json:"message_id,omitempty"`
	ArticleID   string    `json:"article_id,omitempty"`
	RAGUsed     bool      `json:"rag_used,omitempty"`
	SourceCount int       `json:"source_count,omitempty"`
	Error       string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}

// Publisher 投递会话事件。实现不得长时间阻塞调用方，且必须并发安全。
type Publisher interface {
	Publish(ctx context.Context, event ConversationEvent) error
	Close() error
}

// Noop 丢弃所有事件。
type Noop struct{}

func (Noop) Publish(context.Context, ConversationEvent) error { return nil }
func (Noop) Close() error                                     { return nil }
