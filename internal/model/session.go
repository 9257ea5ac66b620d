package model

import "time"

// Session 是客户端持有的会话身份，绑定服务端的一段对话历史。
type Session struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// CachedTranscript 是本地缓存的最近一次对话记录，同一时刻只保留一份。
type CachedTranscript struct {
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
	CachedAt  time.Time `json:"cachedAt"`
}
