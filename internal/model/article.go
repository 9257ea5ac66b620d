package model

import "encoding/json"

// Article 是远端服务提供的一篇新闻。
type Article struct {
	ID            string `json:"id,omitempty"`
	Title         string `json:"title"`
	Source        string `json:"source,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Content       string `json:"content,omitempty"`
	Category      string `json:"category,omitempty"`
	URL           string `json:"url,omitempty"`
}

// ArticleFilters 是文章搜索的附加查询参数，例如 category、source、limit。
type ArticleFilters map[string]string

// ArticleList 对应 GET /articles 与 /articles/search 的 data 字段。
type ArticleList struct {
	Articles   []Article       `json:"articles"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	SearchInfo json.RawMessage `json:"search_info,omitempty"`
}

// RAGContext 是发送消息时服务端返回的检索上下文，客户端只记录数量。
type RAGContext struct {
	Contexts []json.RawMessage `json:"contexts"`
}

// ChatReply 对应 POST /chat 成功时的 data 字段。
type ChatReply struct {
	Message    Message     `json:"message"`
	RAGContext *RAGContext `json:"rag_context,omitempty"`
}
