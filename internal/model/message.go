// Package model 包含了客户端的数据模型定义。
package model

import (
	"encoding/json"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 代表对话记录中的单条消息。
type Message struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Timestamp Timestamp        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// IsError 报告该消息是否为本地生成的错误提示。
func (m Message) IsError() bool {
	return m.Metadata != nil && m.Metadata.Error
}

// Source 是 RAG 回答引用的一条来源，客户端只做透传。
// 未识别的字段保存在 Extra 中。
type Source struct {
	Title          string  `json:"title"`
	Source         string  `json:"source"`
	PublishedDate  string  `json:"published_date"`
	RelevanceScore float64 `json:"relevance_score"`
	URL            string  `json:"url"`
	ContentSnippet string  `json:"content_snippet"`

	Extra map[string]json.RawMessage `json:"-"`

	present map[string]bool
}

// sourceFields 避免 MarshalJSON/UnmarshalJSON 递归调用自身。
type sourceFields Source

// UnmarshalJSON 解析已知字段，并保留其余字段。
func (s *Source) UnmarshalJSON(data []byte) error {
	var fields sourceFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	present, extra, err := splitKnown(data, &fields)
	if err != nil {
		return err
	}
	*s = Source(fields)
	s.present, s.Extra = present, extra
	return nil
}

// MarshalJSON 写回收到的全部字段，包括显式的零值。
func (s Source) MarshalJSON() ([]byte, error) {
	return joinKnown(sourceFields(s), s.present, s.Extra)
}

// MessageMetadata 保存服务端附带的消息注解。
// 未识别的字段保存在 Extra 中，重新序列化时原样写回。
// 服务端显式给出的零值（如 "rag_used": false）同样保留。
type MessageMetadata struct {
	Error            bool     `json:"error"`
	RAGUsed          bool     `json:"rag_used"`
	Sources          []Source `json:"sources"`
	ProcessingTimeMs float64  `json:"processing_time_ms"`
	Model            string   `json:"model"`

	Extra map[string]json.RawMessage `json:"-"`

	present map[string]bool
}

// metadataFields 避免 MarshalJSON/UnmarshalJSON 递归调用自身。
type metadataFields MessageMetadata

// UnmarshalJSON 解析已知字段，并保留其余字段。
func (m *MessageMetadata) UnmarshalJSON(data []byte) error {
	var fields metadataFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	present, extra, err := splitKnown(data, &fields)
	if err != nil {
		return err
	}
	*m = MessageMetadata(fields)
	m.present, m.Extra = present, extra
	return nil
}

// MarshalJSON 先写入 Extra，再由已知字段覆盖同名键。
func (m MessageMetadata) MarshalJSON() ([]byte, error) {
	return joinKnown(metadataFields(m), m.present, m.Extra)
}

// splitKnown 把 data 的键分为已知字段（记录是否出现）和其余字段。
// known 是已解析好的结构体，只用于取得它的 JSON 键名。
func splitKnown(data []byte, known any) (map[string]bool, map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}
	keys, err := fieldMap(known)
	if err != nil {
		return nil, nil, err
	}
	present := make(map[string]bool)
	for k := range keys {
		if _, ok := raw[k]; ok {
			present[k] = true
			delete(raw, k)
		}
	}
	if len(raw) == 0 {
		raw = nil
	}
	return present, raw, nil
}

// joinKnown 合并 Extra 与已知字段。已知字段为零值且输入中未出现时省略。
func joinKnown(known any, present map[string]bool, extra map[string]json.RawMessage) ([]byte, error) {
	fields, err := fieldMap(known)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]json.RawMessage, len(extra)+len(fields))
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range fields {
		if present[k] || !isZeroJSON(v) {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

func fieldMap(v any) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isZeroJSON(v json.RawMessage) bool {
	switch string(v) {
	case "null", "false", "0", `""`, "[]", "{}":
		return true
	}
	return false
}

// CloneMessages 返回消息切片的浅拷贝，调用方可以安全追加。
func CloneMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)
	return out
}
