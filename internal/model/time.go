package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// LocalTime 以 "YYYY-MM-DD HH:MM:SS" 格式序列化时间。
type LocalTime time.Time

const (
	timeFormat = "2006-01-02 15:04:05"
	dateFormat = "2006-01-02"
)

// isoLayouts 是远端服务可能使用的 ISO-8601 格式，不带时区的按 UTC 处理。
var isoLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999999", dateFormat}

// MarshalJSON 实现 json.Marshaler 接口。
func (t LocalTime) MarshalJSON() ([]byte, error) {
	formatted := fmt.Sprintf("\"%s\"", time.Time(t).Local().Format(timeFormat))
	return []byte(formatted), nil
}

// Timestamp 是消息时间戳。解析失败时不报错，原始字符串保存在 Raw 中并原样写回。
type Timestamp struct {
	time.Time
	Raw string
}

// NewTimestamp 包装一个本地生成的时间。
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// UnmarshalJSON 接受 null、空字符串以及 isoLayouts 中的任一格式。
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Raw = string(data)
		return nil
	}
	if s == "" {
		return nil
	}
	if parsed, ok := parseISO(s); ok {
		t.Time = parsed
		return nil
	}
	t.Raw = s
	return nil
}

// MarshalJSON 优先写回无法解析的原始值，零值写为空字符串。
func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch {
	case t.Raw != "":
		return json.Marshal(t.Raw)
	case t.Time.IsZero():
		return []byte(`""`), nil
	default:
		return json.Marshal(t.Time.Format(time.RFC3339Nano))
	}
}

// FormatDate 把 t 格式化为本地日期。
func FormatDate(t time.Time) string {
	return t.Local().Format(dateFormat)
}

// FormatPublishedDate 解析远端返回的 ISO-8601 日期并格式化为本地日期，
// 无法解析时返回 "Unknown date"。
func FormatPublishedDate(s string) string {
	if t, ok := parseISO(s); ok {
		return FormatDate(t)
	}
	return "Unknown date"
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
