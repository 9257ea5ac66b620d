package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageMetadataPreservesUnknownFields(t *testing.T) {
	payload := `{
		"id": "a1",
		"role": "assistant",
		"content": "Here is the news",
		"timestamp": "2026-10-19T10:00:00Z",
		"metadata": {
			"rag_used": true,
			"sources": [{"title": "Storm", "source": "Reuters", "relevance_score": 0.91}],
			"processing_time_ms": 812,
			"model": "gemini-pro",
			"total_processing_time_ms": 1034,
			"retrieval": {"k": 5}
		}
	}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(payload), &msg))
	require.NotNil(t, msg.Metadata)
	assert.True(t, msg.Metadata.RAGUsed)
	assert.False(t, msg.IsError())
	assert.Len(t, msg.Metadata.Sources, 1)
	assert.Equal(t, "gemini-pro", msg.Metadata.Model)
	assert.Contains(t, msg.Metadata.Extra, "total_processing_time_ms")

	out, err := json.Marshal(msg)
	require.NoError(t, err)

	var generic map[string]map[string]any
	require.NoError(t, json.Unmarshal(out, &generic))
	meta := generic["metadata"]
	assert.Equal(t, float64(1034), meta["total_processing_time_ms"])
	assert.Equal(t, map[string]any{"k": float64(5)}, meta["retrieval"])
	assert.Equal(t, true, meta["rag_used"])
}

func TestMessageWithoutMetadata(t *testing.T) {
	out, err := json.Marshal(Message{ID: "u1", Role: RoleUser, Content: "Hi"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "metadata")
}

func TestFormatPublishedDate(t *testing.T) {
	assert.Equal(t, "Unknown date", FormatPublishedDate("yesterday"))
	assert.NotEqual(t, "Unknown date", FormatPublishedDate("2026-10-18T08:30:00Z"))
}

func TestMessageMetadataKeepsExplicitZeroValues(t *testing.T) {
	payload := `{"rag_used":false,"processing_time_ms":0,"sources":[{"title":"T","source":"AP","relevance_score":0.5,"article_id":"art-9","category":"tech"}]}`

	var meta MessageMetadata
	require.NoError(t, json.Unmarshal([]byte(payload), &meta))
	require.Len(t, meta.Sources, 1)
	assert.Equal(t, "AP", meta.Sources[0].Source)
	assert.Contains(t, meta.Sources[0].Extra, "article_id")

	out, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out))
}

func TestLocallyBuiltMetadataOmitsUnsetFields(t *testing.T) {
	out, err := json.Marshal(MessageMetadata{Error: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":true}`, string(out))

	out, err = json.Marshal(Source{Title: "Storm", RelevanceScore: 0.4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Storm","relevance_score":0.4}`, string(out))
}

func TestTimestampDecoding(t *testing.T) {
	cases := []struct {
		in       string
		wantTime time.Time
		wantRaw  string
		out      string
	}{
		{`"2026-10-19T10:00:00Z"`, time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC), "", `"2026-10-19T10:00:00Z"`},
		{`"2026-10-19T10:00:00.123456"`, time.Date(2026, 10, 19, 10, 0, 0, 123456000, time.UTC), "", `"2026-10-19T10:00:00.123456Z"`},
		{`""`, time.Time{}, "", `""`},
		{`null`, time.Time{}, "", `""`},
		{`"last tuesday"`, time.Time{}, "last tuesday", `"last tuesday"`},
	}
	for _, tc := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(tc.in), &ts), tc.in)
		assert.True(t, tc.wantTime.Equal(ts.Time), tc.in)
		assert.Equal(t, tc.wantRaw, ts.Raw, tc.in)

		out, err := json.Marshal(ts)
		require.NoError(t, err)
		assert.Equal(t, tc.out, string(out), tc.in)
	}
}
