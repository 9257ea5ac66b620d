package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"news-rag-client/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupBackend 启动模拟的 RAG 服务，并通过 NEWSCHAT_* 环境变量让客户端指向它。
func setupBackend(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.GET("/chat/:id/history", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"messages": []gin.H{}}})
	})
	api.POST("/chat", func(c *gin.Context) {
		var req struct {
			Message string `json:"message"`
		}
		_ = c.ShouldBindJSON(&req)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"message": gin.H{
			"id": "r-" + req.Message, "role": "assistant", "content": "Echo: " + req.Message,
			"metadata": gin.H{"rag_used": true, "sources": []gin.H{
				{"title": "Rates hold", "source": "Reuters", "published_date": "2026-10-18T08:00:00Z", "relevance_score": 0.82},
			}},
		}}})
	})
	api.POST("/chat/:id/clear", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	api.GET("/articles", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"articles": []gin.H{
			{"id": "1", "title": "Rates hold", "category": "business", "source": "Reuters"},
			{"id": "2", "title": "Cup final", "category": "sports"},
		}}})
	})
	api.GET("/articles/search", func(c *gin.Context) {
		assert.Equal(t, "cup final", c.Query("q"))
		assert.Equal(t, "sports", c.Query("category"))
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"articles": []gin.H{
			{"id": "2", "title": "Cup final", "category": "sports"},
		}}})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	t.Setenv("NEWSCHAT_API_BASE_URL", srv.URL+"/api")
	t.Setenv("NEWSCHAT_STORAGE_BACKEND", "memory")
}

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestChatSession(t *testing.T) {
	setupBackend(t)

	input := strings.Join([]string{
		"What's new?",
		"/articles",
		"/select 2",
		"/clear",
		"/select 9",
		"/bogus",
		"/reset",
		"/quit",
	}, "\n")
	out := execute(t, input, "chat")

	assert.Contains(t, out, "Conversation ")
	assert.Contains(t, out, "Just now")
	assert.Contains(t, out, "Echo: What's new?")
	assert.Contains(t, out, "Sources (1):")
	assert.Contains(t, out, "[1] Rates hold (Reuters")
	assert.Contains(t, out, "82%")
	assert.Contains(t, out, "Categories: all, business, sports")
	assert.Contains(t, out, "You: Tell me about: Cup final")
	assert.Contains(t, out, "Echo: Tell me about: Cup final")
	assert.Contains(t, out, "Chat history cleared.")
	assert.Contains(t, out, "Pick a number between 1 and 2.")
	assert.Contains(t, out, "Unknown command /bogus")
	assert.Contains(t, out, "Local session data cleared.")
}

func TestChatSelectWithoutArticles(t *testing.T) {
	setupBackend(t)
	out := execute(t, "/select 1\n", "chat")
	assert.Contains(t, out, "List articles with /articles first.")
}

func TestArticlesCommand(t *testing.T) {
	setupBackend(t)
	out := execute(t, "", "articles", "--category", "sports")

	assert.Contains(t, out, "Categories: all, business, sports")
	assert.Contains(t, out, "Cup final")
	assert.NotContains(t, out, "Rates hold")
}

func TestSearchCommand(t *testing.T) {
	setupBackend(t)
	out := execute(t, "", "search", "cup", "final", "--category", "sports")
	assert.Contains(t, out, "1. Cup final")
}

func TestSearchRequiresQuery(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"search"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestRenderErrorMessage(t *testing.T) {
	var out bytes.Buffer
	renderMessage(&out, model.Message{
		Role:     model.RoleAssistant,
		Content:  "Sorry, I encountered an error: boom. Please try again.",
		Metadata: &model.MessageMetadata{Error: true},
	})
	assert.Contains(t, out.String(), "Assistant:")
	assert.Contains(t, out.String(), "boom")
}
