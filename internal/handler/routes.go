package handler

import (
	"news-rag-client/internal/repository"
	"news-rag-client/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 在 /api/v1 下注册所有路由。
func RegisterRoutes(r *gin.Engine, sessions repository.SessionStore, controller *service.ConversationController, articles service.ArticleService) {
	sessionHandler := NewSessionHandler(sessions, controller)
	chatHandler := NewChatHandler(controller)
	articleHandler := NewArticleHandler(articles, controller)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/session", sessionHandler.GetSession)
		apiV1.POST("/session", sessionHandler.NewSession)

		articleGroup := apiV1.Group("/articles")
		{
			articleGroup.GET("", articleHandler.ListArticles)
			articleGroup.GET("/categories", articleHandler.ListCategories)
			articleGroup.GET("/search", articleHandler.Search)
			articleGroup.POST("/select", articleHandler.SelectArticle)
		}

		chatGroup := apiV1.Group("/chat")
		{
			chatGroup.GET("/transcript", chatHandler.GetTranscript)
			chatGroup.POST("/messages", chatHandler.SendMessage)
			chatGroup.POST("/clear", chatHandler.ClearHistory)
			chatGroup.POST("/retry", chatHandler.Retry)
			chatGroup.GET("/stream", chatHandler.Stream)
		}
	}
}
