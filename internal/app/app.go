// Package app 负责把配置、存储、远端客户端与会话控制器组装在一起。
package app

import (
	"context"
	"news-rag-client/internal/config"
	"news-rag-client/internal/repository"
	"news-rag-client/internal/service"
	"news-rag-client/pkg/events"
	"news-rag-client/pkg/kafka"
	"news-rag-client/pkg/log"
	"news-rag-client/pkg/ragapi"
	"news-rag-client/pkg/storage"
)

// App 持有一次运行所需的全部组件。
type App struct {
	Sessions   repository.SessionStore
	History    repository.HistoryCache
	API        ragapi.Client
	Articles   service.ArticleService
	Controller *service.ConversationController
	Events     events.Publisher
}

// New 按配置初始化所有组件，但不启动会话。
func New(ctx context.Context, cfg config.Config) (*App, error) {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	history := repository.NewHistoryCache(store)
	sessions := repository.NewSessionStore(store, history)
	api := ragapi.NewClient(cfg.API)
	publisher := kafka.NewPublisher(cfg.Kafka)

	controller := service.NewConversationController(sessions, history, api,
		service.WithEvents(publisher),
		service.WithHistoryLimit(cfg.API.HistoryLimit),
	)

	return &App{
		Sessions:   sessions,
		History:    history,
		API:        api,
		Articles:   service.NewArticleService(api),
		Controller: controller,
		Events:     publisher,
	}, nil
}

// Start 恢复或创建会话并加载历史。历史加载失败只记录日志。
func (a *App) Start(ctx context.Context) string {
	sessionID, err := a.Controller.Start(ctx)
	if err != nil {
		log.Warnf("会话 %s 的历史加载失败: %v", sessionID, err)
	}
	return sessionID
}

// Close 释放事件发布者等资源。
func (a *App) Close() {
	if err := a.Events.Close(); err != nil {
		log.Warnf("关闭事件发布者失败: %v", err)
	}
}
