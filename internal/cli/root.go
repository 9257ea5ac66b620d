// Package cli 实现了 newschat 终端客户端。
package cli

import (
	"context"
	"fmt"
	"news-rag-client/internal/app"
	"news-rag-client/internal/config"
	"news-rag-client/internal/service"
	"news-rag-client/pkg/log"
	"news-rag-client/pkg/ragapi"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCmd 构建命令树，每次调用返回相互独立的 flag 状态。
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "newschat",
		Short: "Chat with the RAG news service from your terminal",
		Long: `newschat keeps a persistent conversation with the RAG news backend.

Quick Start:
  newschat chat                  # Resume or start a conversation
  newschat articles              # Browse the latest articles
  newschat search "interest rates"`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config.yaml (defaults and NEWSCHAT_* env vars apply)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newChatCmd(opts), newArticlesCmd(opts), newSearchCmd(opts))
	return root
}

// Execute 执行根命令，失败时以非零状态退出。
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig 读取配置并初始化日志。日志写到 stderr，未指定 --verbose 时级别为 warn。
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	log.Init(level, cfg.Log.Format, cfg.Log.OutputPath)
	return cfg, nil
}

func (o *rootOptions) newApp(ctx context.Context) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

func (o *rootOptions) newArticleService() (service.ArticleService, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return service.NewArticleService(ragapi.NewClient(cfg.API)), nil
}
