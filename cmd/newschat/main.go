// Package main 是 RAG 新闻对话服务的终端客户端入口。
package main

import "news-rag-client/internal/cli"

func main() {
	cli.Execute()
}
