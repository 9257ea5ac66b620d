package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"news-rag-client/internal/service"
	"news-rag-client/pkg/log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// ChatHandler 处理对话记录的读取、发送与清空，以及 WebSocket 推送。
type ChatHandler struct {
	controller *service.ConversationController
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(controller *service.ConversationController) *ChatHandler {
	return &ChatHandler{controller: controller}
}

type sendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// GetTranscript 返回当前对话状态的快照。
func (h *ChatHandler) GetTranscript(c *gin.Context) {
	ok(c, h.controller.Snapshot())
}

// SendMessage 发送一条用户消息并等待助手回复。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "message 不能为空", nil)
		return
	}
	if err := h.controller.SendMessage(c.Request.Context(), req.Message); err != nil {
		respond(c, statusFor(err), err.Error(), h.controller.Snapshot())
		return
	}
	ok(c, h.controller.Snapshot())
}

// ClearHistory 清空当前会话的对话记录。
func (h *ChatHandler) ClearHistory(c *gin.Context) {
	if err := h.controller.ClearHistory(c.Request.Context()); err != nil {
		respond(c, statusFor(err), err.Error(), h.controller.Snapshot())
		return
	}
	ok(c, h.controller.Snapshot())
}

// Retry 清除错误提示并重新加载历史。
func (h *ChatHandler) Retry(c *gin.Context) {
	if err := h.controller.Retry(c.Request.Context()); err != nil {
		respond(c, statusFor(err), err.Error(), h.controller.Snapshot())
		return
	}
	ok(c, h.controller.Snapshot())
}

// streamCommand 是客户端通过 WebSocket 发来的指令。
type streamCommand struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Stream 建立 WebSocket 连接，每次状态变化时推送一份快照。
// 客户端可以发送 {"type":"message","content":"..."}、{"type":"clear"}、
// {"type":"retry"} 或 {"type":"new"}。
func (h *ChatHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, unsubscribe := h.controller.Subscribe()
	defer unsubscribe()

	log.Infof("WebSocket 连接已建立: %s", c.ClientIP())

	go func() {
		defer cancel()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Debugf("WebSocket 读取结束: %v", err)
				return
			}
			var cmd streamCommand
			if err := json.Unmarshal(message, &cmd); err != nil {
				log.Warnf("无法解析 WebSocket 指令: %s", string(message))
				continue
			}
			// 指令的结果通过快照推送，这里不等待
			go h.dispatch(ctx, cmd)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-snapshots:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(gin.H{"type": "snapshot", "data": snap}); err != nil {
				log.Warnf("向 WebSocket 写入快照失败: %v", err)
				return
			}
		}
	}
}

func (h *ChatHandler) dispatch(ctx context.Context, cmd streamCommand) {
	var err error
	switch cmd.Type {
	case "message":
		err = h.controller.SendMessage(ctx, cmd.Content)
	case "clear":
		err = h.controller.ClearHistory(ctx)
	case "retry":
		err = h.controller.Retry(ctx)
	case "new":
		_, err = h.controller.NewSession(ctx)
	default:
		log.Warnf("未知的 WebSocket 指令类型: %s", cmd.Type)
		return
	}
	if err != nil {
		log.Warnf("处理 WebSocket 指令 %s 失败: %v", cmd.Type, err)
	}
}
