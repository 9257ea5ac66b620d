package handler

import (
	"news-rag-client/internal/model"
	"news-rag-client/internal/repository"
	"news-rag-client/internal/service"
	"news-rag-client/pkg/log"

	"github.com/gin-gonic/gin"
)

// SessionHandler 处理与会话相关的 API 请求。
type SessionHandler struct {
	sessions   repository.SessionStore
	controller *service.ConversationController
}

// NewSessionHandler 创建一个新的 SessionHandler。
func NewSessionHandler(sessions repository.SessionStore, controller *service.ConversationController) *SessionHandler {
	return &SessionHandler{sessions: sessions, controller: controller}
}

// sessionView 是返回给前端的会话信息。
type sessionView struct {
	SessionID    string           `json:"sessionId"`
	DisplayName  string           `json:"displayName"`
	Valid        bool             `json:"valid"`
	CreatedAt    *model.LocalTime `json:"createdAt,omitempty"`
	LastActivity *model.LocalTime `json:"lastActivity,omitempty"`
	State        service.State    `json:"state"`
	Error        string           `json:"error,omitempty"`
}

// GetSession 返回当前会话的信息。
func (h *SessionHandler) GetSession(c *gin.Context) {
	ok(c, h.view(c))
}

// NewSession 开始一个新的对话。
func (h *SessionHandler) NewSession(c *gin.Context) {
	sessionID, err := h.controller.NewSession(c.Request.Context())
	if err != nil {
		// 会话已经建立，历史加载失败体现在 error 字段中
		log.Warnf("新会话 %s 加载历史失败: %v", sessionID, err)
	}
	ok(c, h.view(c))
}

func (h *SessionHandler) view(c *gin.Context) sessionView {
	snap := h.controller.Snapshot()
	v := sessionView{SessionID: snap.SessionID, State: snap.State, Error: snap.Error}

	session, found := h.sessions.CurrentSession(c.Request.Context())
	if !found || session.ID != snap.SessionID {
		v.DisplayName = h.sessions.DisplayName(nil)
		return v
	}
	createdAt := model.LocalTime(session.CreatedAt)
	lastActivity := model.LocalTime(session.LastActivity)
	v.DisplayName = h.sessions.DisplayName(&session)
	v.Valid = h.sessions.IsValid(session)
	v.CreatedAt = &createdAt
	v.LastActivity = &lastActivity
	return v
}
