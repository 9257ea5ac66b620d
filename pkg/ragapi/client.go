// Package ragapi 提供远端 RAG 新闻对话服务的客户端。
package ragapi

import (
	"context"
	"encoding/json"
	"net/http"
	"news-rag-client/internal/config"
	"news-rag-client/internal/model"
	"news-rag-client/pkg/log"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout 是每次远端调用的超时上限。
const DefaultTimeout = 30 * time.Second

// Client 定义了远端对话与文章服务的接口。
// 调用不会重试，失败以 *TransportError 或 *ServerError 返回。
type Client interface {
	SendMessage(ctx context.Context, sessionID, message string, options map[string]any) (*model.ChatReply, error)
	GetHistory(ctx context.Context, sessionID string, limit, offset int) ([]model.Message, error)
	ClearHistory(ctx context.Context, sessionID string) error
	DeleteSession(ctx context.Context, sessionID string) error

	GetArticles(ctx context.Context) (*model.ArticleList, error)
	GetArticleStats(ctx context.Context) (json.RawMessage, error)
	SearchArticles(ctx context.Context, query string, filters model.ArticleFilters) (*model.ArticleList, error)

	SearchDocuments(ctx context.Context, query string, options map[string]any) (json.RawMessage, error)
	GetSearchStats(ctx context.Context) (json.RawMessage, error)
	GetHealthStatus(ctx context.Context) (json.RawMessage, error)
	IsAvailable(ctx context.Context) bool
}

type restClient struct {
	client *resty.Client
}

// NewClient 为配置的 BaseURL 创建客户端。
func NewClient(cfg config.APIConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		log.Debugf("API Request: %s %s", r.Method, r.URL)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
		log.Debugf("API Response: %d %s", r.StatusCode(), r.Request.URL)
		return nil
	})

	return &restClient{client: client}
}

// envelope 是所有接口统一使用的 {success, message, error, data} 外层结构。
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   *apiErrorBody   `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type apiErrorBody struct {
	Message string `json:"message"`
}

type sendRequest struct {
	SessionID string         `json:"sessionId"`
	Message   string         `json:"message"`
	Options   map[string]any `json:"options"`
}

type searchRequest struct {
	Query   string         `json:"query"`
	Options map[string]any `json:"options"`
}

type historyData struct {
	Messages []model.Message `json:"messages"`
}

func (c *restClient) SendMessage(ctx context.Context, sessionID, message string, options map[string]any) (*model.ChatReply, error) {
	const op = "Failed to send message"
	if options == nil {
		options = map[string]any{}
	}
	req := c.client.R().SetContext(ctx).SetBody(sendRequest{SessionID: sessionID, Message: message, Options: options})

	var reply model.ChatReply
	if err := c.do(op, req, http.MethodPost, "/chat", &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *restClient) GetHistory(ctx context.Context, sessionID string, limit, offset int) ([]model.Message, error) {
	req := c.client.R().
		SetContext(ctx).
		SetPathParam("sessionId", sessionID).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetQueryParam("offset", strconv.Itoa(offset))

	var data historyData
	if err := c.do("Failed to fetch chat history", req, http.MethodGet, "/chat/{sessionId}/history", &data); err != nil {
		return nil, err
	}
	if data.Messages == nil {
		return []model.Message{}, nil
	}
	return data.Messages, nil
}

func (c *restClient) ClearHistory(ctx context.Context, sessionID string) error {
	req := c.client.R().SetContext(ctx).SetPathParam("sessionId", sessionID)
	return c.do("Failed to clear chat history", req, http.MethodPost, "/chat/{sessionId}/clear", nil)
}

func (c *restClient) DeleteSession(ctx context.Context, sessionID string) error {
	req := c.client.R().SetContext(ctx).SetPathParam("sessionId", sessionID)
	return c.do("Failed to delete session", req, http.MethodDelete, "/chat/{sessionId}", nil)
}

func (c *restClient) GetArticles(ctx context.Context) (*model.ArticleList, error) {
	var list model.ArticleList
	if err := c.do("Failed to fetch articles", c.client.R().SetContext(ctx), http.MethodGet, "/articles", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *restClient) GetArticleStats(ctx context.Context) (json.RawMessage, error) {
	var stats json.RawMessage
	err := c.do("Failed to fetch article statistics", c.client.R().SetContext(ctx), http.MethodGet, "/articles/stats", &stats)
	return stats, err
}

func (c *restClient) SearchArticles(ctx context.Context, query string, filters model.ArticleFilters) (*model.ArticleList, error) {
	params := map[string]string{}
	for k, v := range filters {
		params[k] = v
	}
	params["q"] = query
	req := c.client.R().SetContext(ctx).SetQueryParams(params)

	var list model.ArticleList
	if err := c.do("Failed to search articles", req, http.MethodGet, "/articles/search", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *restClient) SearchDocuments(ctx context.Context, query string, options map[string]any) (json.RawMessage, error) {
	if options == nil {
		options = map[string]any{}
	}
	req := c.client.R().SetContext(ctx).SetBody(searchRequest{Query: query, Options: options})

	var result json.RawMessage
	err := c.do("Failed to search documents", req, http.MethodPost, "/search", &result)
	return result, err
}

func (c *restClient) GetSearchStats(ctx context.Context) (json.RawMessage, error) {
	var stats json.RawMessage
	err := c.do("Failed to get search statistics", c.client.R().SetContext(ctx), http.MethodGet, "/search/stats", &stats)
	return stats, err
}

func (c *restClient) GetHealthStatus(ctx context.Context) (json.RawMessage, error) {
	var status json.RawMessage
	err := c.do("Failed to check service health", c.client.R().SetContext(ctx), http.MethodGet, "/health/services", &status)
	return status, err
}

func (c *restClient) IsAvailable(ctx context.Context) bool {
	_, err := c.GetHealthStatus(ctx)
	return err == nil
}

// do 执行请求并把 envelope 的 data 字段解码到 out。
// out 为 nil 时丢弃响应数据。
func (c *restClient) do(op string, req *resty.Request, method, url string, out any) error {
	res, err := req.Execute(method, url)
	if err != nil {
		log.Errorf("API request failed: %s %s: %v", method, url, err)
		return &TransportError{Op: op, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(res.Body(), &env)

	if !res.IsSuccess() {
		se := &ServerError{Op: op, StatusCode: res.StatusCode(), Message: serverMessage(env, decodeErr, res.StatusCode())}
		log.Errorf("API Response Error: %d %s: %s", res.StatusCode(), url, se.Message)
		return se
	}
	if decodeErr != nil {
		return &ServerError{Op: op, StatusCode: res.StatusCode(), Message: "invalid response body"}
	}
	if env.Success != nil && !*env.Success {
		return &ServerError{Op: op, StatusCode: res.StatusCode(), Message: serverMessage(env, nil, res.StatusCode())}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &ServerError{Op: op, StatusCode: res.StatusCode(), Message: "invalid response data: " + err.Error()}
	}
	return nil
}

// serverMessage 依次取 error.message、message 和 HTTP 状态文本。
func serverMessage(env envelope, decodeErr error, status int) string {
	if decodeErr == nil {
		if env.Error != nil && env.Error.Message != "" {
			return env.Error.Message
		}
		if env.Message != "" {
			return env.Message
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "request failed with status " + strconv.Itoa(status)
}
