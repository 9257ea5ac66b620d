package handler

import (
	"net/http"
	"news-rag-client/internal/model"
	"news-rag-client/internal/service"
	"news-rag-client/pkg/log"
	"strings"

	"github.com/gin-gonic/gin"
)

// ArticleHandler 处理文章浏览、搜索与选择。
type ArticleHandler struct {
	articles   service.ArticleService
	controller *service.ConversationController
}

// NewArticleHandler 创建一个新的 ArticleHandler。
func NewArticleHandler(articles service.ArticleService, controller *service.ConversationController) *ArticleHandler {
	return &ArticleHandler{articles: articles, controller: controller}
}

// ListArticles 返回按 category 过滤后的文章。
func (h *ArticleHandler) ListArticles(c *gin.Context) {
	catalog, err := h.articles.Browse(c.Request.Context(), c.Query("category"))
	if err != nil {
		log.Errorf("获取文章列表失败: %v", err)
		respond(c, statusFor(err), err.Error(), nil)
		return
	}
	ok(c, catalog)
}

// ListCategories 返回所有文章分类，"all" 总在第一个。
func (h *ArticleHandler) ListCategories(c *gin.Context) {
	catalog, err := h.articles.Browse(c.Request.Context(), service.CategoryAll)
	if err != nil {
		respond(c, statusFor(err), err.Error(), nil)
		return
	}
	ok(c, catalog.Categories)
}

// Search 按关键词搜索文章，除 q 之外的查询参数作为过滤条件透传。
func (h *ArticleHandler) Search(c *gin.Context) {
	filters := model.ArticleFilters{}
	for key, values := range c.Request.URL.Query() {
		if key == "q" || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}

	articles, err := h.articles.Search(c.Request.Context(), c.Query("q"), filters)
	if err != nil {
		respond(c, statusFor(err), err.Error(), nil)
		return
	}
	ok(c, articles)
}

// SelectArticle 为文章开启新会话并自动提问。
func (h *ArticleHandler) SelectArticle(c *gin.Context) {
	var article model.Article
	if err := c.ShouldBindJSON(&article); err != nil || strings.TrimSpace(article.Title) == "" {
		respond(c, http.StatusBadRequest, "文章标题不能为空", nil)
		return
	}
	if _, err := h.controller.SelectArticle(c.Request.Context(), article); err != nil {
		respond(c, statusFor(err), err.Error(), h.controller.Snapshot())
		return
	}
	ok(c, h.controller.Snapshot())
}
