package service

import (
	"context"
	"news-rag-client/internal/model"
	"news-rag-client/pkg/ragapi"
	"strings"
)

// CategoryAll 表示不按分类过滤。
const CategoryAll = "all"

// ArticleCatalog 是一次文章浏览的结果。
type ArticleCatalog struct {
	Category   string          `json:"category"`
	Categories []string        `json:"categories"`
	Articles   []model.Article `json:"articles"`
}

// ArticleService 定义了文章浏览与搜索的接口。
type ArticleService interface {
	Browse(ctx context.Context, category string) (*ArticleCatalog, error)
	Search(ctx context.Context, query string, filters model.ArticleFilters) ([]model.Article, error)
}

type articleService struct {
	api ragapi.Client
}

// NewArticleService 创建一个新的 ArticleService 实例。
func NewArticleService(api ragapi.Client) ArticleService {
	return &articleService{api: api}
}

// Browse 获取全部文章，返回分类列表以及按 category 过滤后的文章。
func (s *articleService) Browse(ctx context.Context, category string) (*ArticleCatalog, error) {
	list, err := s.api.GetArticles(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		category = CategoryAll
	}
	articles := list.Articles
	if articles == nil {
		articles = []model.Article{}
	}
	return &ArticleCatalog{
		Category:   category,
		Categories: Categories(articles),
		Articles:   FilterByCategory(articles, category),
	}, nil
}

func (s *articleService) Search(ctx context.Context, query string, filters model.ArticleFilters) ([]model.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		catalog, err := s.Browse(ctx, filters["category"])
		if err != nil {
			return nil, err
		}
		return catalog.Articles, nil
	}
	list, err := s.api.SearchArticles(ctx, query, filters)
	if err != nil {
		return nil, err
	}
	if list.Articles == nil {
		return []model.Article{}, nil
	}
	return list.Articles, nil
}

// Categories 返回按出现顺序去重的分类，第一个总是 "all"。
func Categories(articles []model.Article) []string {
	seen := map[string]bool{CategoryAll: true}
	out := []string{CategoryAll}
	for _, a := range articles {
		if a.Category == "" || seen[a.Category] {
			continue
		}
		seen[a.Category] = true
		out = append(out, a.Category)
	}
	return out
}

// FilterByCategory 按分类过滤文章，忽略大小写；"all" 返回全部。
func FilterByCategory(articles []model.Article, category string) []model.Article {
	if category == "" || category == CategoryAll {
		return articles
	}
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if a.Category != "" && strings.EqualFold(a.Category, category) {
			out = append(out, a)
		}
	}
	return out
}
