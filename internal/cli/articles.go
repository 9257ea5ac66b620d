package cli

import (
	"fmt"
	"news-rag-client/internal/model"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newArticlesCmd(opts *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List the latest articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			articles, err := opts.newArticleService()
			if err != nil {
				return err
			}
			catalog, err := articles.Browse(cmd.Context(), category)
			if err != nil {
				return fmt.Errorf("failed to fetch articles: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Categories: %s\n\n", strings.Join(catalog.Categories, ", "))
			renderArticles(out, catalog.Articles)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "all", "Only show articles in this category")
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		category string
		source   string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search articles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			articles, err := opts.newArticleService()
			if err != nil {
				return err
			}

			filters := model.ArticleFilters{}
			if category != "" {
				filters["category"] = category
			}
			if source != "" {
				filters["source"] = source
			}
			if limit > 0 {
				filters["limit"] = strconv.Itoa(limit)
			}

			found, err := articles.Search(cmd.Context(), strings.Join(args, " "), filters)
			if err != nil {
				return fmt.Errorf("failed to search articles: %w", err)
			}
			renderArticles(cmd.OutOrStdout(), found)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Restrict results to a category")
	cmd.Flags().StringVar(&source, "source", "", "Restrict results to a source")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	return cmd
}
