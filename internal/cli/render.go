package cli

import (
	"fmt"
	"io"
	"news-rag-client/internal/model"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))
)

func renderMessage(w io.Writer, m model.Message) {
	switch {
	case m.IsError():
		fmt.Fprintf(w, "%s %s\n", assistantStyle.Render("Assistant:"), errorStyle.Render(m.Content))
		return
	case m.Role == model.RoleUser:
		fmt.Fprintf(w, "%s %s\n", userStyle.Render("You:"), m.Content)
		return
	}

	fmt.Fprintf(w, "%s %s\n", assistantStyle.Render("Assistant:"), m.Content)
	if m.Metadata == nil || len(m.Metadata.Sources) == 0 {
		return
	}
	fmt.Fprintln(w, sourceStyle.Render(fmt.Sprintf("  Sources (%d):", len(m.Metadata.Sources))))
	for i, s := range m.Metadata.Sources {
		line := fmt.Sprintf("  [%d] %s", i+1, s.Title)
		var details []string
		if s.Source != "" {
			details = append(details, s.Source)
		}
		if s.PublishedDate != "" {
			details = append(details, model.FormatPublishedDate(s.PublishedDate))
		}
		if len(details) > 0 {
			line += " (" + strings.Join(details, ", ") + ")"
		}
		if s.RelevanceScore > 0 {
			line += fmt.Sprintf(" %.0f%%", s.RelevanceScore*100)
		}
		fmt.Fprintln(w, sourceStyle.Render(line))
	}
}

func renderMessages(w io.Writer, messages []model.Message) {
	for _, m := range messages {
		renderMessage(w, m)
	}
}

func renderNotice(w io.Writer, text string) {
	fmt.Fprintln(w, noticeStyle.Render(text))
}

func renderError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+err.Error()))
}

func renderArticles(w io.Writer, articles []model.Article) {
	if len(articles) == 0 {
		renderNotice(w, "No articles found.")
		return
	}
	for i, a := range articles {
		fmt.Fprintf(w, "%3d. %s\n", i+1, titleStyle.Render(a.Title))
		var details []string
		if a.Source != "" {
			details = append(details, a.Source)
		}
		if a.Category != "" {
			details = append(details, a.Category)
		}
		if a.PublishedDate != "" {
			details = append(details, model.FormatPublishedDate(a.PublishedDate))
		}
		if len(details) > 0 {
			fmt.Fprintln(w, sourceStyle.Render("     "+strings.Join(details, " · ")))
		}
	}
}
