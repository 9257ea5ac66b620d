package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"news-rag-client/internal/app"
	"news-rag-client/internal/model"
	"news-rag-client/internal/service"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const chatHelp = `Commands:
  /new              start a new conversation
  /reset            forget the local session and cache, then start over
  /clear            clear this conversation's history
  /retry            reload history after a failure
  /articles [CAT]   list articles, optionally in a category
  /select N         start a conversation about article N
  /help             show this help
  /quit             exit
Anything else is sent as a message.`

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Resume or start a conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			r := &repl{app: a, out: cmd.OutOrStdout()}
			r.start(ctx)
			return r.run(ctx, cmd.InOrStdin())
		},
	}
}

// repl 按行读取输入并驱动会话控制器。
type repl struct {
	app      *app.App
	out      io.Writer
	articles []model.Article
}

func (r *repl) start(ctx context.Context) {
	sessionID := r.app.Start(ctx)
	r.printHeader(ctx, sessionID)
	snap := r.app.Controller.Snapshot()
	renderMessages(r.out, snap.Messages)
	r.printError(snap)
	renderNotice(r.out, "Type /help for commands.")
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if quit := r.handle(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

// handle 处理一行输入，返回用户是否要求退出。
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.send(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/new":
		sessionID, _ := r.app.Controller.NewSession(ctx)
		r.printHeader(ctx, sessionID)
		r.printError(r.app.Controller.Snapshot())
	case "/reset":
		r.app.Sessions.Reset(ctx)
		sessionID, _ := r.app.Controller.NewSession(ctx)
		renderNotice(r.out, "Local session data cleared.")
		r.printHeader(ctx, sessionID)
	case "/clear":
		if err := r.app.Controller.ClearHistory(ctx); err != nil {
			renderError(r.out, err)
			return false
		}
		renderNotice(r.out, "Chat history cleared.")
	case "/retry":
		err := r.app.Controller.Retry(ctx)
		snap := r.app.Controller.Snapshot()
		if err == nil {
			renderMessages(r.out, snap.Messages)
		}
		r.printError(snap)
	case "/articles":
		category := service.CategoryAll
		if len(fields) > 1 {
			category = fields[1]
		}
		r.listArticles(ctx, category)
	case "/select":
		r.selectArticle(ctx, fields[1:])
	default:
		renderNotice(r.out, "Unknown command "+fields[0]+". Type /help for commands.")
	}
	return false
}

func (r *repl) send(ctx context.Context, text string) {
	before := len(r.app.Controller.Snapshot().Messages)
	// 失败会作为错误消息出现在对话记录中
	_ = r.app.Controller.SendMessage(ctx, text)

	snap := r.app.Controller.Snapshot()
	if len(snap.Messages) <= before {
		renderNotice(r.out, "Message not sent, please wait for the current request to finish.")
		return
	}
	for _, m := range snap.Messages[before:] {
		if m.Role != model.RoleUser {
			renderMessage(r.out, m)
		}
	}
}

func (r *repl) listArticles(ctx context.Context, category string) {
	catalog, err := r.app.Articles.Browse(ctx, category)
	if err != nil {
		renderError(r.out, err)
		return
	}
	r.articles = catalog.Articles
	fmt.Fprintf(r.out, "Categories: %s\n", strings.Join(catalog.Categories, ", "))
	renderArticles(r.out, r.articles)
	if len(r.articles) > 0 {
		renderNotice(r.out, "Use /select N to chat about an article.")
	}
}

func (r *repl) selectArticle(ctx context.Context, args []string) {
	if len(r.articles) == 0 {
		renderNotice(r.out, "List articles with /articles first.")
		return
	}
	if len(args) != 1 {
		renderNotice(r.out, "Usage: /select N")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(r.articles) {
		renderNotice(r.out, fmt.Sprintf("Pick a number between 1 and %d.", len(r.articles)))
		return
	}

	article := r.articles[n-1]
	sessionID, _ := r.app.Controller.SelectArticle(ctx, article)
	r.printHeader(ctx, sessionID)
	snap := r.app.Controller.Snapshot()
	renderMessages(r.out, snap.Messages)
	r.printError(snap)
}

func (r *repl) printHeader(ctx context.Context, sessionID string) {
	var name string
	if session, ok := r.app.Sessions.CurrentSession(ctx); ok && session.ID == sessionID {
		name = r.app.Sessions.DisplayName(&session)
	} else {
		name = r.app.Sessions.DisplayName(nil)
	}
	fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("Conversation %s (%s)", shortID(sessionID), name)))
}

func (r *repl) printError(snap service.Snapshot) {
	if snap.Error != "" {
		renderNotice(r.out, snap.Error)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
