package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/conversation"
	"github.com/elevated-ai-works/assistant/internal/model"
	"github.com/elevated-ai-works/assistant/internal/relay"
	"github.com/elevated-ai-works/assistant/internal/store"
	"github.com/elevated-ai-works/assistant/internal/widget"
)

var (
	chatSession string
	chatServer  string
	chatPageURL string
	chatRelay   bool
	chatOffline bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant from the terminal",
	Long: `Runs the chat widget against a running proxy. History is kept per session
in a local SQLite file, so the same --session resumes the conversation.
Type /clear to start over and /quit to exit.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if chatServer != "" {
			cfg.Chat.ServerURL = chatServer
		}
		if chatPageURL != "" {
			cfg.Chat.PageURL = chatPageURL
		}
		if err := cfg.Validate("chat"); err != nil {
			return err
		}

		db, err := store.NewSQLite(cfg.Chat.SessionDB)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck
		if err := db.Migrate(ctx); err != nil {
			return err
		}

		id := chatSession
		if id == "" {
			id = uuid.NewString()
		}
		history := conversation.NewStore(db.Session(id))

		opts := []widget.SessionOption{
			widget.WithGuard(guardFromConfig(cfg.Guard)),
			widget.WithPageURL(cfg.Chat.PageURL),
		}
		if chatRelay {
			rl, err := relay.New(cfg)
			if err != nil {
				return err
			}
			opts = append(opts, widget.WithRelay(rl))
		}

		var remote widget.Assistant
		if !chatOffline {
			remote = widget.NewRemoteAssistant(cfg.Chat.ServerURL,
				widget.WithAskTimeout(time.Duration(cfg.Chat.TimeoutSecs)*time.Second))
		}

		session := widget.NewSession(ctx, history, remote, opts...)
		zap.L().Debug("chat: session ready", zap.String("session", id))
		fmt.Fprintf(os.Stderr, "Session %s. Type /clear to start over, /quit to exit.\n", id)
		return runChat(ctx, session, os.Stdin, os.Stdout)
	},
}

// runChat is the read-eval-print loop over one session.
func runChat(ctx context.Context, s *widget.Session, in io.Reader, out io.Writer) error {
	for _, m := range s.Messages() {
		printMessage(out, m)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			if err := s.Clear(ctx); err != nil {
				return err
			}
			for _, m := range s.Messages() {
				printMessage(out, m)
			}
			continue
		}

		added, err := s.Send(ctx, line)
		for _, m := range added {
			if m.Role == model.RoleAssistant {
				printMessage(out, m)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, widget.ErrEmptyInput) || errors.Is(err, widget.ErrBusy) {
				continue
			}
			fmt.Fprintf(out, "! %s\n", widget.ErrorText(err))
		}
	}
}

func printMessage(w io.Writer, m model.Message) {
	if m.Role == model.RoleUser {
		fmt.Fprintf(w, "you: %s\n", m.Content)
		return
	}
	fmt.Fprintf(w, "assistant: %s\n", m.Content)
	for _, b := range m.Bullets {
		fmt.Fprintf(w, "  - %s\n", b)
	}
	if m.CTA != nil {
		fmt.Fprintf(w, "  [%s: %s]\n", m.CTA.Label, m.CTA.To)
	}
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "session ID to resume (default: new session)")
	chatCmd.Flags().StringVar(&chatServer, "server", "", "proxy base URL (default from config)")
	chatCmd.Flags().StringVar(&chatPageURL, "page-url", "", "page URL reported with each turn")
	chatCmd.Flags().BoolVar(&chatRelay, "relay", false, "relay LEAD_CAPTURE leads from this client")
	chatCmd.Flags().BoolVar(&chatOffline, "offline", false, "answer only locally, without the proxy")
	rootCmd.AddCommand(chatCmd)
}
