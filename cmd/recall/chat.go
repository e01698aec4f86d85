package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/service/contextmgr"
	"github.com/sandevgo/recall/pkg/log"
	"github.com/spf13/cobra"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive demo session",
	Long: `Reads lines from the terminal, stores each as a user message, and shows
which part of the accumulated history GetContext would hand to a model.
Commands: /pin <id>, /unpin <id>, /clear, /quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		manager, cfg, db := newManager(ctx)
		defer db.Close()

		session := chatSession
		if session == "" {
			session = uuid.NewString()
		}

		rl, err := readline.New("recall> ")
		if err != nil {
			return err
		}
		defer rl.Close()

		fmt.Printf("session %s, token limit %d\n", session, cfg.TokenLimit)

		for {
			line, err := rl.Readline()
			if err != nil { // io.EOF or interrupt
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, "/") {
				if done := runChatCommand(ctx, manager, session, line); done {
					return nil
				}
				continue
			}

			id, err := manager.Add(ctx, session, core.RoleUser, line, contextmgr.AddOptions{})
			if err != nil {
				log.FromCtx(ctx).Error().Err(err).Msg("add failed")
				continue
			}
			fmt.Printf("stored %s\n", id)

			result, err := manager.GetContext(ctx, session, core.ContextOptions{
				MaxTokens:           cfg.TokenLimit,
				CurrentQuery:        line,
				ImportanceThreshold: cfg.ImportanceThreshold,
			})
			if err != nil {
				log.FromCtx(ctx).Error().Err(err).Msg("get context failed")
				continue
			}

			fmt.Printf("context: %d messages, %d tokens, summarized=%v, pinned=%d\n",
				result.MessageCount, result.TokenCount, result.WasSummarized, result.PinnedCount)
			for _, msg := range result.Messages {
				fmt.Printf("  [%s] %s %s\n", msg.ID, msg.Role, truncate(msg.Content, 70))
			}
		}
	},
}

func runChatCommand(ctx context.Context, manager *contextmgr.Manager, session, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/clear":
		if err := manager.Clear(ctx, session); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("clear failed")
		} else {
			fmt.Println("session cleared")
		}
	case "/pin", "/unpin":
		if len(fields) < 2 {
			fmt.Printf("usage: %s <message-id>\n", fields[0])
			return false
		}
		var err error
		if fields[0] == "/pin" {
			err = manager.Pin(ctx, session, fields[1])
		} else {
			err = manager.Unpin(ctx, session, fields[1])
		}
		if err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("pin failed")
		}
	default:
		fmt.Println("commands: /pin <id>, /unpin <id>, /clear, /quit")
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session id (random when empty)")
	rootCmd.AddCommand(chatCmd)
}
