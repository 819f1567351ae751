package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/craftista/concierge/internal/config"
	"github.com/craftista/concierge/internal/domain"
)

func newChatCmd() *cobra.Command {
	var (
		sessionID   string
		integration string
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Run one chat turn through the full pipeline and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			// One-shot turns keep everything in memory unless the caller
			// supplies a session id to continue.
			if sessionID == "" {
				sessionID = uuid.New().String()
			} else {
				if err := paths.EnsureDirs(); err != nil {
					return fmt.Errorf("creating data directories: %w", err)
				}
			}

			p, err := buildPipeline(cfg, paths.Database, log)
			if err != nil {
				return err
			}
			defer p.close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res := p.router.Handle(ctx, domain.ChatRequest{
				Message:         message,
				SessionID:       sessionID,
				IntegrationType: integration,
			})

			fmt.Println(res.Response.Reply)
			if res.Response.Intent != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "intent: %s  session: %s\n", res.Response.Intent, sessionID)
			}
			if res.Err != nil {
				return res.Err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "continue an existing session by id")
	cmd.Flags().StringVar(&integration, "integration", "", "integration context (github, gitlab, youtube, figma, behance)")

	return cmd
}
