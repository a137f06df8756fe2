package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ChitterSync/SynisterChat/internal/ai"
	"github.com/ChitterSync/SynisterChat/internal/api"
	"github.com/ChitterSync/SynisterChat/internal/api/middleware"
	"github.com/ChitterSync/SynisterChat/internal/auth"
	"github.com/ChitterSync/SynisterChat/internal/chat"
	"github.com/ChitterSync/SynisterChat/memory"
	"github.com/ChitterSync/SynisterChat/vectorstore/qdrant"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			client, err := ai.New(a.cfg.AI)
			if err != nil {
				return err
			}

			svc, cleanup, err := newChatService(ctx, a, client)
			if err != nil {
				return err
			}
			defer cleanup()
			defer svc.Wait()

			server := api.NewApp(api.Config{
				Handlers: api.NewHandlers(svc, client),
				Auth: middleware.AuthConfig{
					Verifier:      auth.NewVerifier(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer, a.cfg.Auth.OwnerClaim),
					Accounts:      a.backend,
					AutoProvision: a.cfg.Auth.AutoProvision,
					CookieName:    a.cfg.Auth.CookieName,
				},
				CORSOrigins: a.cfg.Server.CORSOrigins,
				Log:         a.log,
			})

			if a.keys != nil {
				go a.keys.Start(ctx)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errCh := make(chan error, 1)
			go func() {
				a.log.WithField("addr", a.cfg.Server.Addr()).
					WithField("store", a.cfg.Store.Type).
					Info("server listening")
				errCh <- server.Listen(a.cfg.Server.Addr())
			}()

			select {
			case err := <-errCh:
				return err
			case <-sigChan:
			case <-ctx.Done():
			}

			a.log.Info("shutting down")
			return server.ShutdownWithTimeout(shutdownTimeout)
		},
	}
}

// newChatService builds the chat service. The returned cleanup closes the
// memory index when recall is enabled.
func newChatService(ctx context.Context, a *app, client *ai.Client) (*chat.Service, func(), error) {
	cleanup := func() {}
	opts := []chat.Option{
		chat.WithTitler(client),
		chat.WithTokenLimit(a.cfg.AI.TokenLimit),
		chat.WithTitleTimeout(a.cfg.AI.TitleTimeout),
		chat.WithLogger(a.log),
	}

	if a.cfg.Recall.Enabled {
		vs, err := qdrant.New(qdrant.Config{
			URL:            a.cfg.Recall.QdrantURL,
			CollectionName: a.cfg.Recall.Collection,
			APIKey:         a.cfg.Recall.APIKey,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := vs.EnsureCollection(ctx, int(a.cfg.Recall.Dimension)); err != nil {
			_ = vs.Close()
			return nil, nil, fmt.Errorf("prepare memory index: %w", err)
		}
		cleanup = func() { _ = vs.Close() }
		opts = append(opts, chat.WithRecall(memory.NewRecall(vs, client), a.cfg.Recall.TopK))
	}

	return chat.NewService(a.store, client, opts...), cleanup, nil
}
