package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shillcollin/reportgate/gateway"
	"github.com/shillcollin/reportgate/httpapi"
	"github.com/shillcollin/reportgate/session"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, opts, os.Stderr)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := a.shutdown(shutdownCtx); err != nil {
					a.logger.Warn("observability shutdown", "error", err)
				}
			}()

			if a.cfg.Prompts.Watch && a.cfg.Prompts.Dir != "" {
				go func() {
					if err := a.prompts.Watch(ctx, a.logger); err != nil {
						a.logger.Error("prompt watcher stopped", "error", err)
					}
				}()
			}

			store := session.NewStore(session.WithTTL(a.cfg.Session.TTL))
			gw := gateway.New(a.orch, store,
				gateway.WithQuestionLimit(a.cfg.Session.MaxQuestions),
				gateway.WithLogger(a.logger),
			)
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			a.logger.Info("listening", "addr", addr, "llm_available", a.orch.Available())
			return httpapi.NewServer(gw, httpapi.WithLogger(a.logger)).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}
