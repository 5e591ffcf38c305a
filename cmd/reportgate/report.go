package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/sanitize"
)

type reportFlags struct {
	payloadPath string
	name        string
	dob         string
	gender      string
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate one report from a JSON payload file and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(f.payloadPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := buildApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = a.shutdown(shutdownCtx)
			}()

			report, err := a.orch.GenerateReport(ctx, payload, core.Identity{Name: f.name, DOB: f.dob, Gender: f.gender})
			if err != nil {
				return err
			}
			if report.Degraded {
				a.logger.Warn("report degraded to fallback summary", "attempts", report.Attempts)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sanitize.DisplayText(report.Text, 0))
			return err
		},
	}
	cmd.Flags().StringVar(&f.payloadPath, "payload", "-", "payload JSON file, - for stdin")
	cmd.Flags().StringVar(&f.name, "name", "", "client name")
	cmd.Flags().StringVar(&f.dob, "dob", "", "client date of birth")
	cmd.Flags().StringVar(&f.gender, "gender", "", "client gender")
	return cmd
}

func readPayload(path string, stdin io.Reader) (core.Payload, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return core.Payload{}, err
		}
		defer file.Close()
		r = file
	}
	var payload core.Payload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return core.Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}
