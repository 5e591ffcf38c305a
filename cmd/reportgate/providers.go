package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/shillcollin/reportgate"
	"github.com/shillcollin/reportgate/core"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List registered backends and their resolved defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := uitable.New()
			table.MaxColWidth = 48
			table.AddRow("KIND", "VARIANT", "MODEL", "TEMPERATURE", "CREDENTIALS")
			for _, kind := range reportgate.RegisteredProviders() {
				cfg, err := reportgate.Resolve(kind, core.Overrides{}, os.Getenv)
				if err != nil {
					return err
				}
				temp := "-"
				if cfg.Temperature != nil {
					temp = fmt.Sprintf("%.2f", *cfg.Temperature)
				}
				creds := "missing"
				if strings.TrimSpace(cfg.APIKey) != "" {
					creds = "set"
				}
				table.AddRow(kind, kind.Variant(), cfg.Model, temp, creds)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), table)
			return err
		},
	}
}
