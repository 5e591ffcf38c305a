// Command reportgate serves LLM-written analysis reports over HTTP and
// offers a few operator subcommands around the same configuration.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/shillcollin/reportgate/providers/anthropic"
	_ "github.com/shillcollin/reportgate/providers/gemini"
	_ "github.com/shillcollin/reportgate/providers/groq"
	_ "github.com/shillcollin/reportgate/providers/openai"
	_ "github.com/shillcollin/reportgate/providers/perplexity"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "reportgate",
		Short:         "LLM report gateway",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadDotEnv(opts.envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(
		newServeCmd(opts),
		newReportCmd(opts),
		newProvidersCmd(),
		newVersionCmd(),
	)
	return cmd
}

// loadDotEnv fills unset variables from path. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
