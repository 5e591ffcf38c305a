package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shillcollin/reportgate/internal/version"
)

func newVersionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()
			switch output {
			case "json":
				s, err := info.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
			case "short":
				fmt.Fprintln(out, info.String())
			case "text", "":
				fmt.Fprintln(out, info.Text())
			default:
				return fmt.Errorf("unknown output format %q (text, json, short)", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json, short)")
	return cmd
}
