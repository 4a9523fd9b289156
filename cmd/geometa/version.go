package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tingold/orb-geometa/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "geometa %s\n", version.String())
			if err == nil && version.BuildDate != "" {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "built %s\n", version.BuildDate)
			}
			return err
		},
	}
}
