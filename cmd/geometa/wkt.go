package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	geometa "github.com/tingold/orb-geometa"
)

func newWKTCmd(a *app) *cobra.Command {
	var text bool

	cmd := &cobra.Command{
		Use:   "wkt [file|-]",
		Short: "Pretty-print a WKT CRS definition",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read wkt: %w", err)
			}

			lines, err := geometa.PrettyWKT(geometa.FlattenWKT(string(data)))
			if err != nil {
				return err
			}
			if text {
				for _, l := range lines {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), l); err != nil {
						return err
					}
				}
				return nil
			}
			if lines == nil {
				lines = []string{}
			}
			return a.writeJSON(cmd.OutOrStdout(), map[string][]string{"lines": lines})
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "Print plain lines instead of JSON")
	return cmd
}
