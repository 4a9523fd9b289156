package main

import (
	"github.com/spf13/cobra"

	geometa "github.com/tingold/orb-geometa"
	"github.com/tingold/orb-geometa/internal/engine"
	"github.com/tingold/orb-geometa/internal/logger"
)

func newRasterCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "raster <path>",
		Short: "Compute the footprint of a raster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w geometa.ExtentWriter
			if out != "" {
				var err error
				if w, err = engine.ExtentWriterFor(out); err != nil {
					return err
				}
			}
			res, err := a.extractor().ExtractRaster(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if w != nil {
				if err := geometa.WriteRasterExtent(w, out, res); err != nil {
					return err
				}
				logger.Info("extent written", "path", out)
			}
			return a.writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Also write the footprint polygon to a .shp or .fgb file")
	return cmd
}
