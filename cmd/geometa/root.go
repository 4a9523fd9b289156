package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	geometa "github.com/tingold/orb-geometa"
	"github.com/tingold/orb-geometa/internal/config"
	"github.com/tingold/orb-geometa/internal/engine"
	"github.com/tingold/orb-geometa/internal/logger"
	"github.com/tingold/orb-geometa/internal/version"
)

// app carries state shared by the subcommands.
type app struct {
	cfg       config.Config
	logLevel  string
	logFormat string
	pretty    bool
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.FromEnv()}

	root := &cobra.Command{
		Use:          "geometa",
		Short:        "Extract metadata and extents from geospatial sources",
		Long:         "geometa reads vector layers, PostGIS tables and rasters and reports their feature count, fields, CRS and EPSG:4326 extent as JSON.",
		Version:      version.String(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("log-level") {
				a.cfg.LogLevel = a.logLevel
			}
			if cmd.Flags().Changed("log-format") {
				a.cfg.LogFormat = a.logFormat
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			logger.Init(logger.Config{Level: a.cfg.LogLevel, Format: a.cfg.LogFormat, Out: cmd.ErrOrStderr()})
			return nil
		},
	}

	cobra.MousetrapHelpText = ""
	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", a.cfg.LogLevel, "Set log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", a.cfg.LogFormat, "Set log format (text, json)")
	pf.BoolVar(&a.pretty, "pretty", false, "Indent JSON output")

	root.AddCommand(
		newVectorCmd(a),
		newPGCmd(a),
		newRasterCmd(a),
		newWKTCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) engine() *engine.Engine {
	if a.cfg.GDAL && !engine.GDALAvailable {
		logger.Debug("gdal requested but not compiled in; using pure-Go engines only")
	}
	return engine.New(a.cfg.GDAL)
}

func (a *app) extractor() *geometa.Extractor {
	x := a.engine().Extractor()
	x.Logger = logger.Log()
	return x
}

func (a *app) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if a.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
