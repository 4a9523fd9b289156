package main

import (
	"github.com/spf13/cobra"

	geometa "github.com/tingold/orb-geometa"
)

func newVectorCmd(a *app) *cobra.Command {
	var kind string
	var features bool

	cmd := &cobra.Command{
		Use:   "vector <path>",
		Short: "Describe a vector file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := geometa.Source{Path: args[0]}
			x := a.extractor()
			if features {
				feats, err := x.Features(cmd.Context(), src)
				if err != nil {
					return err
				}
				return a.writeJSON(cmd.OutOrStdout(), feats)
			}
			return a.extractVector(cmd, x, src, kind)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "auto", "Source kind (auto, standard, index)")
	cmd.Flags().BoolVar(&features, "features", false, "List features instead of the metadata record")
	return cmd
}

func newPGCmd(a *app) *cobra.Command {
	var kind string
	conn := a.cfg.PG

	cmd := &cobra.Command{
		Use:   "pg",
		Short: "Describe a PostGIS table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := conn
			return a.extractVector(cmd, a.extractor(), geometa.Source{Conn: &c}, kind)
		},
	}
	f := cmd.Flags()
	f.StringVar(&conn.Host, "host", conn.Host, "Database host")
	f.IntVar(&conn.Port, "port", conn.Port, "Database port")
	f.StringVar(&conn.Database, "db", conn.Database, "Database name")
	f.StringVar(&conn.User, "user", conn.User, "Database user")
	f.StringVar(&conn.Password, "password", conn.Password, "Database password")
	f.StringVar(&conn.Table, "table", "", "Table name, optionally schema-qualified")
	f.StringVar(&kind, "kind", "auto", "Source kind (auto, standard, index)")
	return cmd
}

func (a *app) extractVector(cmd *cobra.Command, x *geometa.Extractor, src geometa.Source, kind string) error {
	sel, err := geometa.ParseKindSelector(kind)
	if err != nil {
		return err
	}
	rec, err := x.ExtractVector(cmd.Context(), src, sel)
	if err != nil {
		return err
	}
	return a.writeJSON(cmd.OutOrStdout(), rec)
}
