package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/config"
	"github.com/tbxark/ticketagent/types"
)

func newCatalogCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the ticket catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cat *catalog.Catalog
				err error
			)
			switch {
			case path != "":
				cat, err = catalog.Load(path)
			case configPath != "":
				var cfg *config.Config
				if cfg, err = config.LoadFile(configPath); err == nil {
					cat, err = loadCatalog(cfg)
				}
			default:
				cat, err = catalog.Default()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog %s\n\n%s", cat.Version(), types.FormatCatalog(cat))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "catalog file to print instead of the configured one")
	return cmd
}
