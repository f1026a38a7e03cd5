package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tbxark/ticketagent/config"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "ticketagent",
		Short:         "Turn free-text requests into catalog tickets through a short dialogue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default $"+config.EnvConfigPath+")")
	root.AddCommand(newChatCommand(), newServeCommand(), newCatalogCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}
