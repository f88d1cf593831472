package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

type globalFlags struct {
	configFile string
	envFiles   []string
	debug      bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "sqlmig",
		Short:         "MySQL schema migrations",
		Long:          "Applies table-creating migrations to a MySQL database and keeps track of the applied ones.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configFile, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringSliceVar(&g.envFiles, "env-file", nil, "Env files to load (default .env)")
	rootCmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Development logging at debug level")

	rootCmd.AddCommand(newMigrateCmd(g))
	rootCmd.AddCommand(newMakeMigrationCmd(g))
	return rootCmd
}

func (g *globalFlags) logger() (*zap.Logger, error) {
	if g.debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
