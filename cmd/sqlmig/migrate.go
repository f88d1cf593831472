package main

import (
	"context"
	"fmt"
	"io"

	"github.com/james-darko/sqlmig"
	"github.com/james-darko/sqlmig/migrate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type migrateFlags struct {
	paths   []string
	pretend bool
}

func newMigrateCmd(g *globalFlags) *cobra.Command {
	f := &migrateFlags{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply outstanding migrations",
		Args:  cobra.ArbitraryArgs,
		// --key=value pairs meant for other tools are accepted and ignored.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := g.logger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return runMigrate(cmd.Context(), cmd.OutOrStdout(), g, f, logger)
		},
	}
	cmd.Flags().StringSliceVar(&f.paths, "path", nil, "Migration directory (repeatable, overrides the config)")
	cmd.Flags().BoolVar(&f.pretend, "pretend", false, "Print the DDL that would run without executing it")
	return cmd
}

func loadConfig(g *globalFlags) (*sqlmig.Config, error) {
	if err := sqlmig.LoadEnv(g.envFiles...); err != nil {
		return nil, err
	}
	return sqlmig.LoadConfig(g.configFile)
}

func runMigrate(ctx context.Context, out io.Writer, g *globalFlags, f *migrateFlags, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if len(f.paths) > 0 {
		cfg.MigrationPaths = f.paths
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sources := []migrate.Source{migrate.DefaultRegistry}
	dirs := cfg.MigrationPaths
	if len(dirs) == 0 && cfg.MainMigrationPath != "" {
		dirs = []string{cfg.MainMigrationPath}
	}
	if len(dirs) > 0 {
		dirSource, err := migrate.Dirs(dirs...)
		if err != nil {
			return err
		}
		sources = append(sources, dirSource)
	}

	provider := sqlmig.NewProvider(cfg.Credentials, sqlmig.WithProviderLogger(logger))
	defer provider.Close()
	db, err := provider.Conn(ctx)
	if err != nil {
		return err
	}

	m := migrate.New(db, migrate.WithSource(sources...), migrate.WithLogger(logger))
	if f.pretend {
		stmts, err := m.Pretend(ctx)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			fmt.Fprintln(out, stmt)
		}
		return nil
	}
	report, err := m.Migrate(ctx)
	if err != nil {
		return err
	}
	if report.NoOp() {
		fmt.Fprintln(out, "Nothing to migrate.")
		return nil
	}
	fmt.Fprintf(out, "Migrated %d table(s) in batch %d\n", len(report.Applied), report.Batch)
	for _, name := range report.Applied {
		fmt.Fprintf(out, "  %s\n", name)
	}
	return nil
}
