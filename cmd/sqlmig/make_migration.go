package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/james-darko/sqlmig"
	"github.com/james-darko/sqlmig/schema"
	"github.com/spf13/cobra"
)

func newMakeMigrationCmd(g *globalFlags) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "make-migration <table>",
		Short: "Write a migration stub for a new table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, err := loadConfig(g)
				if err != nil {
					return err
				}
				dir = cfg.MainMigrationPath
			}
			if dir == "" {
				dir = "."
			}
			path, err := writeStub(dir, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to write to (default main_migration_path)")
	return cmd
}

// writeStub writes create_<table>_table.mg.yaml into dir. An existing file is
// never overwritten.
func writeStub(dir, table string) (string, error) {
	if err := sqlmig.CheckDir(dir); err != nil {
		return "", err
	}
	data, err := schema.Stub(table).Marshal()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "create_"+table+"_table.mg.yaml")
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("migration %s already exists", path)
	}
	if err != nil {
		return "", err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return "", err
	}
	return path, file.Close()
}
