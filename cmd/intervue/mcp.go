package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/intervue-ai/intervue/pkg/interview"
	"github.com/intervue-ai/intervue/pkg/mcp"
	"github.com/intervue-ai/intervue/pkg/tracker"
)

func newMCPCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve session reporting tools over MCP (stdio)",
		Long: `Runs a Model Context Protocol server on stdin/stdout. Tools read the
session database directly, so db_path must name the same SQLite file the API
server uses; the default ":memory:" database is private to one process and is
rejected. The question cache lives in the API server process and is reported
as disabled here.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}

			if err := checkSharedDB(cfg.DBPath); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init tracker: %w", err)
			}
			defer func() { _ = tr.Close() }()

			svc := interview.New(cfg, nil, tr, nil, nil)
			return mcp.New(svc, version).Run(ctx, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "intervue.yaml", "path to config file")
	return cmd
}

// checkSharedDB rejects database paths another process cannot open.
func checkSharedDB(path string) error {
	if path == "" || path == ":memory:" || strings.Contains(path, "mode=memory") {
		return fmt.Errorf("mcp: db_path %q is not shared with the API server; set db_path to a file", path)
	}
	return nil
}
