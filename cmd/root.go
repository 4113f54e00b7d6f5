package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wyattarnold/StageLP-WSOP/app"
	"github.com/wyattarnold/StageLP-WSOP/config"
	"github.com/wyattarnold/StageLP-WSOP/infra/logger"
	"github.com/wyattarnold/StageLP-WSOP/infra/metrics"
	"github.com/wyattarnold/StageLP-WSOP/pkg/export"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "wsop",
	Short: "Stage-structured water supply portfolio optimization",
	RunE:  run,
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the configured model over its scenario tree",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.AddCommand(solveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("main")

	if port := cfg.Metrics.PromPort; port != "" {
		go func() {
			if err := metrics.StartPromServer(port); err != nil {
				logg.Errorf("prometheus server: %v", err)
			}
		}()
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	report, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	name := "solution_" + cfg.Model.Name + "." + cfg.Output.Format
	path := filepath.Join(cfg.Output.Dir, name)
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create solution file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logg.Errorf("close solution file: %v", err)
		}
	}()
	switch cfg.Output.Format {
	case "json":
		err = export.WriteJSON(f, report)
	default:
		err = export.WriteCSV(f, report)
	}
	if err != nil {
		return fmt.Errorf("write solution: %w", err)
	}
	logg.Infof("solution written to %s", path)
	return nil
}
