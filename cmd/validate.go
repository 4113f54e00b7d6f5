package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wyattarnold/StageLP-WSOP/config"
	"github.com/wyattarnold/StageLP-WSOP/core/factory"
	"github.com/wyattarnold/StageLP-WSOP/core/portfolio"
	"github.com/wyattarnold/StageLP-WSOP/infra/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configured data file and scenario tree",
	RunE:  validateData,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateData(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// Building the model runs the strict key checks on the data file.
	prog, err := portfolio.NewProgram(factory.ModuleConfig{
		Type: cfg.Model.Name,
		Conf: map[string]any{"data": cfg.Model.Data},
	})
	if err != nil {
		return err
	}
	if err := prog.TreeModel().Validate(1e-9); err != nil {
		return err
	}
	logger.New("validate").Infof("%s: data and scenario tree are valid", cfg.Model.Name)
	return nil
}
