package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wyattarnold/StageLP-WSOP/config"
	"github.com/wyattarnold/StageLP-WSOP/core/factory"
	"github.com/wyattarnold/StageLP-WSOP/core/portfolio"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the configured model's scenario tree",
	RunE:  printTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

func printTree(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	prog, err := portfolio.NewProgram(factory.ModuleConfig{
		Type: cfg.Model.Name,
		Conf: map[string]any{"data": cfg.Model.Data},
	})
	if err != nil {
		return err
	}
	tree := prog.TreeModel()
	if err := tree.Validate(1e-9); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tree)
}
