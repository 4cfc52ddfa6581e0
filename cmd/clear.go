package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"slidegen/internal/history"
	"slidegen/internal/storage"
	"slidegen/pkg/config"
)

var clearHistory bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove generated decks and staged uploads",
	Long:  `Empty the output and upload directories, and optionally the generation history.`,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearHistory, "history", false, "Also delete generation history")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	local := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.OutputDir)
	if err := local.Cleanup(false); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	fmt.Println("Cleared output and upload directories")

	if !clearHistory {
		return nil
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	count, err := store.Clear(cmd.Context())
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	fmt.Printf("Cleared %d history entr(ies)\n", count)
	return nil
}
