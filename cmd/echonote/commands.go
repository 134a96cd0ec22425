package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalambet/echonote/internal/config"
	"github.com/kalambet/echonote/internal/onboarding"
	"github.com/kalambet/echonote/internal/storage"
)

// --- onboarding ---

var onboardingCmd = &cobra.Command{
	Use:   "onboarding",
	Short: "Inspect and manage first-run wizard state",
}

var onboardingStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current wizard state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		svc := onboarding.NewService(onboarding.NewStoreAdapter(cfg.Storage.DataDir), nil)
		status, err := svc.GetStatus()
		if err != nil {
			return err
		}
		if status == nil {
			fmt.Fprintln(os.Stderr, "Onboarding has never been started.")
			return nil
		}

		printStatus("Completed", "%v", status.Completed)
		printStatus("Step", "%d of %d", status.CurrentStep, onboarding.TerminalStep)
		printStatus("Transcription model", "%s", status.ModelStatus.Transcription)
		printStatus("Summary model", "%s", status.ModelStatus.Summary)
		printStatus("Last updated", "%s", status.LastUpdated.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

var onboardingResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all wizard state so onboarding runs again",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		svc := onboarding.NewService(onboarding.NewStoreAdapter(cfg.Storage.DataDir), nil)
		if err := svc.ResetStatus(); err != nil {
			return err
		}

		printSuccess("Onboarding state reset")
		return nil
	},
}

var onboardingCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Mark onboarding complete and persist model selections",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		summaryModel, _ := cmd.Flags().GetString("summary-model")
		if summaryModel == "" {
			summaryModel = cfg.Models.SummaryModel
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		svc := onboarding.NewService(
			onboarding.NewStoreAdapter(cfg.Storage.DataDir),
			onboarding.NewSettingsBridge(store),
		)

		sel := onboarding.DefaultSelection(summaryModel)
		sel.TranscriptionModel = cfg.Models.TranscriptionModel
		if err := svc.Complete(cmd.Context(), sel); err != nil {
			return err
		}

		printSuccess("Onboarding completed with summary model %s", summaryModel)
		return nil
	},
}

func init() {
	onboardingCompleteCmd.Flags().String("summary-model", "", "summary model identifier (defaults to models.summary_model)")

	onboardingCmd.AddCommand(onboardingStatusCmd)
	onboardingCmd.AddCommand(onboardingResetCmd)
	onboardingCmd.AddCommand(onboardingCompleteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, info := range config.ShowAll(cfg) {
			fmt.Fprintf(os.Stdout, "%-28s %v\n", info.Key, info.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			printWarning("valid keys: %v", config.ValidKeys())
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
