// ABOUTME: Cobra command for interactive insight endpoint setup.
// ABOUTME: Launches the bubbletea wizard and saves the provider, endpoint, and credentials it returns.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/jotter/internal/config"
	"github.com/2389-research/jotter/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Connect an AI insight endpoint",
	Long:  "Interactive wizard to configure the endpoint used for AI reflections.",
	RunE:  runSetup,
}

var setupProvider string

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().StringVar(&setupProvider, "provider", "", "Preselect the insight provider: proxy or openai")
}

func runSetup(cmd *cobra.Command, args []string) error {
	// Env overrides must not leak into the saved file.
	cfg, err := config.LoadFile()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if setupProvider != "" {
		cfg.Insight.Provider = setupProvider
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	p := tea.NewProgram(tui.NewSetupModel(tui.Settings{
		Provider: cfg.Insight.Provider,
		APIURL:   cfg.Insight.APIURL,
		Model:    cfg.Insight.Model,
		APIKey:   cfg.Insight.APIKey,
	}))
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Println("Setup cancelled.")
		return nil
	}

	chosen := final.Result()
	cfg.Insight.Provider = chosen.Provider
	cfg.Insight.APIURL = chosen.APIURL
	cfg.Insight.Model = chosen.Model
	cfg.Insight.APIKey = chosen.APIKey

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Println("Config saved successfully.")
	} else {
		fmt.Printf("Config saved to %s\n", configPath)
	}
	return nil
}
