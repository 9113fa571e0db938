package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/triadworks/triad/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Triad configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/triad/config.yaml
Project-specific overrides can be placed in .triad.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	key, source, _ := cfg.ResolveAPIKey()
	fmt.Printf("anthropic.api_key: %s (%s)\n", config.MaskAPIKey(key), source)
	fmt.Printf("bedrock.enabled: %t\n", cfg.Bedrock.Enabled)
	fmt.Printf("bedrock.region: %s\n", cfg.Bedrock.Region)
	fmt.Printf("bedrock.profile: %s\n", cfg.Bedrock.Profile)
	fmt.Printf("defaults.max_iterations: %d\n", cfg.Defaults.MaxIterations)
	fmt.Printf("defaults.model: %s\n", cfg.Defaults.Model)
	fmt.Printf("defaults.prompts_file: %s\n", cfg.Defaults.PromptsFile)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "bedrock.enabled":
		return strconv.FormatBool(cfg.Bedrock.Enabled), nil
	case "bedrock.region":
		return cfg.Bedrock.Region, nil
	case "bedrock.profile":
		return cfg.Bedrock.Profile, nil
	case "defaults.max_iterations":
		return strconv.Itoa(cfg.Defaults.MaxIterations), nil
	case "defaults.model":
		return cfg.Defaults.Model, nil
	case "defaults.prompts_file":
		return cfg.Defaults.PromptsFile, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "anthropic.api_key":
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
		cfg.Anthropic.APIKey = value
	case "bedrock.enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("bedrock.enabled must be true or false: %w", err)
		}
		cfg.Bedrock.Enabled = enabled
	case "bedrock.region":
		cfg.Bedrock.Region = value
	case "bedrock.profile":
		cfg.Bedrock.Profile = value
	case "defaults.max_iterations":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("defaults.max_iterations must be a positive integer")
		}
		cfg.Defaults.MaxIterations = n
	case "defaults.model":
		cfg.Defaults.Model = value
	case "defaults.prompts_file":
		cfg.Defaults.PromptsFile = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
