package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a Triad project",
	Long: `Initialize a directory for use with Triad.

Creates the .triad directory (session store, logs, signals) and a
.triad.yaml config template, and adds .triad/ to .gitignore.

Examples:
  triad init              # Initialize current directory
  triad init ./myproject  # Initialize specific directory
  triad init --force      # Rewrite the config template`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Rewrite .triad.yaml even if it exists")
}

// projectConfigTemplate is the scaffold written to .triad.yaml.
type projectConfigTemplate struct {
	Anthropic struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"anthropic"`
	Bedrock struct {
		Enabled bool   `yaml:"enabled"`
		Region  string `yaml:"region"`
		Profile string `yaml:"profile"`
	} `yaml:"bedrock"`
	Defaults struct {
		MaxIterations int    `yaml:"max_iterations"`
		Model         string `yaml:"model"`
		PromptsFile   string `yaml:"prompts_file"`
	} `yaml:"defaults"`
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing Triad in %s...\n\n", absPath)

	triadDir := filepath.Join(absPath, ".triad")
	for _, dir := range []string{triadDir, filepath.Join(triadDir, "signals"), filepath.Join(triadDir, "logs")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	printStatus("✓", "Created .triad directory structure", color.FgGreen)

	if err := writeConfigTemplate(absPath); err != nil {
		return err
	}

	if err := updateGitignore(absPath); err != nil {
		return err
	}

	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (you can set it later)", color.FgYellow)
	} else {
		printStatus("✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
	}

	fmt.Printf("\n%s Triad initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	fmt.Println("  triad run \"<your first task>\"")
	fmt.Println("  triad status")
	return nil
}

func writeConfigTemplate(projectRoot string) error {
	configPath := filepath.Join(projectRoot, ".triad.yaml")
	if _, err := os.Stat(configPath); err == nil && !initForce {
		printStatus("✓", ".triad.yaml already exists (use --force to rewrite)", color.FgGreen)
		return nil
	}

	var tmpl projectConfigTemplate
	tmpl.Anthropic.APIKey = "${ANTHROPIC_API_KEY}"
	tmpl.Defaults.MaxIterations = 3

	data, err := yaml.Marshal(&tmpl)
	if err != nil {
		return fmt.Errorf("rendering config template: %w", err)
	}

	header := "# Triad project configuration.\n# Values here override ~/.config/triad/config.yaml.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("writing .triad.yaml: %w", err)
	}

	printStatus("✓", "Created .triad.yaml template", color.FgGreen)
	return nil
}

func updateGitignore(projectRoot string) error {
	gitignorePath := filepath.Join(projectRoot, ".gitignore")

	existing, err := os.ReadFile(gitignorePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading .gitignore: %w", err)
	}
	if strings.Contains(string(existing), ".triad/") {
		return nil
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("opening .gitignore: %w", err)
	}
	defer f.Close()

	entry := "\n# Triad session data\n.triad/\n"
	if len(existing) == 0 {
		entry = "# Triad session data\n.triad/\n"
	}
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}

	printStatus("✓", "Updated .gitignore with Triad entries", color.FgGreen)
	return nil
}

func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
