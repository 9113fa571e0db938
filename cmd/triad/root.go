package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "triad",
	Short: "Task Delegation Orchestrator",
	Long: `Triad coordinates three specialists on a single task:

  study   researches the task and produces an implementation brief
  code    produces the change, guided by the brief and reviewer feedback
  verify  reviews the change and approves or rejects it with feedback

Each rejection feeds back into another code attempt, bounded by an
iteration budget. Every delegation and result is recorded in an
append-only event log, so sessions can be inspected and resumed.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
