// Package main is the entry point for the progression server
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "progression-api",
	Short: "Calisthenics progression server",
	Long:  `Progression API tracks per-user skill unlocks across the training trees and drives the quest system from unlock events.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
