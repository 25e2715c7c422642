package main

import (
	"fmt"
	"os"

	"github.com/benvon/tasklist/cmd/tasklistctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "tasklistctl",
		Short: "Operator tool for the Tasklist API",
		Long:  "CLI tool for running migrations, inspecting a user's todos and recoloring categories",
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewTodosCmd())
	rootCmd.AddCommand(commands.NewCategoriesCmd())
	rootCmd.AddCommand(commands.NewOIDCCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
