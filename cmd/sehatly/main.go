package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sehatly",
	Short: "Sehatly — online pharmacy backend CLI",
	Long:  "Sehatly is an online pharmacy storefront backend. Use this CLI to run the server and manage the project.",
}

func init() {
	// Server
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(seedCmd)

	// Accounts
	rootCmd.AddCommand(adminCreateCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)
}
