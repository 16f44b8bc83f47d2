package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"vindex/logx"
)

var rootCmd = &cobra.Command{
	Use:   "vindex",
	Short: "Vindex ledger node CLI",
	Long:  "Command line interface for running and inspecting a Vindex ledger node.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
