package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "replay",
	Short: "Headless deterministic replay of GITRIS games",
	Long:  "Drives the falling-block simulation from a JSON input script without a renderer and reports what happened.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
