package main

import (
	"fmt"
	"os"

	"github.com/prdmaker/prdmaker/cmd"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "prdmaker",
		Short:   "Turn PRDs into structured features, tasks and planning documents",
		Version: version,
	}

	rootCmd.AddCommand(cmd.AnalyzeCmd, cmd.PushCmd, cmd.ServeCmd, cmd.SetupCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
