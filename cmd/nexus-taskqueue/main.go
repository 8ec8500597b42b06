package main

import (
	"fmt"
	"os"

	"github.com/fabriziosalmi/nexus-taskqueue/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "nexus-taskqueue"}

func main() {
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
