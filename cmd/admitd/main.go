package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/admitbot/internal/cli"
	"github.com/cloo-solutions/admitbot/internal/cli/admin"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "admitd",
		Short:   "Admissions assistant daemon",
		Long:    "admitd runs the admissions chat API and manages the knowledge stores behind it.",
		Version: version,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.DeleteCmd())
	rootCmd.AddCommand(admin.MigrateCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
