package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/msu-projects/sitio-portal/pkg/configuration"
)

func main() {
	root := &cobra.Command{
		Use:          "portalctl",
		Short:        "Operations CLI for the sitio data portal",
		SilenceUsage: true,
	}
	root.AddCommand(migrateCommand(), seedCommand())

	if err := root.Execute(); err != nil {
		configuration.Use().Logger().WithError(err).Error("command failed")
		os.Exit(1)
	}
}
