package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jerry-Ma/nasa-apod-desktop/config"
	"github.com/Jerry-Ma/nasa-apod-desktop/util"
)

// checkForUpdates is replaced in tests.
var checkForUpdates = util.CheckForUpdates

func newVersionCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", config.AppName, config.AppVersion)
			if !check {
				return nil
			}

			result, err := checkForUpdates(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if result.UpdateAvailable {
				fmt.Fprintf(out, "Update available: %s -> %s\n%s\n", result.CurrentVersion, result.LatestVersion, result.ReleaseURL)
			} else {
				fmt.Fprintf(out, "Up to date (latest release %s)\n", result.LatestVersion)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	return cmd
}
