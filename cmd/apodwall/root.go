package main

import (
	"context"

	"github.com/spf13/cobra"
)

// execute runs the command tree and releases the log file afterwards.
// Cobra skips post-run hooks when a command fails, so cleanup lives here.
func execute(ctx context.Context, cmd *cobra.Command, cc *commandContext) error {
	defer cc.close()
	return cmd.ExecuteContext(ctx)
}

func newRootCommand() (*cobra.Command, *commandContext) {
	var configFlag string
	var rootFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &rootFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "apodwall",
		Short:         "Astronomy Picture of the Day desktop slideshow",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			return ctx.ensureLogger(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Repository root (overrides repository.root)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newUpdateCommand(ctx))
	rootCmd.AddCommand(newFetchCommand(ctx))
	rootCmd.AddCommand(newComposeCommand(ctx))
	rootCmd.AddCommand(newApplyCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newKeyCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd, ctx
}
