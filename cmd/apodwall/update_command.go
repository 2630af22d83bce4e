package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var capacity int
	var apply bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Fetch recent pictures and rebuild the active slideshow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("capacity") {
				capacity = ctx.config.Repository.Capacity
			}

			fetcher, err := ctx.newFetcher(newProgressReporter(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			repo, err := ctx.newRepository(fetcher)
			if err != nil {
				return err
			}

			res, err := repo.Update(cmd.Context(), capacity)
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Selected %d images from %d dates (%d skipped)\n", len(res.Selected), res.Scanned, res.Skipped)
			for _, img := range res.Selected {
				fmt.Fprintf(out, "  %s  %s\n", img.DateString(), img.Title)
			}
			fmt.Fprintf(out, "Descriptor: %s\n", res.Descriptor)

			if apply {
				if err := ctx.newApplier().Apply(cmd.Context(), res.Descriptor); err != nil {
					return fmt.Errorf("apply: %w", err)
				}
				fmt.Fprintln(out, "Wallpaper updated")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&capacity, "capacity", "n", 0, "Number of images in rotation (defaults to repository.capacity)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Point the desktop background at the descriptor afterwards")
	return cmd
}
