package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the picture of a single day and report whether it is usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now()
			if v := strings.TrimSpace(dateFlag); v != "" {
				parsed, err := time.Parse(provider.DateLayout, v)
				if err != nil {
					return fmt.Errorf("--date: expected YYYY-MM-DD: %w", err)
				}
				date = parsed
			}
			y, m, d := date.Date()
			date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

			fetcher, err := ctx.newFetcher(newProgressReporter(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			repo, err := ctx.newRepository(fetcher)
			if err != nil {
				return err
			}

			img, err := repo.Fetch(cmd.Context(), date)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", date.Format(provider.DateLayout), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Date:       %s\n", img.DateString())
			if img.Title != "" {
				fmt.Fprintf(out, "Title:      %s\n", img.Title)
			}
			fmt.Fprintf(out, "File:       %s\n", img.FilePath)
			fmt.Fprintf(out, "Size:       %s\n", humanize.Bytes(uint64(img.Size)))
			fmt.Fprintf(out, "Dimensions: %dx%d\n", img.Width, img.Height)
			fmt.Fprintf(out, "Cached:     %s\n", yesNo(img.Cached))

			if reason := ctx.newValidator().Check(img.FilePath); reason != nil {
				fmt.Fprintf(out, "Usable:     no (%v)\n", reason)
			} else {
				fmt.Fprintln(out, "Usable:     yes")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Date to fetch as YYYY-MM-DD (defaults to today)")
	return cmd
}
