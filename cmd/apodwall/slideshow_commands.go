package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/validator"
)

func newComposeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "compose",
		Short: "Rebuild the slideshow descriptor from the active images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.newOfflineRepository()
			if err != nil {
				return err
			}
			bg, err := repo.Compose()
			if err != nil {
				return fmt.Errorf("compose: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Composed %d images into %s\n", len(bg.Files()), repo.Layout().DescriptorPath())
			return nil
		},
	}
}

func newApplyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Point the desktop background at the slideshow descriptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.newOfflineRepository()
			if err != nil {
				return err
			}
			descriptor := repo.Layout().DescriptorPath()
			if err := ctx.newApplier().Apply(cmd.Context(), descriptor); err != nil {
				return fmt.Errorf("apply: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wallpaper set to %s\n", descriptor)
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the images currently in rotation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.newOfflineRepository()
			if err != nil {
				return err
			}
			links, err := repo.ActiveLinks()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(links) == 0 {
				fmt.Fprintln(out, "No active images; run `apodwall update`")
				return nil
			}

			rows := make([][]string, 0, len(links))
			for _, link := range links {
				rows = append(rows, linkRow(repo.Layout().ActiveDir(), link.Name, link.Target))
			}
			fmt.Fprintln(out, renderActiveTable(rows))
			return nil
		},
	}
}

func linkRow(activeDir, name, target string) []string {
	date := "-"
	if prefix, _, ok := strings.Cut(name, "_"); ok {
		if _, err := time.Parse(provider.DateLayout, prefix); err == nil {
			date = prefix
		}
	}
	size := "missing"
	dims := "-"
	resolved := target
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(activeDir, resolved)
	}
	if info, err := os.Stat(resolved); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
		if w, h, err := validator.Dimensions(resolved); err == nil {
			dims = fmt.Sprintf("%dx%d", w, h)
		}
	}
	return []string{date, name, size, dims}
}
