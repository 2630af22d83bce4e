package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jerry-Ma/nasa-apod-desktop/config"
)

func newKeyCommand() *cobra.Command {
	keyCmd := &cobra.Command{
		Use:         "key",
		Short:       "Manage the api.nasa.gov key stored in the OS keyring",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	keyCmd.AddCommand(newKeySetCommand())
	keyCmd.AddCommand(newKeyClearCommand())
	return keyCmd
}

func newKeySetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set [KEY]",
		Short: "Store the API key (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no api key provided")
				}
				key = line
			}
			key = strings.TrimSpace(key)
			if err := config.SetStoredAPIKey(key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key stored in keyring")
			return nil
		},
	}
}

func newKeyClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeleteStoredAPIKey(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key removed from keyring")
			return nil
		},
	}
}
