package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swz-git/zero-g-script/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the settings file",
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := settings.SaveDefault(settingsPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote default settings to %v\n", settingsPath)
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsInitCmd)
}
