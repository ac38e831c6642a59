package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Long: `Resolves the current session: a stored refresh cookie recovers the
session even when the process was restarted since login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		user := app.manager.CheckSession(cmd.Context())
		if user == nil {
			return fmt.Errorf("not signed in")
		}
		fmt.Printf("%s (%s)\n", user.Email, user.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
