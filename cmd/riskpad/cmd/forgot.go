package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskpad/riskpad/session"
)

var forgotEmail string

var forgotCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password-reset email",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		err = app.manager.ForgotPassword(cmd.Context(), forgotEmail)
		if errors.Is(err, session.ErrResendCooldown) {
			return fmt.Errorf("a reset email was requested recently; wait a minute before retrying")
		}
		if err != nil {
			if msg := app.manager.Store().State().Errors[session.FlowForgotPassword]; msg != "" {
				return fmt.Errorf("%s", msg)
			}
			return err
		}
		fmt.Printf("Reset link sent to %s\n", forgotEmail)
		return nil
	},
}

var resetToken, resetPassword string

var resetCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password using an emailed reset token",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		err = app.manager.ResetPassword(cmd.Context(), resetToken, resetPassword)
		if errors.Is(err, session.ErrResetLinkExpired) {
			return fmt.Errorf("this reset link has expired; request a new one")
		}
		if err != nil {
			if msg := app.manager.Store().State().Errors[session.FlowResetPassword]; msg != "" {
				return fmt.Errorf("%s", msg)
			}
			return err
		}
		fmt.Println("Password updated; sign in with the new password")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(forgotCmd)
	forgotCmd.Flags().StringVarP(&forgotEmail, "email", "e", "", "Account email address")
	forgotCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().StringVar(&resetToken, "token", "", "Reset token from the email link")
	resetCmd.Flags().StringVar(&resetPassword, "password", "", "New password")
	resetCmd.MarkFlagRequired("token")
	resetCmd.MarkFlagRequired("password")
}
