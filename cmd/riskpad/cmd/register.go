package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskpad/riskpad/session"
)

var (
	registerEmail    string
	registerPassword string
	registerOTP      string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign it in",
	Long: `Creates an account using the one-time code emailed by "riskpad send-otp"
and signs the new account in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.manager.Register(cmd.Context(), registerEmail, registerPassword, registerOTP); err != nil {
			if msg := app.manager.Store().State().Errors[session.FlowLogin]; msg != "" {
				return fmt.Errorf("%s", msg)
			}
			return err
		}
		fmt.Printf("Account created; signed in as %s\n", registerEmail)
		return nil
	},
}

var otpEmail string

var sendOTPCmd = &cobra.Command{
	Use:   "send-otp",
	Short: "Email a one-time code for registration",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		err = app.manager.SendOTP(cmd.Context(), otpEmail)
		if errors.Is(err, session.ErrResendCooldown) {
			return fmt.Errorf("a code was requested recently; wait a minute before retrying")
		}
		if err != nil {
			return err
		}
		fmt.Printf("One-time code sent to %s\n", otpEmail)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "Email address for the new account")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Password for the new account")
	registerCmd.Flags().StringVar(&registerOTP, "otp", "", "One-time code from the registration email")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")
	registerCmd.MarkFlagRequired("otp")

	rootCmd.AddCommand(sendOTPCmd)
	sendOTPCmd.Flags().StringVarP(&otpEmail, "email", "e", "", "Email address to send the code to")
	sendOTPCmd.MarkFlagRequired("email")
}
