package cli

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-lms-client/auth"
	"github.com/spf13/cobra"
)

func (a *app) newPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Reset a forgotten password",
		Long:  "Reset a password in three steps: forgot sends a one-time code, verify-otp exchanges it for a reset token and reset sets the new password.",
	}
	cmd.AddCommand(a.newForgotCmd(), a.newVerifyOTPCmd(), a.newResetCmd())
	return cmd
}

func (a *app) newForgotCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Send a one-time code to the account email",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if email, err = a.prompt(cmd, "Email", email); err != nil {
				return err
			}
			msg, err := a.lms.Auth.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return errors.New(auth.ErrorMessage(err, "Could not send the code"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")
	return cmd
}

func (a *app) newVerifyOTPCmd() *cobra.Command {
	var email, otp string

	cmd := &cobra.Command{
		Use:   "verify-otp",
		Short: "Exchange the one-time code for a reset token",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if email, err = a.prompt(cmd, "Email", email); err != nil {
				return err
			}
			if otp, err = a.prompt(cmd, "Code", otp); err != nil {
				return err
			}
			resetToken, err := a.lms.Auth.VerifyOTP(cmd.Context(), email, otp)
			if err != nil {
				return errors.New(auth.ErrorMessage(err, "Invalid code"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset token: %s\n", resetToken)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")
	cmd.Flags().StringVar(&otp, "otp", "", "One-time code from the email (prompted if omitted)")
	return cmd
}

func (a *app) newResetCmd() *cobra.Command {
	var resetToken, password string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with a reset token",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if resetToken, err = a.prompt(cmd, "Reset token", resetToken); err != nil {
				return err
			}
			if password, err = a.prompt(cmd, "New password", password); err != nil {
				return err
			}
			msg, err := a.lms.Auth.ResetPassword(cmd.Context(), resetToken, password)
			if err != nil {
				return errors.New(auth.ErrorMessage(err, "Password reset failed"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&resetToken, "token", "", "Reset token from verify-otp (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")
	return cmd
}
