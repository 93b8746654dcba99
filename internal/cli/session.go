package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jrsteele09/go-lms-client/api"
	"github.com/jrsteele09/go-lms-client/auth"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/jrsteele09/go-lms-client/users"
	"github.com/spf13/cobra"
)

func (a *app) newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in on the selected track",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if email, err = a.prompt(cmd, "Email", email); err != nil {
				return err
			}
			if password, err = a.prompt(cmd, "Password", password); err != nil {
				return err
			}

			user, err := a.lms.Auth.Login(cmd.Context(), a.track, api.LoginRequest{Email: email, Password: password})
			if err != nil {
				a.logger.Debug().Err(err).Msg("login")
				return errors.New(auth.ErrorMessage(err, auth.LoginFailedMsg))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in to %s as %s (%s)\n", a.track, user.Email, user.Role.Label())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	return cmd
}

func (a *app) newRegisterCmd() *cobra.Command {
	var email, username, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in on the selected track",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if email, err = a.prompt(cmd, "Email", email); err != nil {
				return err
			}
			if username, err = a.prompt(cmd, "Username", username); err != nil {
				return err
			}
			if password, err = a.prompt(cmd, "Password", password); err != nil {
				return err
			}

			user, err := a.lms.Auth.Register(cmd.Context(), a.track, api.RegisterRequest{Username: username, Email: email, Password: password})
			if err != nil {
				a.logger.Debug().Err(err).Msg("register")
				return errors.New(auth.ErrorMessage(err, auth.RegisterFailedMsg))
			}
			if !a.lms.Auth.State(a.track).IsAuthenticated {
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s, sign in to continue\n", user.Email)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in to %s as %s\n", a.track, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")
	cmd.Flags().StringVar(&username, "username", "", "Display name (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	return cmd
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the selected track",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.lms.Auth.Logout(a.track)
			fmt.Fprintf(cmd.OutOrStdout(), "Signed out of %s\n", a.track)
			return nil
		},
	}
}

func (a *app) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the stored session with the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.lms.Auth.Verify(cmd.Context(), a.track)
			if err != nil {
				return fmt.Errorf("verify %s: %w", a.track, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session on %s is valid for %s (%s)\n", a.track, user.Email, user.Role.Label())
			return nil
		},
	}
}

func (a *app) newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.lms.Refresher.Refresh(cmd.Context(), a.track); err != nil {
				return fmt.Errorf("refresh %s: %w", a.track, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Access token for %s refreshed\n", a.track)
			return nil
		},
	}
}

func (a *app) newStatusCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the locally stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			tracks := []token.Track{a.track}
			if all {
				tracks = token.Tracks
			}
			for _, tr := range tracks {
				a.printStatus(cmd.OutOrStdout(), tr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Show both tracks")
	return cmd
}

func (a *app) printStatus(w io.Writer, track token.Track) {
	st := a.lms.Auth.State(track)
	fmt.Fprintf(w, "Track: %s\n", track)
	if !st.IsAuthenticated {
		fmt.Fprintln(w, "  Signed in: no")
		return
	}
	fmt.Fprintln(w, "  Signed in: yes")
	printUser(w, st.User)

	pair, _ := a.lms.Store.Pair(track)
	if claims, err := token.Inspect(pair.AccessToken); err == nil && !claims.ExpiresAt.IsZero() {
		if claims.Expired() {
			fmt.Fprintf(w, "  Access:    expired at %s\n", claims.ExpiresAt.Local().Format(time.RFC3339))
		} else {
			fmt.Fprintf(w, "  Access:    expires in %s\n", claims.ExpiresIn().Round(time.Second))
		}
	} else {
		fmt.Fprintln(w, "  Access:    stored")
	}
	if token.Valid(pair.RefreshToken) {
		fmt.Fprintln(w, "  Refresh:   stored")
	} else {
		fmt.Fprintln(w, "  Refresh:   none")
	}
}

func printUser(w io.Writer, u *users.User) {
	fmt.Fprintf(w, "  User:      %s (%s)\n", u.Username, u.Email)
	fmt.Fprintf(w, "  Role:      %s\n", u.Role.Label())
	fmt.Fprintf(w, "  Console:   %s\n", u.DashboardPath())
}
