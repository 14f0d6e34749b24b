package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/store"
)

func loginCmd(opts *options) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token in the keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(opts)
			if err != nil {
				return err
			}

			var password string
			if err := promptCredentials(&username, &password); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.Timeout())
			defer cancel()

			token, user, err := e.newClient().Login(ctx, strings.TrimSpace(username), password)
			if err != nil {
				return fmt.Errorf("logging in to %s: %w", e.cfg.Server.BaseURL, err)
			}
			if err := credential.SaveToken(token); err != nil {
				return err
			}

			e.log.Logf("[INFO] stored token for %s", user.Username)
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s, %s)\n", displayName(user.DisplayName, user.Username), user.Department, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	return cmd
}

// promptCredentials asks for the password, and for the username when it
// was not given as a flag.
func promptCredentials(username, password *string) error {
	var fields []huh.Field
	if strings.TrimSpace(*username) == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(username).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("username is required")
				}
				return nil
			}))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(password))

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("reading credentials: %w", err)
	}
	return nil
}

func logoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token and clear the offline cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(opts)
			if err != nil {
				return err
			}

			if err := credential.DeleteToken(); err != nil {
				return err
			}

			st, err := store.NewSQLiteStore(e.cfg.Cache.Path)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.ClearSnapshot(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func displayName(name, username string) string {
	if name != "" {
		return name
	}
	return username
}
