package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/fittrack/internal/session"
	"github.com/jonathan/fittrack/internal/types"
)

var (
	authEmail    string
	authPassword string
	authName     string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email")
		c.Flags().StringVar(&authPassword, "password", "", "Account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	registerCmd.Flags().StringVar(&authName, "name", "", "Display name")
	_ = registerCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd)
}

func runRegister(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	req := types.RegisterRequest{Email: strings.TrimSpace(authEmail), Password: authPassword, DisplayName: authName}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid registration: %w", err)
	}
	if err := client.Register(cmd.Context(), req); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s. Log in with: fittrack login --email %s\n", authEmail, authEmail)
	return nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	store, err := sessionStore()
	if err != nil {
		return err
	}

	resp, err := client.Login(cmd.Context(), types.LoginRequest{Email: authEmail, Password: authPassword})
	if err != nil {
		return err
	}
	s := &session.Session{
		UID:         resp.UID,
		IDToken:     resp.IDToken,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		IssuedAt:    time.Now().UTC(),
	}
	if err := store.Save(s); err != nil {
		return err
	}
	logger.Debug("session saved", zap.String("path", store.Path()), zap.String("uid", s.UID))
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s\n", client.BaseURL(), s.DisplayName)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	store, err := sessionStore()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}
