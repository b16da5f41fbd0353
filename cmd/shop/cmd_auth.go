package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/types"
)

var (
	authEmail     string
	authPassword  string
	authFirstName string
	authLastName  string
	authPhone     string
)

// loginCmd authenticates against the remote auth service.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the storefront",
	Long: `Log in with your account email and password.

The issued access and refresh tokens are opaque strings stored in the local
store; they are sent as a bearer header on authenticated requests and
refreshed automatically once when the server rejects an expired token.`,
	RunE: runLogin,
}

// registerCmd creates an account.
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a storefront account",
	RunE:  runRegister,
}

// logoutCmd ends the session.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear stored credentials",
	Long: `Log out of the storefront.

The refresh token is revoked server-side best-effort; stored credentials are
always cleared locally, even when the server call fails. The cart is kept.`,
	RunE: runLogout,
}

// whoamiCmd shows the current session.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE:  runWhoami,
}

func promptIfEmpty(value *string, label string) error {
	if *value != "" {
		return nil
	}
	fmt.Printf("%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	*value = strings.TrimSpace(line)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	if err := promptIfEmpty(&authEmail, "Email"); err != nil {
		return err
	}
	if err := promptIfEmpty(&authPassword, "Password"); err != nil {
		return err
	}

	user, err := app.auth.Login(cmd.Context(), authEmail, authPassword)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s %s <%s>\n", user.FirstName, user.LastName, user.Email)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	for _, field := range []struct {
		value *string
		label string
	}{
		{&authEmail, "Email"},
		{&authPassword, "Password"},
		{&authFirstName, "First name"},
		{&authLastName, "Last name"},
		{&authPhone, "Phone"},
	} {
		if err := promptIfEmpty(field.value, field.label); err != nil {
			return err
		}
	}

	resp, err := app.auth.Register(cmd.Context(), types.RegisterRequest{
		Email:     authEmail,
		Password:  authPassword,
		FirstName: authFirstName,
		LastName:  authLastName,
		Phone:     authPhone,
	})
	if err != nil {
		return err
	}
	if resp.Message != "" {
		fmt.Println(resp.Message)
	} else {
		fmt.Println("Account created. Log in with: shop login")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if !app.auth.Authenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	if err := app.auth.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	user, err := app.auth.CurrentUser()
	if err != nil {
		return err
	}
	fmt.Printf("%s %s <%s>\n", user.FirstName, user.LastName, user.Email)
	fmt.Printf("Session state: %s\n", app.auth.State())
	return nil
}

func init() {
	loginCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&authPassword, "password", "", "account password")
	registerCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&authPassword, "password", "", "account password")
	registerCmd.Flags().StringVar(&authFirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&authLastName, "last-name", "", "last name")
	registerCmd.Flags().StringVar(&authPhone, "phone", "", "phone number")
}
