package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerCmd(current func() *app) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.session.Register(cmd.Context(), name, email, password); err != nil {
				return err
			}
			identity, _ := a.session.Identity()
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s\n", identity.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (at least 6 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd(current func() *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			identity, _ := a.session.Identity()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", identity.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current().session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, ok := current().session.Identity()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			name := identity.DisplayName
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s\n", identity.Email, name, identity.UserID)
			return nil
		},
	}
}

func profileCmd(current func() *app) *cobra.Command {
	var name, role string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the profile record",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.requireIdentity(); err != nil {
				return err
			}
			if cmd.Flags().Changed("name") || cmd.Flags().Changed("role") {
				existing, err := a.profiles.GetProfile(cmd.Context())
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("name") {
					name = existing.Name
				}
				if !cmd.Flags().Changed("role") {
					role = existing.Role
				}
				if _, err := a.profiles.UpdateProfile(cmd.Context(), name, role); err != nil {
					return err
				}
			}
			user, err := a.profiles.GetProfile(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:    %s\n", user.Name)
			fmt.Fprintf(out, "Email:   %s\n", user.Email)
			fmt.Fprintf(out, "Role:    %s\n", user.Role)
			fmt.Fprintf(out, "Joined:  %s\n", user.CreatedAt.Local().Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&role, "role", "", "New role")
	return cmd
}
