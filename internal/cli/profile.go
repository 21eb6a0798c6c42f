package cli

import (
	"github.com/spf13/cobra"

	"github.com/cyberwithaman/digicon/internal/api"
)

func (a *app) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and edit your own account",
	}
	cmd.AddCommand(
		a.profileShowCommand(),
		a.profileUpdateCommand(),
		a.profilePasswordCommand(),
		a.profilePhotoCommand(),
	)
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func (a *app) profileShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			me, err := a.account().Profile(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("Username:     %s\nFull name:    %s\nEmail:        %s\nPhone:        %s\nEmployee ID:  %s\nRole:         %s\nPhoto:        %s\n",
				me.Username, deref(me.FullName), me.Email, deref(me.PhoneNumber), deref(me.EmployeeID), me.Role, deref(me.ProfilePhoto))
			return nil
		},
	}
}

func (a *app) profileUpdateCommand() *cobra.Command {
	var fullName, email, phone string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change your name, email or phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var update api.ProfileUpdate
			if cmd.Flags().Changed("full-name") {
				update.FullName = &fullName
			}
			if cmd.Flags().Changed("email") {
				update.Email = &email
			}
			if cmd.Flags().Changed("phone") {
				update.PhoneNumber = &phone
			}
			if update == (api.ProfileUpdate{}) {
				a.printf("Nothing to update\n")
				return nil
			}

			if _, err := a.account().UpdateProfile(cmd.Context(), update); err != nil {
				return err
			}
			a.printf("Profile updated\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&fullName, "full-name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	return cmd
}

func (a *app) profilePasswordCommand() *cobra.Command {
	var newPassword, confirm string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if newPassword == "" {
				if newPassword, err = a.prompt("New password"); err != nil {
					return err
				}
			}
			if confirm == "" {
				if confirm, err = a.prompt("Confirm password"); err != nil {
					return err
				}
			}
			if err := a.account().ChangePassword(cmd.Context(), newPassword, confirm); err != nil {
				return err
			}
			a.printf("Password changed\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&newPassword, "new", "", "new password (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the new password (prompted when omitted)")
	return cmd
}

func (a *app) profilePhotoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "photo <image>",
		Short: "Replace your profile photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.account().UpdatePhoto(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Profile photo updated\n")
			return nil
		},
	}
}
