package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cyberwithaman/digicon/internal/admin"
	"github.com/cyberwithaman/digicon/internal/api"
	"github.com/cyberwithaman/digicon/internal/gallery"
	"github.com/cyberwithaman/digicon/internal/models"
)

func (a *app) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage user accounts (administrators only)",
	}
	cmd.AddCommand(
		a.usersListCommand(),
		a.usersCreateCommand(),
		a.usersUpdateCommand(),
		a.usersResetPasswordCommand(),
		a.usersDeleteCommand(),
	)
	return cmd
}

// manager returns an authorized admin.Manager with the user list loaded.
func (a *app) manager(ctx context.Context) (*admin.Manager, error) {
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	m := admin.NewManager(a.client, sess, a, a.log)
	if _, err := m.Authorize(ctx); err != nil {
		return nil, err
	}
	if _, err := m.Refresh(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (a *app) usersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tFULL NAME\tEMAIL\tROLE")
			for _, u := range m.Users() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, deref(u.FullName), u.Email, u.Role)
			}
			return w.Flush()
		},
	}
}

type userFlags struct {
	username string
	fullName string
	email    string
	password string
	phone    string
	role     string
	photo    string
}

func (f *userFlags) bind(cmd *cobra.Command, create bool) {
	cmd.Flags().StringVar(&f.username, "username", "", "login name")
	cmd.Flags().StringVar(&f.fullName, "full-name", "", "full name")
	cmd.Flags().StringVar(&f.email, "email", "", "email address")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.role, "role", string(models.RoleUser), "one of admin, viewer, editor, user")
	cmd.Flags().StringVar(&f.photo, "photo", "", "profile photo file")
	if create {
		cmd.Flags().StringVar(&f.password, "password", "", "initial password")
	}
}

// fill copies the flags the user set onto the form. In create mode every
// flag is copied.
func (f *userFlags) fill(cmd *cobra.Command, form *admin.Form) error {
	set := func(name string) bool {
		return form.Mode() == admin.ModeCreate || cmd.Flags().Changed(name)
	}
	if set("username") {
		form.Username = f.username
	}
	if set("full-name") {
		form.FullName = f.fullName
	}
	if set("email") {
		form.Email = f.email
	}
	if set("phone") {
		form.Phone = f.phone
	}
	if form.Mode() == admin.ModeCreate {
		form.Password = f.password
	}
	if set("role") {
		role, err := models.ParseRole(f.role)
		if err != nil {
			return err
		}
		form.Role = role
	}
	if f.photo != "" {
		asset, err := gallery.LoadAsset(f.photo)
		if err != nil {
			return err
		}
		form.Photo = &api.File{Name: asset.Name, ContentType: asset.MIME, Data: asset.Data}
	}
	return nil
}

func (a *app) usersCreateCommand() *cobra.Command {
	var flags userFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			form := admin.NewForm()
			if err := flags.fill(cmd, form); err != nil {
				return err
			}
			user, err := m.Submit(cmd.Context(), form)
			if err != nil {
				return err
			}
			a.printf("Created user %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	flags.bind(cmd, true)
	return cmd
}

func (a *app) usersUpdateCommand() *cobra.Command {
	var flags userFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			m, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			existing, ok := m.Lookup(id)
			if !ok {
				return fmt.Errorf("user %d not found", id)
			}

			form := admin.NewForm()
			form.Select(&existing)
			if err := flags.fill(cmd, form); err != nil {
				return err
			}
			user, err := m.Submit(cmd.Context(), form)
			if err != nil {
				return err
			}
			a.printf("Updated user %s\n", user.Username)
			return nil
		},
	}
	flags.bind(cmd, false)
	return cmd
}

func (a *app) usersResetPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <id>",
		Short: "Reset a password to the temporary password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			m, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			done, err := m.ResetPassword(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !done {
				a.printf("Cancelled\n")
				return nil
			}
			a.printf("Password reset to %s. Share it with the user securely.\n", admin.TemporaryPassword)
			return nil
		},
	}
}

func (a *app) usersDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			m, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			done, err := m.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !done {
				a.printf("Cancelled\n")
				return nil
			}
			a.printf("Deleted user %d\n", id)
			return nil
		},
	}
}
