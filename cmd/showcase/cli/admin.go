package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/carshowcase/showcase/internal/model"
	"github.com/carshowcase/showcase/internal/service"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
		Long:  "Create, promote and list users who hold the admin flag.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminPromoteCmd())
	cmd.AddCommand(newAdminListCmd())

	return cmd
}

// withCredentials opens the configured store and hands a credential store to fn.
func withCredentials(ctx context.Context, fn func(*service.CredentialStore) error) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	hasher, err := service.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	return fn(service.NewCredentialStore(st, hasher))
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		email     string
		password  string
		firstName string
		lastName  string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin user",
		Example: `  showcase admin create --email admin@example.com --password 'S3cure!pass'
  showcase admin create --email admin@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := promptPassword(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				password = p
			}
			return runAdminCreate(cmd.Context(), cmd.OutOrStdout(), model.NewUser{
				Email:     email,
				Password:  password,
				FirstName: firstName,
				LastName:  lastName,
				IsAdmin:   true,
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&firstName, "first-name", "Site", "Admin first name")
	cmd.Flags().StringVar(&lastName, "last-name", "Admin", "Admin last name")
	cmd.MarkFlagRequired("email")

	return cmd
}

func promptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, "Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Fprintln(w)

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

func runAdminCreate(ctx context.Context, out io.Writer, nu model.NewUser) error {
	if err := service.ValidateNewUser(&nu); err != nil {
		return err
	}
	return withCredentials(ctx, func(creds *service.CredentialStore) error {
		u, err := creds.Create(ctx, nu)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		fmt.Fprintf(out, "Created admin user %q (id %s)\n", u.Email, u.ID)
		return nil
	})
}

// ---------- admin promote ----------

func newAdminPromoteCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant (or with --revoke, remove) the admin flag of an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminPromote(cmd.Context(), cmd.OutOrStdout(), args[0], !revoke)
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "Remove the admin flag instead")

	return cmd
}

func runAdminPromote(ctx context.Context, out io.Writer, email string, admin bool) error {
	return withCredentials(ctx, func(creds *service.CredentialStore) error {
		u, err := creds.FindByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("find %s: %w", email, err)
		}
		if _, err := creds.Update(ctx, u.ID, model.UserUpdate{IsAdmin: &admin}); err != nil {
			return fmt.Errorf("update %s: %w", email, err)
		}
		if admin {
			fmt.Fprintf(out, "%s is now an admin\n", u.Email)
		} else {
			fmt.Fprintf(out, "%s is no longer an admin\n", u.Email)
		}
		return nil
	})
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd.Context(), cmd.OutOrStdout(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(ctx context.Context, out io.Writer, jsonOutput bool) error {
	return withCredentials(ctx, func(creds *service.CredentialStore) error {
		users, err := creds.List(ctx)
		if err != nil {
			return err
		}

		admins := []model.UserSummary{}
		for i := range users {
			if users[i].IsAdmin {
				admins = append(admins, users[i].Summary())
			}
		}

		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(admins)
		}

		if len(admins) == 0 {
			fmt.Fprintln(out, "No admin users configured. Use 'showcase admin create' to create one.")
			return nil
		}

		fmt.Fprintf(out, "%-30s %-24s %-20s\n", "EMAIL", "NAME", "CREATED")
		fmt.Fprintf(out, "%-30s %-24s %-20s\n", "-----", "----", "-------")
		for _, a := range admins {
			fmt.Fprintf(out, "%-30s %-24s %-20s\n", a.Email, a.FirstName+" "+a.LastName, a.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	})
}
