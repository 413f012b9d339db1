package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naveenspark/quill/pkg/client"
	"github.com/naveenspark/quill/pkg/domain"
)

var (
	errCredentialsRequired = errors.New("email and password are required")
	errPasswordMismatch    = errors.New("passwords do not match")
)

func newLoginCmd(o *options) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with email and password. The token and profile are stored
in the configured session storage and shared with the terminal UI.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			p := newPrompter(c.InOrStdin(), c.ErrOrStderr())
			var err error
			if email == "" {
				if email, err = p.line("Email: "); err != nil {
					return err
				}
			}
			password, err := p.password("Password: ")
			if err != nil {
				return err
			}
			email = strings.TrimSpace(email)
			if email == "" || password == "" {
				return errCredentialsRequired
			}

			ctx := c.Context()
			env, err := o.newCLIEnv(ctx, c.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			resp, err := env.client.Login(ctx, email, password)
			if err != nil {
				env.logger.Debug("login failed", "error", err)
				return fmt.Errorf("login: %s", client.Message(err, "Login failed"))
			}
			if err := env.session.Login(ctx, resp.Token, resp.User); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			env.handOff(ctx, resp.Token)

			fmt.Fprintf(c.OutOrStdout(), "Welcome back! Signed in as %s %s\n", avatarOf(resp.User), resp.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

func newRegisterCmd(o *options) *cobra.Command {
	var email, bio string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			p := newPrompter(c.InOrStdin(), c.ErrOrStderr())
			var err error
			if email == "" {
				if email, err = p.line("Email: "); err != nil {
					return err
				}
			}
			password, err := p.password("Password: ")
			if err != nil {
				return err
			}
			confirm, err := p.password("Confirm password: ")
			if err != nil {
				return err
			}
			if !c.Flags().Changed("bio") {
				if bio, err = p.line("Bio (optional): "); err != nil {
					bio = ""
				}
			}

			req := client.RegisterRequest{
				Email:    strings.TrimSpace(email),
				Password: password,
				Bio:      strings.TrimSpace(bio),
			}
			if req.Email == "" || req.Password == "" {
				return errCredentialsRequired
			}
			if password != confirm {
				return errPasswordMismatch
			}

			ctx := c.Context()
			env, err := o.newCLIEnv(ctx, c.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			resp, err := env.client.Register(ctx, req)
			if err != nil {
				env.logger.Debug("registration failed", "error", err)
				return fmt.Errorf("register: %s", client.Message(err, "Registration failed"))
			}
			if err := env.session.Login(ctx, resp.Token, resp.User); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			env.handOff(ctx, resp.Token)

			fmt.Fprintf(c.OutOrStdout(), "Account created successfully! Welcome to Blog App!\nSigned in as %s %s\n", avatarOf(resp.User), resp.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	cmd.Flags().StringVar(&bio, "bio", "", "short profile bio")
	return cmd
}

func newLogoutCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			env, err := o.newCLIEnv(ctx, c.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			// Logout also removes partial entries hydration ignored.
			wasSignedIn := env.session.State().IsAuthenticated
			if err := env.session.Logout(ctx); err != nil {
				return err
			}
			if !wasSignedIn {
				fmt.Fprintln(c.OutOrStdout(), "Already logged out.")
				return nil
			}
			env.handOff(ctx, "")
			fmt.Fprintln(c.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func avatarOf(u domain.User) string {
	if u.Avatar == "" {
		return domain.DefaultAvatar
	}
	return u.Avatar
}
