package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			env, err := o.newCLIEnv(c.Context(), c.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			out := c.OutOrStdout()
			storage := env.cfg.Storage.Backend
			if env.cfg.Storage.Path != "" {
				storage += " (" + env.cfg.Storage.Path + ")"
			}
			fmt.Fprintf(out, "api:     %s\n", env.cfg.APIURL)
			fmt.Fprintf(out, "storage: %s\n", storage)

			st := env.session.State()
			if !st.IsAuthenticated {
				fmt.Fprintln(out, "session: not signed in")
				return nil
			}
			fmt.Fprintf(out, "session: signed in as %s %s\n", avatarOf(*st.User), st.User.Email)
			fmt.Fprintf(out, "expiry:  %s\n", describeExpiry(st.ExpiresAt()))
			return nil
		},
	}
}

// describeExpiry renders the token's exp claim for humans. The API decides
// validity; this is informational only.
func describeExpiry(exp time.Time, ok bool) string {
	if !ok {
		return "unknown"
	}
	left := time.Until(exp)
	if left <= 0 {
		return fmt.Sprintf("expired at %s", exp.Local().Format(time.DateTime))
	}
	return fmt.Sprintf("session expires in %s (%s)", left.Round(time.Minute), exp.Local().Format(time.DateTime))
}
