package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/halcyon0/halcyon/internal/user"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation sessions",
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new <username> <password>",
	Short: "Start a new session for a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		defer app.close()

		sess, err := app.users.Verify(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if err := app.users.IncrementSessionCount(cmd.Context(), sess); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "started session %d for %s\n", sess.ID, sess.Username)
		return nil
	},
}

var sessionsHistoryCmd = &cobra.Command{
	Use:   "history <username> <password> [session-id]",
	Short: "Show a user's conversation history",
	Long: `Shows the user's recent exchanges. With a session id, only the
exchanges recorded in that session are shown.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		defer app.close()

		sess, err := app.users.Verify(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		if len(args) == 3 {
			sessionID, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid session id %q: %w", args[2], err)
			}
			matched, err := app.users.ExchangesForSession(cmd.Context(), sess, sessionID)
			if err != nil {
				return err
			}
			printExchanges(cmd, matched)
			return nil
		}

		recent, err := app.users.RecentExchanges(cmd.Context(), sess, app.cfg.HistoryLimit)
		if err != nil {
			return err
		}
		printExchanges(cmd, recent)
		return nil
	},
}

func printExchanges(cmd *cobra.Command, exchanges []user.Exchange) {
	if len(exchanges) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no exchanges found")
		return
	}
	for _, ex := range exchanges {
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] (session %d)\n  User: %s\n  Assistant: %s\n",
			ex.MessageID, ex.SessionID, ex.Question, ex.Answer)
	}
}

func init() {
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsCmd.AddCommand(sessionsHistoryCmd)
	rootCmd.AddCommand(sessionsCmd)
}
