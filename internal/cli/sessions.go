package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"statescan/internal/session"
)

var sessionsLimit int

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List archived surveys",
	Long:  `List past surveys stored in the local archive, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		rows, err := archive.ListSessions(sessionsLimit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("No archived surveys.")
			return nil
		}

		fmt.Printf("%-5s %-10s %-20s %4s %4s  %s\n", "ID", "STATUS", "STARTED", "OK", "FAIL", "QUERY")
		for _, row := range rows {
			fmt.Printf("%-5d %-10s %-20s %4d %4d  %s\n",
				row.ID,
				row.Status,
				row.StartedAt.Local().Format("2006-01-02 15:04:05"),
				row.SuccessCount,
				row.ErrorCount,
				row.Query,
			)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one archived survey in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session id %q", args[0])
		}

		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		sess, err := archive.LoadSession(id)
		if err != nil {
			return err
		}
		printSummary(sess)
		return nil
	},
}

func openArchive() (*session.Archive, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	path, err := archivePath(cfg)
	if err != nil {
		return nil, err
	}
	return session.OpenArchive(path)
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "maximum sessions to list")
}
