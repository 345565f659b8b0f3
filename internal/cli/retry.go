package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"statescan/internal/model"
	"statescan/internal/session"
)

// retryCmd represents the retry command
var retryCmd = &cobra.Command{
	Use:   "retry <session-id> <state>",
	Short: "Retry one state of an archived survey",
	Long: `Retry re-runs a single state's lookup for a past survey and overwrites its
archived entry. The session's status and success/error tallies are left as
the original run recorded them.

Example:
  statescan retry 12 TX
  statescan retry 12 OH --backend llm`,
	Args: cobra.ExactArgs(2),
	RunE: runRetry,
}

func init() {
	rootCmd.AddCommand(retryCmd)

	retryCmd.Flags().StringVar(&backendMode, "backend", "", "fetch backend (simulated, llm, api)")
	retryCmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip trust verification of the result")
	retryCmd.Flags().Int64Var(&simSeed, "seed", 0, "seed for the simulated backend (0 = time-seeded)")
	retryCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	retryCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runRetry(cmd *cobra.Command, args []string) error {
	sessionID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}
	code := model.StateCode(strings.ToUpper(args[1]))
	if _, ok := model.Lookup(code); !ok {
		return fmt.Errorf("unknown state code %q", args[1])
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	path, err := archivePath(cfg)
	if err != nil {
		return err
	}
	archive, err := session.OpenArchive(path)
	if err != nil {
		return err
	}
	defer archive.Close()

	archived, err := archive.LoadSession(sessionID)
	if err != nil {
		return err
	}

	// Rehydrate under the original id so the scheduler can address it.
	store := session.NewMemoryStore()
	store.Restore(archived)

	sched, err := buildScheduler(cfg, store)
	if err != nil {
		return err
	}

	entry, err := sched.Retry(context.Background(), sessionID, code)
	if err != nil {
		return fmt.Errorf("retry %s: %w", code, err)
	}
	if err := archive.UpdateResult(sessionID, code, entry); err != nil {
		return fmt.Errorf("update archive: %w", err)
	}

	j, _ := model.Lookup(code)
	if entry.OK() {
		st := entry.Statute
		fmt.Printf("%s (%s): %s\n", j.Name, st.Trust, st.Citation)
		if st.Excerpt != "" {
			fmt.Printf("  %s\n", st.Excerpt)
		}
		fmt.Printf("  %s\n", st.SourceURL)
		return nil
	}

	fmt.Printf("%s: still failing: %s\n", j.Name, entry.Failure.Message)
	for _, s := range entry.Failure.Suggestions {
		fmt.Printf("  try: %s\n", s)
	}
	return nil
}
