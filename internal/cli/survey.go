package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"statescan/internal/backend"
	"statescan/internal/model"
	"statescan/internal/session"
	"statescan/internal/survey"
	"statescan/internal/verify"
)

var (
	backendMode string
	batchSize   int
	noVerify    bool
	simSeed     int64
	outJSON     string
	timeout     time.Duration
	llmProvider string
	llmModel    string
)

// surveyCmd represents the survey command
var surveyCmd = &cobra.Command{
	Use:   "survey <query>",
	Short: "Survey all fifty states for one legal question",
	Long: `Survey fans one natural-language legal question out across every US state:
- Normalize the query per jurisdiction (civil-law terminology for Louisiana)
- Fetch each state's statute concurrently in batches through the selected backend
- Verify each result's trust against official sources
- Stream per-state progress as results land; Ctrl-C cancels at the next batch

Example:
  statescan survey "data breach notification deadline"
  statescan survey "non-compete enforceability" --backend llm --llm-provider openai
  statescan survey "usury limit" --json survey.json --seed 42`,
	Args: cobra.ExactArgs(1),
	RunE: runSurvey,
}

func init() {
	rootCmd.AddCommand(surveyCmd)

	surveyCmd.Flags().StringVar(&backendMode, "backend", "", "fetch backend (simulated, llm, api)")
	surveyCmd.Flags().IntVar(&batchSize, "batch-size", 0, "states fetched concurrently per batch")
	surveyCmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip trust verification of results")
	surveyCmd.Flags().Int64Var(&simSeed, "seed", 0, "seed for the simulated backend (0 = time-seeded)")
	surveyCmd.Flags().StringVar(&outJSON, "json", "", "write the full session as JSON to this path")
	surveyCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall survey timeout")

	// LLM flags
	surveyCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	surveyCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runSurvey(cmd *cobra.Command, args []string) error {
	userQuery := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Query: %s\n", userQuery)
		fmt.Fprintf(os.Stderr, "Backend: %s\n", cfg.Backend)
		fmt.Fprintf(os.Stderr, "Batch size: %d\n", cfg.Survey.BatchSize)
		fmt.Fprintln(os.Stderr)
	}

	store := session.NewMemoryStore()
	sched, err := buildScheduler(cfg, store)
	if err != nil {
		return err
	}

	h, err := sched.Start(ctx, userQuery)
	if err != nil {
		return fmt.Errorf("start survey: %w", err)
	}

	// Ctrl-C cancels at the next batch boundary; the in-flight batch settles.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "Cancelling after the current batch...")
			h.Cancel()
		case <-h.Done():
		}
	}()

	events, unsubscribe := store.Subscribe(h.SessionID)
	defer unsubscribe()
	go func() {
		for e := range events {
			if e.Entry == nil {
				continue
			}
			printProgress(e)
		}
	}()

	<-h.Done()
	if err := h.Err(); err != nil {
		return fmt.Errorf("survey failed: %w", err)
	}

	sess, err := store.Get(h.SessionID)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	if outJSON != "" {
		if err := writeSessionJSON(sess, outJSON); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", outJSON)
		}
	} else {
		printSummary(sess)
	}

	if cfg.Archive.Enabled {
		if id, err := archiveSession(cfg, sess); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: archive failed: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "Archived as session %d\n", id)
		}
	}
	return nil
}

// buildConfig layers flag values over env and the defaults.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if backendMode != "" {
		cfg.Backend = backendMode
	}
	if batchSize > 0 {
		cfg.Survey.BatchSize = batchSize
	}
	if noVerify {
		cfg.Survey.AutoVerify = false
	}
	if simSeed != 0 {
		cfg.Simulated.Seed = simSeed
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}

	if cfg.Backend == "llm" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}
	if cfg.Backend == "api" {
		if key := os.Getenv("STATESCAN_API_KEY"); key != "" {
			cfg.API.APIKey = key
		}
		if base := os.Getenv("STATESCAN_API_BASE_URL"); base != "" {
			cfg.API.BaseURL = base
		}
	}
	return cfg, nil
}

// buildScheduler assembles the survey scheduler from a config snapshot.
func buildScheduler(cfg *model.Config, store session.Store) (*survey.Scheduler, error) {
	b, err := backend.New(cfg)
	if err != nil {
		return nil, err
	}

	var verifier *verify.Verifier
	if cfg.Survey.AutoVerify {
		verifier = verify.FromConfig(cfg.Verify, cfg.HTTP, cfg.Simulated.Seed)
	}

	return survey.New(survey.Options{
		Store:         store,
		Backend:       b,
		Verifier:      verifier,
		BatchSize:     cfg.Survey.BatchSize,
		MaxConcurrent: cfg.Survey.MaxConcurrentSurveys,
	}), nil
}

func printProgress(e session.Event) {
	if e.Entry.OK() {
		st := e.Entry.Statute
		fmt.Fprintf(os.Stderr, "  %s  %-10s %s\n", e.State, st.Trust, st.Citation)
		return
	}
	fmt.Fprintf(os.Stderr, "  %s  FAILED     %s\n", e.State, e.Entry.Failure.Message)
}

func printSummary(sess *model.Session) {
	fmt.Printf("Session %d: %s\n", sess.ID, sess.Status)
	fmt.Printf("Query: %s\n\n", sess.Query)

	for _, code := range model.Codes {
		entry, ok := sess.Results[code]
		if !ok {
			continue
		}
		j, _ := model.Lookup(code)
		if entry.OK() {
			st := entry.Statute
			fmt.Printf("%-15s %-10s %3d%%  %s\n", j.Name, st.Trust, st.Confidence, st.Citation)
		} else {
			fmt.Printf("%-15s %-10s       %s\n", j.Name, "failed", entry.Failure.Message)
			for _, s := range entry.Failure.Suggestions {
				fmt.Printf("%-15s   try: %s\n", "", s)
			}
		}
	}

	fmt.Println()
	if sess.Status == model.StatusCancelled {
		fmt.Printf("Cancelled with %d of %d states resolved\n", len(sess.Results), len(model.Codes))
		return
	}
	fmt.Printf("Succeeded: %d  Failed: %d", sess.SuccessCount, sess.ErrorCount)
	if sess.CompletedAt != nil {
		fmt.Printf("  (%s)", sess.CompletedAt.Sub(sess.StartedAt).Round(time.Millisecond))
	}
	fmt.Println()
}

func writeSessionJSON(sess *model.Session, path string) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// archivePath resolves the sqlite archive location.
func archivePath(cfg *model.Config) (string, error) {
	if strings.TrimSpace(cfg.Archive.Path) != "" {
		return cfg.Archive.Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return home + "/.statescan/sessions.db", nil
}

func archiveSession(cfg *model.Config, sess *model.Session) (int64, error) {
	path, err := archivePath(cfg)
	if err != nil {
		return 0, err
	}
	archive, err := session.OpenArchive(path)
	if err != nil {
		return 0, err
	}
	defer archive.Close()
	return archive.SaveSession(sess)
}
