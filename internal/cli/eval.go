package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/egvia/egvia/internal/eval"
	"github.com/spf13/cobra"
)

var (
	evalBaseURL     string
	evalData        string
	evalTimeout     time.Duration
	evalRetries     int
	evalConcurrency int
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Replay a fixed case dataset against a running server",
	Long: `Eval loads a JSONL dataset of interpretation cases, posts each one to
a running server, and applies deterministic checks to every response:
contract shape, trace invariants, expected abstention, and absence of
treatment language in the draft.

The run exits non-zero when any case fails or the backend is
unreachable.

Example:
  egvia eval --data cases.jsonl
  egvia eval --data cases.jsonl --base-url http://localhost:9000 --concurrency 4`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalBaseURL, "base-url", "http://127.0.0.1:8000", "base URL of the running server")
	evalCmd.Flags().StringVar(&evalData, "data", "", "path to the JSONL case dataset (required)")
	evalCmd.Flags().DurationVar(&evalTimeout, "timeout", 30*time.Second, "per-request timeout")
	evalCmd.Flags().IntVar(&evalRetries, "retries", 1, "additional attempts after a transport error")
	evalCmd.Flags().IntVar(&evalConcurrency, "concurrency", 1, "number of cases to run in parallel")
	_ = evalCmd.MarkFlagRequired("data")
}

// exitCodeError carries a process exit code through cobra's error return
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }

func (e *exitCodeError) Unwrap() error { return e.err }

// ExitCode maps an Execute error onto the process exit code. Check
// failures exit 1; dataset and backend availability problems exit 2.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return 1
}

func runEval(cmd *cobra.Command, args []string) error {
	cases, err := eval.LoadCases(evalData)
	if err != nil {
		return &exitCodeError{code: 2, err: err}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Loaded %d case(s) from %s\n", len(cases), evalData)
		fmt.Fprintf(os.Stderr, "Target: %s\n\n", evalBaseURL)
	}

	runner := eval.NewRunner(evalBaseURL, evalTimeout, evalRetries, evalConcurrency)
	results, err := runner.Run(context.Background(), cases)
	if err != nil {
		return &exitCodeError{code: 2, err: err}
	}

	passed := 0
	for _, res := range results {
		if res.Passed {
			passed++
			fmt.Printf("[PASS] %s\n", res.CaseID)
			continue
		}
		fmt.Printf("[FAIL] %s\n", res.CaseID)
		for _, msg := range res.Errors {
			fmt.Printf("       - %s\n", msg)
		}
	}

	fmt.Printf("\n%d/%d cases passed\n", passed, len(results))
	if passed != len(results) {
		return fmt.Errorf("%d case(s) failed", len(results)-passed)
	}
	return nil
}
