package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/egvia/egvia/internal/worker"
)

// ErrBackendUnavailable means the backend could not be reached for at
// least one case even after retries; its results are not meaningful.
var ErrBackendUnavailable = errors.New("backend unavailable")

// CaseResult is the outcome of replaying one case
type CaseResult struct {
	CaseID string
	Passed bool
	Errors []string
}

// Runner posts eval cases to a running instance and checks the responses
type Runner struct {
	baseURL     string
	retries     int
	concurrency int
	client      *http.Client
}

// NewRunner creates a runner against baseURL. retries counts additional
// attempts after a transport error; concurrency bounds parallel cases.
func NewRunner(baseURL string, timeout time.Duration, retries, concurrency int) *Runner {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		baseURL:     strings.TrimRight(baseURL, "/"),
		retries:     retries,
		concurrency: concurrency,
		client:      &http.Client{Timeout: timeout},
	}
}

// caseJob adapts one case to the worker pool
type caseJob struct {
	runner *Runner
	index  int
	c      Case
}

// caseOutcome implements worker.Result
type caseOutcome struct {
	index       int
	result      CaseResult
	unavailable error
}

func (o caseOutcome) Err() error { return o.unavailable }

func (j caseJob) Execute(ctx context.Context) worker.Result {
	result, err := j.runner.evaluate(ctx, j.c)
	return caseOutcome{index: j.index, result: result, unavailable: err}
}

// Run replays all cases, preserving dataset order in the returned slice.
// It fails with ErrBackendUnavailable when any case could not reach the
// backend at all.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]CaseResult, error) {
	pool := worker.NewPool(ctx, r.concurrency)
	pool.Start()
	for i, c := range cases {
		pool.Submit(caseJob{runner: r, index: i, c: c})
	}

	outcomes := pool.Wait()
	sort.Slice(outcomes, func(a, b int) bool {
		return outcomes[a].(caseOutcome).index < outcomes[b].(caseOutcome).index
	})

	results := make([]CaseResult, 0, len(outcomes))
	for _, raw := range outcomes {
		outcome := raw.(caseOutcome)
		if outcome.unavailable != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, outcome.result.CaseID, outcome.unavailable)
		}
		results = append(results, outcome.result)
	}
	return results, nil
}

// evaluate posts one case and runs the deterministic checks
func (r *Runner) evaluate(ctx context.Context, c Case) (CaseResult, error) {
	status, body, err := r.postInterpret(ctx, c.Request)
	if err != nil {
		return CaseResult{CaseID: c.CaseID}, err
	}

	result := CaseResult{CaseID: c.CaseID}
	if status != http.StatusOK {
		detail := string(body)
		if len(detail) > 200 {
			detail = detail[:200]
		}
		result.Errors = []string{fmt.Sprintf("HTTP %d: %s", status, detail)}
		return result, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		result.Errors = []string{fmt.Sprintf("response is not valid JSON: %v", err)}
		return result, nil
	}
	if payload == nil {
		result.Errors = []string{"response JSON must be an object"}
		return result, nil
	}

	result.Errors = RunAllChecks(payload, c.ExpectedAbstain)
	result.Passed = len(result.Errors) == 0
	return result, nil
}

// postInterpret retries only transport errors; any HTTP response, even a
// failing status, is returned to the checks as-is
func (r *Runner) postInterpret(ctx context.Context, request map[string]any) (int, []byte, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := r.baseURL + "/v1/interpret"

	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return resp.StatusCode, body, nil
	}
	return 0, nil, lastErr
}
