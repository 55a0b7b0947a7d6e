package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/polemica/internal/model"
)

// Checker produces a controversy report for one name
type Checker interface {
	Check(ctx context.Context, name string) (*model.ControversyReport, error)
}

// CheckJob checks a single name
type CheckJob struct {
	Name    string
	Checker Checker
}

// Execute runs the check
func (j *CheckJob) Execute(ctx context.Context) *CheckResult {
	report, err := j.Checker.Check(ctx, j.Name)
	if err != nil {
		return &CheckResult{Name: j.Name, Error: err}
	}
	return &CheckResult{Name: j.Name, Report: report}
}

// CheckResult is the outcome of a check job
type CheckResult struct {
	Name   string
	Report *model.ControversyReport
	Error  error
}

// BatchProcessor checks multiple names concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessNames checks every name and returns results in input order
func (b *BatchProcessor) ProcessNames(ctx context.Context, names []string) []*CheckResult {
	if len(names) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool[*CheckResult](ctx, b.concurrency)
	pool.Start()

	for _, name := range names {
		pool.Submit(&CheckJob{Name: name, Checker: b.checker})
	}

	finished := pool.Wait()
	if len(finished) == len(names) {
		return finished
	}

	// Cancelled before every name ran; report the rest as skipped
	byName := make(map[string]*CheckResult, len(finished))
	for _, r := range finished {
		byName[r.Name] = r
	}
	cause := ctx.Err()
	if cause == nil {
		cause = context.Canceled
	}
	results := make([]*CheckResult, len(names))
	for i, name := range names {
		if r, ok := byName[name]; ok {
			results[i] = r
			continue
		}
		results[i] = &CheckResult{Name: name, Error: fmt.Errorf("skipped: %w", cause)}
	}
	return results
}

// ProcessFile reads names from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	names, err := ReadNamesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}

	return b.ProcessNames(ctx, names), nil
}

// ReadNamesFromFile reads names from a file, one per line. Blank lines and
// lines starting with # are skipped, duplicates are dropped.
func ReadNamesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var names []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			names = append(names, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return names, nil
}
