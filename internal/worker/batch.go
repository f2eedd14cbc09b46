package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkarpov/signwise/internal/model"
	"github.com/mkarpov/signwise/internal/pipeline"
)

// Reviewer reviews one contract document
type Reviewer interface {
	Review(ctx context.Context, doc pipeline.Document, withDraft bool) (*model.Report, error)
}

// contractMIME maps supported file extensions to their MIME types
var contractMIME = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// DetectMIME returns the MIME type for a supported contract file, or the
// empty string for an unrecognized extension
func DetectMIME(path string) string {
	return contractMIME[strings.ToLower(filepath.Ext(path))]
}

// ReviewJob reviews a single contract file
type ReviewJob struct {
	Path      string
	Reviewer  Reviewer
	WithDraft bool
}

// Execute implements Job
func (j *ReviewJob) Execute(ctx context.Context) Result {
	data, err := os.ReadFile(j.Path)
	if err != nil {
		return &ReviewResult{Path: j.Path, Error: fmt.Errorf("read file: %w", err)}
	}

	doc := pipeline.Document{
		Name: filepath.Base(j.Path),
		Data: data,
		MIME: DetectMIME(j.Path),
	}

	report, err := j.Reviewer.Review(ctx, doc, j.WithDraft)
	return &ReviewResult{Path: j.Path, Report: report, Error: err}
}

// ReviewResult is the outcome of one file review
type ReviewResult struct {
	Path   string
	Report *model.Report
	Error  error
}

// GetError implements Result
func (r *ReviewResult) GetError() error {
	return r.Error
}

// BatchProcessor reviews multiple contract files concurrently
type BatchProcessor struct {
	reviewer    Reviewer
	concurrency int
	withDraft   bool
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(reviewer Reviewer, concurrency int, withDraft bool) *BatchProcessor {
	return &BatchProcessor{
		reviewer:    reviewer,
		concurrency: concurrency,
		withDraft:   withDraft,
	}
}

// ProcessFiles reviews the given files concurrently
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*ReviewResult {
	if len(paths) == 0 {
		return []*ReviewResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&ReviewJob{Path: path, Reviewer: b.reviewer, WithDraft: b.withDraft})
	}

	results := pool.Wait()

	reviews := make([]*ReviewResult, len(results))
	for i, result := range results {
		reviews[i] = result.(*ReviewResult)
	}
	return reviews
}

// ProcessDir reviews every supported contract file in a directory
func (b *BatchProcessor) ProcessDir(ctx context.Context, dir string) ([]*ReviewResult, error) {
	paths, err := ListContractFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return b.ProcessFiles(ctx, paths), nil
}

// ListContractFiles returns the supported contract files in a directory,
// sorted by name. Subdirectories are not descended into.
func ListContractFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := contractMIME[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
