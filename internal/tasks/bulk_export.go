package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/reeladmin/internal/formatter"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// ExportSource fetches one resource collection as a table plus the raw records for JSON output.
type ExportSource struct {
	Name  string
	Fetch func(ctx context.Context) (formatter.Table, any, error)
}

// BulkExportOpts contains configuration for bulk exports.
type BulkExportOpts struct {
	Format     formatter.Format
	OutputDir  string  // Base output directory (default: reeladmin_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 4, max 8)
	RateLimit  float64 // Fetches per second (default: 5)
}

// ResourceExportResult is the outcome for one source.
type ResourceExportResult struct {
	Name    string `json:"name"`
	File    string `json:"file,omitempty"`
	Records int    `json:"records"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkExportResult summarises a [BulkExport] run.
type BulkExportResult struct {
	Format          formatter.Format       `json:"format"`
	OutputDirectory string                 `json:"output_directory"`
	ManifestPath    string                 `json:"-"`
	Total           int                    `json:"total"`
	Successful      int                    `json:"successful"`
	Failed          int                    `json:"failed"`
	CompletedAt     time.Time              `json:"completed_at"`
	Results         []ResourceExportResult `json:"results"`
}

// BulkExport fetches every source with a worker pool and writes one file per source plus export_manifest.json.
//
// Fetches are throttled by a shared limiter. A failing source is reported in the result and does not stop the rest.
// Results are sorted by source name.
func BulkExport(ctx context.Context, prog chan<- Update, sources []ExportSource, opts BulkExportOpts) (*BulkExportResult, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: nothing to export", shared.ErrMissingArgument)
	}
	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("reeladmin_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	opts.NumWorkers = min(opts.NumWorkers, 8, len(sources))
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		Total:           len(sources),
		Results:         make([]ResourceExportResult, 0, len(sources)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan ExportSource, len(sources))
	results := make(chan ResourceExportResult, len(sources))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go exportWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	for i, src := range sources {
		sendUpdate(prog, exportStartedUpdate(i+1, len(sources), src.Name))
		jobs <- src
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.Successful++
			sendUpdate(prog, exportCompletedUpdate(completed, len(sources), res.Name, res.Records))
		} else {
			result.Failed++
			sendUpdate(prog, exportFailedUpdate(completed, len(sources), res.Name, fmt.Errorf("%s", res.Error)))
		}
	}

	slices.SortFunc(result.Results, func(a, b ResourceExportResult) int { return cmp.Compare(a.Name, b.Name) })
	result.CompletedAt = time.Now().UTC()

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker drains jobs until the channel closes. Once ctx is done remaining jobs are reported as failed.
func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan ExportSource,
	results chan<- ResourceExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for src := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- ResourceExportResult{Name: src.Name, Error: err.Error()}
			continue
		}
		results <- exportSource(ctx, src, opts)
	}
}

func exportSource(ctx context.Context, src ExportSource, opts BulkExportOpts) ResourceExportResult {
	result := ResourceExportResult{Name: src.Name}

	table, records, err := src.Fetch(ctx)
	if err != nil {
		result.Error = fmt.Sprintf("fetch failed: %v", err)
		return result
	}

	path := filepath.Join(opts.OutputDir, src.Name+opts.Format.Extension())
	if _, err := formatter.WriteExport(path, opts.Format, table, records); err != nil {
		result.Error = err.Error()
		return result
	}

	result.File = path
	result.Records = len(table.Rows)
	result.Success = true
	return result
}
