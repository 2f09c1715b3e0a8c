package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/deckscore/internal/core/domain"
	"github.com/custodia-labs/deckscore/internal/core/ports/driving"
	"github.com/custodia-labs/deckscore/internal/logger"
	"github.com/custodia-labs/deckscore/internal/textutil"
)

// Ensure BatchService implements the interface.
var _ driving.BatchService = (*BatchService)(nil)

// BatchService evaluates many decks with bounded parallelism.
type BatchService struct {
	evaluator driving.EvaluationService
}

// NewBatchService creates a batch service.
func NewBatchService(evaluator driving.EvaluationService) *BatchService {
	return &BatchService{evaluator: evaluator}
}

// Run evaluates every path. A failing deck becomes a failed row; only
// cancellation stops the batch.
func (s *BatchService) Run(ctx context.Context, paths []string, opts domain.BatchOptions) (*domain.BatchSummary, error) {
	logger.Section("Batch")
	rows := make([]domain.BatchRow, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Parallelism))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = s.runOne(gctx, i+1, path, opts.Evaluate)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	summary := &domain.BatchSummary{Total: len(rows), Rows: rows}
	scoreSum := 0
	for _, r := range rows {
		if r.Status == domain.BatchStatusOK {
			summary.Succeeded++
			scoreSum += r.TotalScore
		} else {
			summary.Failed++
		}
	}
	if summary.Succeeded > 0 {
		summary.AvgScore = textutil.Round2(float64(scoreSum) / float64(summary.Succeeded))
	}
	logger.Info("Batch finished: %d ok, %d failed", summary.Succeeded, summary.Failed)
	return summary, nil
}

func (s *BatchService) runOne(ctx context.Context, index int, path string, opts domain.EvaluateOptions) domain.BatchRow {
	start := time.Now()
	row := domain.BatchRow{Index: index, File: path, Status: domain.BatchStatusFailed}

	report, err := s.evaluator.EvaluateFile(ctx, path, opts)
	row.ElapsedSec = textutil.Round2(time.Since(start).Seconds())
	if err != nil {
		logger.Warn("Batch %d: %s failed: %v", index, path, err)
		row.Error = err.Error()
		return row
	}

	row.Status = domain.BatchStatusOK
	row.ReportID = report.ID
	row.TotalScore = report.DeckScore.TotalScore
	row.Covered, row.Partial, row.NotCovered = report.CoverageCounts()
	return row
}

// batchCSVHeader is the column order of WriteBatchCSV.
var batchCSVHeader = []string{
	"index", "file", "status", "elapsed_sec", "total_score",
	"covered_groups", "partial_groups", "not_covered_groups", "report_id", "error",
}

// WriteBatchCSV writes one CSV row per batch row, with a header.
func WriteBatchCSV(w io.Writer, summary *domain.BatchSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(batchCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range summary.Rows {
		record := []string{
			strconv.Itoa(r.Index),
			r.File,
			r.Status,
			strconv.FormatFloat(r.ElapsedSec, 'f', 2, 64),
			strconv.Itoa(r.TotalScore),
			strconv.Itoa(r.Covered),
			strconv.Itoa(r.Partial),
			strconv.Itoa(r.NotCovered),
			r.ReportID,
			r.Error,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBatchJSON writes the summary as indented JSON.
func WriteBatchJSON(w io.Writer, summary *domain.BatchSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("write batch json: %w", err)
	}
	return nil
}
