package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

func newBatchFixture() *BatchService {
	loaders := &stubLoaders{decks: map[string]*domain.Deck{
		"a.json": fullDeck(),
		"b.json": weatherDeck(),
		"c.json": {},
	}}
	return NewBatchService(newTestEvaluation(EvaluationDeps{Loaders: loaders}, fastSettings()))
}

func TestBatchService_Run(t *testing.T) {
	svc := newBatchFixture()

	summary, err := svc.Run(context.Background(), []string{"a.json", "b.json", "c.json", "d.pdf"}, domain.BatchOptions{
		Parallelism: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Rows, 4)

	for i, row := range summary.Rows {
		assert.Equal(t, i+1, row.Index, "rows keep input order")
	}
	assert.Equal(t, domain.BatchStatusOK, summary.Rows[0].Status)
	assert.NotEmpty(t, summary.Rows[0].ReportID)
	assert.Equal(t, 6, summary.Rows[0].Covered+summary.Rows[0].Partial+summary.Rows[0].NotCovered)

	assert.Equal(t, domain.BatchStatusFailed, summary.Rows[2].Status)
	assert.Contains(t, summary.Rows[2].Error, domain.ErrIngestionEmpty.Error())
	assert.Equal(t, domain.BatchStatusFailed, summary.Rows[3].Status)

	want := float64(summary.Rows[0].TotalScore+summary.Rows[1].TotalScore) / 2
	assert.InDelta(t, want, summary.AvgScore, 0.01)
}

func TestBatchService_Run_Empty(t *testing.T) {
	summary, err := newBatchFixture().Run(context.Background(), nil, domain.BatchOptions{})

	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.AvgScore)
	assert.Empty(t, summary.Rows)
}

func TestBatchService_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newBatchFixture().Run(ctx, []string{"a.json"}, domain.BatchOptions{Parallelism: 1})

	assert.Nil(t, summary)
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
}

func TestWriteBatchCSV(t *testing.T) {
	summary := &domain.BatchSummary{Rows: []domain.BatchRow{
		{Index: 1, File: "a.json", Status: domain.BatchStatusOK, ElapsedSec: 1.5, TotalScore: 72,
			Covered: 3, Partial: 2, NotCovered: 1, ReportID: "r1"},
		{Index: 2, File: "b,c.json", Status: domain.BatchStatusFailed, Error: "deck has no slides"},
	}}
	var buf bytes.Buffer

	require.NoError(t, WriteBatchCSV(&buf, summary))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, batchCSVHeader, records[0])
	assert.Equal(t, []string{"1", "a.json", "ok", "1.50", "72", "3", "2", "1", "r1", ""}, records[1])
	assert.Equal(t, "b,c.json", records[2][1])
	assert.Equal(t, "deck has no slides", records[2][9])
}

func TestWriteBatchJSON(t *testing.T) {
	summary := &domain.BatchSummary{Total: 1, Succeeded: 1, AvgScore: 72, Rows: []domain.BatchRow{
		{Index: 1, File: "a.json", Status: domain.BatchStatusOK, TotalScore: 72},
	}}
	var buf bytes.Buffer

	require.NoError(t, WriteBatchJSON(&buf, summary))

	var decoded domain.BatchSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *summary, decoded)
}
