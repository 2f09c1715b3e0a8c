package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

func TestReportService(t *testing.T) {
	ctx := context.Background()
	store := newStubReportStore()
	report := &domain.Report{ID: "r1", PitchType: domain.PitchTypeVCDemo, Meta: domain.ReportMeta{Filename: "acme.pdf"}}
	require.NoError(t, store.Save(ctx, report))
	svc := NewReportService(store)

	got, err := svc.Get(ctx, " r1 ")
	require.NoError(t, err)
	assert.Equal(t, report, got)

	list, err := svc.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "acme.pdf", list[0].Filename)

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Delete(ctx, "  "), domain.ErrInvalidInput)

	require.NoError(t, svc.Delete(ctx, "r1"))
	_, err = svc.Get(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRubricService(t *testing.T) {
	svc := NewRubricService(newStubRubricStore())

	rubric, err := svc.Get("government")
	require.NoError(t, err)
	assert.Equal(t, domain.PitchTypeGovSupport, rubric.PitchType)

	_, err = svc.Get("seed")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, domain.AllPitchTypes(), svc.PitchTypes())
}
