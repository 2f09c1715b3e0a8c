package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

func TestReportListCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("report", "list", "--limit", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, ts.reports.gotLimit)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "rep-1")
	assert.Contains(t, out, "pitch.md")
	assert.Contains(t, out, "VC_DEMO")
}

func TestReportListCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("reports", "list", "--json")
	require.NoError(t, err)

	var summaries []domain.ReportSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 72, summaries[0].TotalScore)
}

func TestReportListCmd_Empty(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.reports.reports = map[string]*domain.Report{}

	out, err := executeCommand("report", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No reports stored.")
}

func TestReportShowCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("report", "show", "rep-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Score 72/100")
}

func TestReportShowCmd_NotFound(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("report", "show", "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReportDeleteCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("report", "delete", "rep-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"rep-1"}, ts.reports.deleted)
	assert.Contains(t, out, "Deleted report rep-1")
}

func TestReportCmd_NoService(t *testing.T) {
	SetServices(nil)

	for _, args := range [][]string{
		{"report", "list"},
		{"report", "show", "x"},
		{"report", "delete", "x"},
	} {
		_, err := executeCommand(args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report service not configured")
	}
}

func TestRubricCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	t.Run("list", func(t *testing.T) {
		out, err := executeCommand("rubric", "list")

		require.NoError(t, err)
		assert.Contains(t, out, "VC_DEMO")
		assert.Contains(t, out, "GOV_SUPPORT")
		assert.Contains(t, out, "STARTUP_CONTEST")
	})

	t.Run("show", func(t *testing.T) {
		out, err := executeCommand("rubric", "show", "vc_demo")

		require.NoError(t, err)
		assert.Contains(t, out, "VC demo day")
		assert.Contains(t, out, "Problem")
		assert.Contains(t, out, "* Pain point: Who hurts and how much")
	})

	t.Run("show json", func(t *testing.T) {
		out, err := executeCommand("rubric", "show", "VC_DEMO", "--json")
		require.NoError(t, err)

		var rubric domain.Rubric
		require.NoError(t, json.Unmarshal([]byte(out), &rubric))
		assert.Len(t, rubric.Groups, 1)
	})

	t.Run("unknown pitch type", func(t *testing.T) {
		_, err := executeCommand("rubric", "show", "SEED")

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}
