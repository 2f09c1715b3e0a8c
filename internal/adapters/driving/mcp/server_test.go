package mcp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil ports returns error", func(t *testing.T) {
		server, err := NewServer(nil, "1.0.0")
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingEvaluationService)
	})

	t.Run("nil evaluation service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{}, "1.0.0")
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingEvaluationService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Evaluation: &mockEvaluationService{}}, "")
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("evaluation only is valid", func(t *testing.T) {
		ports := &Ports{Evaluation: &mockEvaluationService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Evaluation: &mockEvaluationService{},
			Reports:    &mockReportService{},
			Rubrics:    &mockRubricService{},
			Metrics:    http.NotFoundHandler(),
		}
		assert.NoError(t, ports.Validate())
	})
}

func TestServer_Handler_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("deckscore_evaluations_total 3\n"))
	})

	t.Run("serves metrics when configured", func(t *testing.T) {
		server, err := NewServer(&Ports{Evaluation: &mockEvaluationService{}, Metrics: metrics}, "1.0.0")
		require.NoError(t, err)

		ts := httptest.NewServer(server.Handler())
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("no metrics route without handler", func(t *testing.T) {
		server, err := NewServer(&Ports{Evaluation: &mockEvaluationService{}}, "1.0.0")
		require.NoError(t, err)

		ts := httptest.NewServer(server.Handler())
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	})
}
