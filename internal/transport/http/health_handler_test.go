package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calciumcli/internal/shared/testutil"
	"calciumcli/pkg/contracts"
)

type stubClients struct{ n int }

func (s stubClients) ClientCount() int { return s.n }
func (s stubClients) Running() bool    { return true }

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name    string
		clients ClientCounter
		wantWS  bool
		wantN   int
	}{
		{name: "with hub", clients: stubClients{n: 3}, wantWS: true, wantN: 3},
		{name: "without hub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.clients, logger)

			rec := httptest.NewRecorder()
			h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, contracts.Version, resp.Version)
			assert.Equal(t, tt.wantWS, resp.WebSocket.Running)
			assert.Equal(t, tt.wantN, resp.WebSocket.Clients)
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(nil, logger)

	rec := httptest.NewRecorder()
	h.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var info contracts.VersionInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, contracts.Version, info.Version)
	assert.Equal(t, contracts.ReportFormatVersion, info.ReportFormat)
}
