package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/alem-hub/roster-insights/internal/application/command"
	"github.com/alem-hub/roster-insights/internal/application/query"
	"github.com/alem-hub/roster-insights/internal/domain/report"
	"github.com/alem-hub/roster-insights/internal/domain/shared"
	"github.com/alem-hub/roster-insights/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/roster-insights/internal/interface/http/handlers"
	"github.com/alem-hub/roster-insights/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const rosterCSV = "ΟΝΟΜΑ,ΤΜΗΜΑ,ΦΥΛΟ,ΦΙΛΟΙ,ΣΥΓΚΡΟΥΣΗ\n" +
	"Γιώργος,Α1,Α,Άννα,Νίκος\n" +
	"Άννα,Α2,Κ,Γιώργος,\n" +
	"Νίκος,Α1,Α,,\n"

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	Meta      *ResponseMeta   `json:"meta"`
	RequestID string          `json:"request_id"`
}

func newTestServer(t *testing.T, gate *handlers.PasswordGate, checker handlers.HealthChecker) *Server {
	t.Helper()

	store := memory.NewReportStore()
	cfg := DefaultConfig()
	cfg.MaxUploadBytes = 4 << 10

	srv := NewServer(cfg, Dependencies{
		AnalyzeRoster: command.NewAnalyzeRosterHandler(store, nil, logger.Nop(), command.DefaultAnalyzeRosterHandlerConfig()),
		GetReport:     query.NewGetReportHandler(store, nil, time.Minute, logger.Nop()),
		Logger:        logger.Nop(),
		HealthChecker: checker,
		Gate:          gate,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func createReport(t *testing.T, h http.Handler, body, contentType string) report.Report {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)

	rec, env := do(t, h, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var rep report.Report
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	return rep
}

func TestCreateAndFetchReport(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	rep := createReport(t, h, rosterCSV, "text/csv")
	assert.Equal(t, 3, rep.RowCount)
	require.Len(t, rep.BrokenPairs, 1)
	assert.Equal(t, "Γιώργος", rep.BrokenPairs[0].A)
	assert.Equal(t, "Άννα", rep.BrokenPairs[0].B)
	require.Len(t, rep.ConflictingStudents, 1)
	assert.Equal(t, "Νίκος", rep.ConflictingStudents[0].Names)

	rec, env := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+rep.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)

	var fetched report.Report
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, rep.ID, fetched.ID)
	assert.Equal(t, rep.Fingerprint, fetched.Fingerprint)
}

func TestCreateReport_SameTableReturnsCachedReport(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	first := createReport(t, h, rosterCSV, "text/csv")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(rosterCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec, env := do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Meta.Cached)

	var again report.Report
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.Equal(t, first.ID, again.ID)

	// fresh=true forces a new analysis
	req = httptest.NewRequest(http.MethodPost, "/api/v1/reports?fresh=true", strings.NewReader(rosterCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec, _ = do(t, h, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateReport_JSONBody(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	body := `{"headers":["ΟΝΟΜΑ","ΒΗΜΑ6_ΣΕΝΑΡΙΟ_1"],"rows":[["Άννα","Β1"],["Νίκος","Β2"]]}`
	rep := createReport(t, h, body, "application/json")
	assert.Equal(t, "ΒΗΜΑ6_ΣΕΝΑΡΙΟ_1", rep.ScenarioColumn)
	assert.Equal(t, 2, rep.ClassCount())
}

func TestCreateReport_Errors(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
		wantCode    string
	}{
		{"empty body", "", "application/json", http.StatusBadRequest, "invalid_input"},
		{"malformed json", `{"headers":`, "application/json", http.StatusBadRequest, "invalid_input"},
		{"header only", "ΟΝΟΜΑ,ΤΜΗΜΑ\n", "text/csv", http.StatusBadRequest, "invalid_input"},
		{
			"ambiguous scenario",
			"ΟΝΟΜΑ,ΒΗΜΑ6_ΣΕΝΑΡΙΟ_1,ΒΗΜΑ6_ΣΕΝΑΡΙΟ_2\nΆννα,Α1,Α2\n",
			"text/csv",
			http.StatusBadRequest,
			"invalid_input",
		},
		{"too large", "ΟΝΟΜΑ\n" + strings.Repeat("Άννα\n", 2000), "text/csv", http.StatusRequestEntityTooLarge, "too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			rec, env := do(t, h, req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestGetReport_Errors(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	rec, env := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", env.Error.Code)

	rec, env = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/6f1c1f52-4c1e-4a53-9d0b-3b8c2b1f0e11", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestGetStatistics(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()
	rep := createReport(t, h, rosterCSV, "text/csv")
	path := "/api/v1/reports/" + rep.ID.String() + "/statistics"

	t.Run("json", func(t *testing.T) {
		rec, env := do(t, h, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var flat struct {
			Headers []string   `json:"headers"`
			Rows    [][]string `json:"rows"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &flat))
		assert.Equal(t, "ΤΜΗΜΑ", flat.Headers[0])
		assert.Equal(t, "ΣΥΝΟΛΟ ΜΑΘΗΤΩΝ", flat.Headers[len(flat.Headers)-1])
		require.Len(t, flat.Rows, 2)
		assert.Equal(t, "Α1", flat.Rows[0][0])
	})

	t.Run("csv via accept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept", "text/html, text/csv;q=0.9")
		rec, _ := do(t, h, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "ΣΠΑΣΜΕΝΗ ΦΙΛΙΑ")
	})

	t.Run("csv via query", func(t *testing.T) {
		rec, _ := do(t, h, httptest.NewRequest(http.MethodGet, path+"?format=csv", nil))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), rep.ID.String())
	})
}

func TestGetDetailTables(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()
	rep := createReport(t, h, rosterCSV, "text/csv")
	base := "/api/v1/reports/" + rep.ID.String()

	t.Run("conflicts csv", func(t *testing.T) {
		rec, _ := do(t, h, httptest.NewRequest(http.MethodGet, base+"/conflicts?format=csv", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="conflicts-`)

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], "ΣΥΓΚΡΟΥΣΗ_ΠΛΗΘΟΣ")
		assert.Contains(t, lines[1], "Γιώργος")
		assert.Contains(t, lines[1], "Νίκος")
	})

	t.Run("broken pairs json", func(t *testing.T) {
		rec, env := do(t, h, httptest.NewRequest(http.MethodGet, base+"/broken-pairs", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var flat struct {
			Headers []string   `json:"headers"`
			Rows    [][]string `json:"rows"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &flat))
		assert.Equal(t, []string{"A", "A_ΤΜΗΜΑ", "B", "B_ΤΜΗΜΑ"}, flat.Headers)
		assert.Equal(t, [][]string{{"Γιώργος", "Α1", "Άννα", "Α2"}}, flat.Rows)
	})

	t.Run("unknown report", func(t *testing.T) {
		rec, _ := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/reports/6f1c1f52-4c1e-4a53-9d0b-3b8c2b1f0e11/conflicts", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPasswordGate(t *testing.T) {
	hash, err := handlers.HashPassword("s3cret")
	require.NoError(t, err)
	gate, err := handlers.NewPasswordGate(hash)
	require.NoError(t, err)

	h := newTestServer(t, gate, nil).Handler()
	id := "/api/v1/reports/6f1c1f52-4c1e-4a53-9d0b-3b8c2b1f0e11"

	rec, env := do(t, h, httptest.NewRequest(http.MethodGet, id, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, id, nil)
	req.Header.Set(handlers.PasswordHeader, "wrong")
	rec, _ = do(t, h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, id, nil)
	req.Header.Set(handlers.PasswordHeader, "s3cret")
	rec, _ = do(t, h, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, id, nil)
	req.SetBasicAuth("secretary", "s3cret")
	rec, _ = do(t, h, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Probes stay open.
	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddCheck("database", func(context.Context) error { return nil })
	h := newTestServer(t, nil, checker).Handler()

	rec, _ := do(t, h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	checker.AddCheck("cache", func(context.Context) error { return errors.New("dial tcp: refused") })

	rec, env := do(t, h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.Checks["cache"].Healthy)
	assert.True(t, status.Checks["database"].Healthy)

	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	h := newTestServer(t, nil, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec, env := do(t, h, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-42", env.RequestID)
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{shared.ErrReportNotFound, http.StatusNotFound},
		{shared.ErrInvalidReportID, http.StatusBadRequest},
		{shared.ErrRosterTooLarge, http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := errorStatus(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}
