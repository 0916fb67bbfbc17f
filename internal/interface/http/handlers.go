package http

import (
	"mime"
	"net/http"
	"strings"

	"github.com/alem-hub/roster-insights/internal/application/command"
	"github.com/alem-hub/roster-insights/internal/application/query"
	"github.com/alem-hub/roster-insights/internal/infrastructure/ingest"
	"github.com/alem-hub/roster-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "roster-insights",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":     "/health",
			"reports":    "/api/v1/reports",
			"report":     "/api/v1/reports/{id}",
			"statistics": "/api/v1/reports/{id}/statistics",
		},
	}, nil)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status, nil)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": s.config.Version,
	}, nil)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		if status := s.deps.HealthChecker.Check(r.Context()); !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			}, nil)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"}, nil)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCreateReport handles POST /api/v1/reports. The body is a JSON table
// or CSV, chosen by Content-Type. ?fresh=true bypasses the fingerprint lookup.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	if s.deps.AnalyzeRoster == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Analysis is not configured")
		return
	}

	body := r.Body
	if s.config.MaxUploadBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	}

	format := ingest.FormatFromContentType(r.Header.Get("Content-Type"))
	table, err := ingest.Decode(format, body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.deps.AnalyzeRoster.Handle(r.Context(), command.AnalyzeRosterCommand{
		Table:     table,
		SkipCache: queryBool(r, "fresh"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Cached {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/api/v1/reports/"+res.Report.ID.String())
	writeJSON(w, r, status, res.Report, &ResponseMeta{Cached: res.Cached})
}

// handleGetReport handles GET /api/v1/reports/{id}.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetReport == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Reports are not configured")
		return
	}

	res, err := s.deps.GetReport.Handle(r.Context(), query.GetReportQuery{ReportID: r.PathValue("id")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res.Report, &ResponseMeta{Cached: res.FromCache})
}

// handleGetTable serves one flat report table under
// GET /api/v1/reports/{id}/<kind>. It answers with CSV when asked via Accept
// or ?format=csv.
func (s *Server) handleGetTable(kind query.TableKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.GetReport == nil {
			writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Reports are not configured")
			return
		}

		id := r.PathValue("id")
		table, err := s.deps.GetReport.GetTable(r.Context(), query.GetReportQuery{ReportID: id}, kind)
		if err != nil {
			writeError(w, r, err)
			return
		}

		if !wantsCSV(r) {
			writeJSON(w, r, http.StatusOK, table, nil)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+string(kind)+`-`+id+`.csv"`)
		w.WriteHeader(http.StatusOK)
		if err := ingest.EncodeCSV(w, table); err != nil {
			logger.FromContext(r.Context()).Warn("table export interrupted",
				logger.String("table", string(kind)), logger.ReportID(id), logger.Err(err))
		}
	}
}

func wantsCSV(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		return true
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "text/csv" {
			return true
		}
	}
	return false
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
