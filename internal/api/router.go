package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/middleware"
	"github.com/soaringjerry/Solace/internal/models"
	"github.com/soaringjerry/Solace/internal/services"
)

const maxBodyBytes = 64 << 10

// Deps are the services the router serves. Shares may be nil when no share
// secret is configured; the share routes then answer 404.
type Deps struct {
	Assessments *services.AssessmentService
	History     *services.HistoryService
	Exports     *services.ExportService
	Shares      *services.ShareService
	Subjects    *services.SubjectDataService
	Logger      *log.Logger
}

type Router struct {
	assessments *services.AssessmentService
	history     *services.HistoryService
	exports     *services.ExportService
	shares      *services.ShareService
	subjects    *services.SubjectDataService
	logger      *log.Logger
}

func NewRouter(d Deps) *Router {
	l := d.Logger
	if l == nil {
		l = log.Default()
	}
	return &Router{
		assessments: d.Assessments,
		history:     d.History,
		exports:     d.Exports,
		shares:      d.Shares,
		subjects:    d.Subjects,
		logger:      l.With("component", "api"),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/catalog", rt.handleCatalog)         // GET
	mux.HandleFunc("/api/sessions", rt.handleSessions)       // POST
	mux.HandleFunc("/api/sessions/", rt.handleSessionScoped) // GET /api/sessions/{id}, POST /api/sessions/{id}/{action}
	mux.HandleFunc("/api/history", rt.handleHistory)         // GET
	mux.HandleFunc("/api/history/", rt.handleHistoryScoped)  // GET entries|export, POST {id}/share
	mux.HandleFunc("/api/share/", rt.handleShare)            // GET /api/share/{token}
	mux.HandleFunc("/api/self/export", rt.handleSelfExport)  // GET
	mux.HandleFunc("/api/self/delete", rt.handleSelfDelete)  // POST
}

// RouteOf collapses ids in the path so the result is safe as a metrics label.
func RouteOf(r *http.Request) string {
	p := r.URL.Path
	switch {
	case strings.HasPrefix(p, "/api/sessions/"):
		parts := strings.Split(strings.TrimPrefix(p, "/api/sessions/"), "/")
		if len(parts) > 1 {
			return "/api/sessions/{id}/" + parts[1]
		}
		return "/api/sessions/{id}"
	case strings.HasPrefix(p, "/api/share/"):
		return "/api/share/{token}"
	case strings.HasPrefix(p, "/api/history/"):
		rest := strings.TrimPrefix(p, "/api/history/")
		if rest == "entries" || rest == "export" {
			return p
		}
		return "/api/history/{id}/share"
	case p == "/api/catalog", p == "/api/sessions", p == "/api/history",
		p == "/api/self/export", p == "/api/self/delete",
		p == "/health", p == "/version", p == "/metrics":
		return p
	}
	return "other"
}

type catalogQuestion struct {
	ID          string                    `json:"id"`
	Type        assessment.QuestionType   `json:"type"`
	Prompt      string                    `json:"prompt"`
	Config      assessment.QuestionConfig `json:"config"`
	Options     []services.OptionView     `json:"options,omitempty"`
	Condition   *assessment.Condition     `json:"condition,omitempty"`
	Conditional bool                      `json:"conditional"`
}

// GET /api/catalog?lang=xx
func (rt *Router) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	qs := rt.assessments.Catalog().Questions()
	out := make([]catalogQuestion, 0, len(qs))
	for _, q := range qs {
		cq := catalogQuestion{
			ID:          q.ID,
			Type:        q.Type,
			Prompt:      q.Prompt(locale),
			Config:      q.Config,
			Condition:   q.Condition,
			Conditional: q.Condition != nil || q.DependsOn != nil,
		}
		for _, o := range q.Config.Options {
			cq.Options = append(cq.Options, services.OptionView{ID: o.ID, Label: q.OptionLabel(o.ID, locale)})
		}
		out = append(out, cq)
	}
	writeJSON(w, http.StatusOK, map[string]any{"locale": locale, "questions": out})
}

// POST /api/sessions {subject_id}
func (rt *Router) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req services.StartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Locale = middleware.LocaleFromContext(r.Context())
	v, err := rt.assessments.Start(req)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// GET  /api/sessions/{id}
// POST /api/sessions/{id}/answer  {question_id, value}
// POST /api/sessions/{id}/nudge   {question_id, steps}
// POST /api/sessions/{id}/advance | retreat | abandon
func (rt *Router) handleSessionScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	id := parts[0]
	if id == "" || len(parts) > 2 {
		http.NotFound(w, r)
		return
	}
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		v, err := rt.assessments.View(id)
		rt.respond(w, v, err)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var (
		v   *services.SessionView
		err error
	)
	switch parts[1] {
	case "answer":
		var req struct {
			QuestionID string `json:"question_id"`
			Value      any    `json:"value"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		v, err = rt.assessments.Answer(id, req.QuestionID, req.Value)
	case "nudge":
		var req struct {
			QuestionID string `json:"question_id"`
			Steps      int    `json:"steps"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		v, err = rt.assessments.Nudge(id, req.QuestionID, req.Steps)
	case "advance":
		v, err = rt.assessments.Advance(id)
	case "retreat":
		v, err = rt.assessments.Retreat(id)
	case "abandon":
		v, err = rt.assessments.Abandon(id)
	default:
		http.NotFound(w, r)
		return
	}
	rt.respond(w, v, err)
}

// GET /api/history?subject_id=...&period=week|month|year
func (rt *Router) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	summary, err := rt.history.Summary(q.Get("subject_id"), q.Get("period"))
	rt.respond(w, summary, err)
}

// GET  /api/history/entries?subject_id=...
// GET  /api/history/export?subject_id=...&format=history|answers|xlsx
// POST /api/history/{id}/share {subject_id, ttl_hours}
func (rt *Router) handleHistoryScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/history/")
	switch rest {
	case "entries":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		stored, err := rt.history.Entries(r.URL.Query().Get("subject_id"))
		if err != nil {
			rt.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": models.HistoryEntries(stored)})
		return
	case "export":
		rt.handleExport(w, r)
		return
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "share" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if rt.shares == nil {
		http.NotFound(w, r)
		return
	}
	var req struct {
		SubjectID string  `json:"subject_id"`
		TTLHours  float64 `json:"ttl_hours"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	ttl := time.Duration(req.TTLHours * float64(time.Hour))
	tok, exp, err := rt.shares.Sign(req.SubjectID, parts[0], ttl)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token":      tok,
		"path":       "/api/share/" + tok,
		"expires_at": exp,
	})
}

func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	res, err := rt.exports.Export(services.ExportParams{SubjectID: q.Get("subject_id"), Format: q.Get("format")})
	if err != nil {
		rt.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	_, _ = w.Write(res.Data)
}

// GET /api/share/{token}
func (rt *Router) handleShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	tok := strings.TrimPrefix(r.URL.Path, "/api/share/")
	if tok == "" || strings.Contains(tok, "/") || rt.shares == nil {
		http.NotFound(w, r)
		return
	}
	res, err := rt.shares.Resolve(tok)
	rt.respond(w, res, err)
}

// GET /api/self/export?subject_id=...
func (rt *Router) handleSelfExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	out, err := rt.subjects.Export(r.URL.Query().Get("subject_id"))
	if err != nil {
		rt.writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=solace_self_export.json")
	writeJSON(w, http.StatusOK, out)
}

// POST /api/self/delete {subject_id}
func (rt *Router) handleSelfDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		SubjectID string `json:"subject_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := rt.subjects.Delete(req.SubjectID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": n})
}

func (rt *Router) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (rt *Router) writeError(w http.ResponseWriter, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		rt.logger.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, statusFor(se.Code), map[string]string{"error": se.Message, "code": string(se.Code)})
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
