package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"cloudexpense/internal/core"
	"cloudexpense/internal/session"
	"cloudexpense/internal/textract"
)

const maxUploadBytes = 10 << 20 // 10MB receipt uploads are plenty

// handleHealth performs basic liveness check
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleReady verifies the spending store answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.store.Load(ctx); err != nil {
		slog.ErrorContext(ctx, "Readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleUploadReceipt stores the uploaded receipt in the object store and
// immediately fetches the most recent analysis result under the
// configured prefix, caching it for session building.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if s.objects == nil {
		writeError(w, http.StatusServiceUnavailable, "object store not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		slog.ErrorContext(r.Context(), "Missing upload file", "error", err)
		writeError(w, http.StatusBadRequest, "missing 'file' form field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed reading upload", "error", err)
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	key := filepath.Base(header.Filename)
	if err := s.objects.Put(r.Context(), key, data); err != nil {
		slog.ErrorContext(r.Context(), "Failed to upload receipt",
			"error", err, "key", key)
		writeError(w, http.StatusBadGateway, "failed to upload receipt")
		return
	}

	result, err := s.objects.LatestJSON(r.Context(), s.resultPrefix)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to fetch analysis result",
			"error", err, "prefix", s.resultPrefix)
		writeError(w, http.StatusBadGateway, "no analysis result available yet")
		return
	}

	s.mu.Lock()
	s.rawResult = result
	s.mu.Unlock()

	slog.InfoContext(r.Context(), "Receipt uploaded and result fetched",
		"key", key, "upload_bytes", len(data), "result_bytes", len(result))
	writeJSON(w, http.StatusOK, map[string]any{
		"uploaded":     key,
		"result_bytes": len(result),
	})
}

// handleSession builds a new session from the cached analysis result
// (POST) or returns the current annotation state (GET).
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleBuildSession(w, r)
	case http.MethodGet:
		s.handleSessionState(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleBuildSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	raw := s.rawResult
	s.mu.Unlock()

	if raw == nil {
		writeError(w, http.StatusConflict, "no analysis result fetched yet; upload a receipt first")
		return
	}

	docs, err := textract.Decode(bytes.NewReader(raw))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to decode analysis result", "error", err)
		writeError(w, http.StatusBadRequest, "failed to decode analysis result; check the uploaded data")
		return
	}

	items := textract.Items(docs)
	summary, candidates := textract.Summary(docs)
	sess := session.New(items, summary, candidates)

	s.mu.Lock()
	s.sess = sess
	s.mu.Unlock()

	slog.InfoContext(r.Context(), "Session built",
		"items", len(items),
		"summary_fields", len(summary),
		"tax_candidates", len(candidates))
	s.writeSessionState(w, sess)
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess := s.session()
	if sess == nil {
		writeError(w, http.StatusConflict, "no active session; build one first")
		return
	}
	s.writeSessionState(w, sess)
}

type taxRateView struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

func (s *Server) writeSessionState(w http.ResponseWriter, sess *session.Session) {
	taxes := make([]taxRateView, 0, len(sess.TaxRates()))
	for _, t := range sess.TaxRates() {
		taxes = append(taxes, taxRateView{Name: t.Name, Percent: t.Percent})
	}

	type itemView struct {
		Name        string   `json:"name"`
		Cost        float64  `json:"cost"`
		SelectedTax string   `json:"selected_tax,omitempty"`
		Users       []string `json:"users"`
	}
	annotations := sess.Annotations()
	items := make([]itemView, 0, len(annotations))
	for _, a := range annotations {
		items = append(items, itemView{
			Name:        a.Name,
			Cost:        a.Cost,
			SelectedTax: a.SelectedTax,
			Users:       a.Users,
		})
	}

	type summaryView struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	summary := make([]summaryView, 0, len(sess.SummaryFields()))
	for _, f := range sess.SummaryFields() {
		summary = append(summary, summaryView{Label: f.Label, Value: f.Value})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":          items,
		"summary":        summary,
		"tax_candidates": sess.Candidates(),
		"taxes":          taxes,
		"users":          sess.Users(),
	})
}

func (s *Server) handleSetTaxRates(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	sess := s.session()
	if sess == nil {
		writeError(w, http.StatusConflict, "no active session; build one first")
		return
	}

	var req struct {
		Taxes []taxRateView `json:"taxes"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	rates := make([]core.TaxRate, 0, len(req.Taxes))
	for _, t := range req.Taxes {
		if t.Percent < 0 {
			writeError(w, http.StatusUnprocessableEntity, "tax percent must be non-negative")
			return
		}
		rates = append(rates, core.TaxRate{Name: t.Name, Percent: t.Percent})
	}
	if err := sess.SetTaxRates(rates); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	slog.InfoContext(r.Context(), "Tax rates declared", "count", len(rates))
	s.writeSessionState(w, sess)
}

func (s *Server) handleDeclareUsers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	sess := s.session()
	if sess == nil {
		writeError(w, http.StatusConflict, "no active session; build one first")
		return
	}

	var req struct {
		Users []string `json:"users"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	accepted, verrs, err := sess.DeclareUsers(req.Users)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	messages := make([]string, 0, len(verrs))
	for _, verr := range verrs {
		messages = append(messages, verr.Error())
	}
	status := http.StatusOK
	if len(messages) > 0 {
		// Duplicates are reported, not fatal: the accepted set stands.
		status = http.StatusUnprocessableEntity
		slog.WarnContext(r.Context(), "Duplicate user names rejected",
			"errors", messages, "accepted", accepted)
	} else {
		slog.InfoContext(r.Context(), "Users declared", "count", len(accepted))
	}

	writeJSON(w, status, map[string]any{
		"users":             accepted,
		"validation_errors": messages,
	})
}

func (s *Server) handleSelectTax(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	sess := s.session()
	if sess == nil {
		writeError(w, http.StatusConflict, "no active session; build one first")
		return
	}

	var req struct {
		Item int    `json:"item"`
		Tax  string `json:"tax"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := sess.SelectTax(req.Item, req.Tax); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeSessionState(w, sess)
}

func (s *Server) handleAssignUsers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	sess := s.session()
	if sess == nil {
		writeError(w, http.StatusConflict, "no active session; build one first")
		return
	}

	var req struct {
		Item  int      `json:"item"`
		Users []string `json:"users"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := sess.AssignUsers(req.Item, req.Users); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeSessionState(w, sess)
}

// handleAllocation recomputes the full allocation over the current state.
func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	sess := s.session()
	if sess == nil {
		writeError(w, http.StatusConflict, "no active session; build one first")
		return
	}

	res := sess.Recompute()
	if len(res.Unassigned) > 0 {
		slog.WarnContext(r.Context(), "Items excluded from allocation: no users assigned",
			"items", res.Unassigned)
	}
	writeJSON(w, http.StatusOK, allocationView(res))
}

func (s *Server) handleSpending(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	rows, err := s.store.Load(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load spending", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load spending data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spending": spendingView(rows)})
}

// handleSaveSpending recomputes the aggregate and overwrites the store.
func (s *Server) handleSaveSpending(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	sess := s.session()
	if sess == nil {
		writeError(w, http.StatusConflict, "no active session; build one first")
		return
	}

	res := sess.Recompute()
	if err := s.store.Save(r.Context(), res.Spending); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save spending", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save spending data")
		return
	}

	var total float64
	for _, us := range res.Spending {
		total += us.TotalCost
	}
	s.publishSaved(r.Context(), len(res.Spending), total)

	writeJSON(w, http.StatusOK, map[string]any{
		"saved":    true,
		"spending": spendingView(res.Spending),
	})
}

func (s *Server) handleResetSpending(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	existed, err := s.store.Reset(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to reset spending", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset spending data")
		return
	}
	s.publishReset(r.Context(), existed)

	msg := "spending data deleted"
	if !existed {
		msg = "no spending data to delete"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"existed": existed,
		"message": msg,
	})
}

func (s *Server) publishSaved(ctx context.Context, users int, total float64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Publisher not available, skipping spending saved event")
		return
	}
	if err := s.publisher.PublishSpendingSaved(ctx, users, total); err != nil {
		// Events are best-effort; the save itself succeeded.
		slog.ErrorContext(ctx, "Failed to publish spending saved event", "error", err)
	}
}

func (s *Server) publishReset(ctx context.Context, existed bool) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Publisher not available, skipping spending reset event")
		return
	}
	if err := s.publisher.PublishSpendingReset(ctx, existed); err != nil {
		slog.ErrorContext(ctx, "Failed to publish spending reset event", "error", err)
	}
}
