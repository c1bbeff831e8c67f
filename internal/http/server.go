// Package http exposes the interactive API: receipt upload, annotation
// actions on the current session, allocation results and spending
// persistence. It is the UI collaborator's surface; all computation
// lives in core and session.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"cloudexpense/internal/session"
	"cloudexpense/internal/spending"
)

// ResultFetcher is the object-store collaborator: store raw bytes under
// a key and fetch the most recent analysis result under a prefix.
type ResultFetcher interface {
	Put(ctx context.Context, key string, data []byte) error
	LatestJSON(ctx context.Context, prefix string) ([]byte, error)
}

// Publisher announces spending changes. May be nil when messaging is not
// configured; callers must skip, not fail.
type Publisher interface {
	PublishSpendingSaved(ctx context.Context, users int, totalCost float64) error
	PublishSpendingReset(ctx context.Context, existed bool) error
}

type Server struct {
	http.Server

	store        spending.Store
	objects      ResultFetcher // nil: upload/fetch endpoints report 503
	publisher    Publisher     // nil: events are skipped
	resultPrefix string

	// One interactive session at a time, by design. The mutex only keeps
	// handler interleavings sane; last writer wins.
	mu        sync.Mutex
	rawResult []byte
	sess      *session.Session
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, store spending.Store, objects ResultFetcher, publisher Publisher, resultPrefix string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:        store,
		objects:      objects,
		publisher:    publisher,
		resultPrefix: resultPrefix,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/receipts", s.withLogging(s.handleUploadReceipt))
	mux.HandleFunc("/session", s.withLogging(s.handleSession))
	mux.HandleFunc("/session/taxes", s.withLogging(s.handleSetTaxRates))
	mux.HandleFunc("/session/users", s.withLogging(s.handleDeclareUsers))
	mux.HandleFunc("/session/item/tax", s.withLogging(s.handleSelectTax))
	mux.HandleFunc("/session/item/users", s.withLogging(s.handleAssignUsers))
	mux.HandleFunc("/allocation", s.withLogging(s.handleAllocation))
	mux.HandleFunc("/spending", s.withLogging(s.handleSpending))
	mux.HandleFunc("/spending/save", s.withLogging(s.handleSaveSpending))
	mux.HandleFunc("/spending/reset", s.withLogging(s.handleResetSpending))

	return s
}

// withLogging adds request IDs, request/response logging and basic
// response hardening headers.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"remote_addr", r.RemoteAddr)

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// session returns the current session or nil.
func (s *Server) session() *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}
