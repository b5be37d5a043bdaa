package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"deltaban/internal/banlist"
	"deltaban/internal/domain"
	"deltaban/internal/engine"
	"deltaban/internal/metrics"
	"deltaban/internal/store"
)

// Server serves the delta assessment HTTP API.
type Server struct {
	engine   *engine.Engine
	sessions store.SessionStore
	journal  store.JournalStore
	banned   *banlist.List
	log      *slog.Logger
}

// NewServer creates a new API server.
func NewServer(
	eng *engine.Engine,
	sessions store.SessionStore,
	journal store.JournalStore,
	banned *banlist.List,
	log *slog.Logger,
) *Server {
	return &Server{
		engine:   eng,
		sessions: sessions,
		journal:  journal,
		banned:   banned,
		log:      log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("PUT /api/sessions/{id}", s.handleUpdateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/books/{side}/positions", s.handleAddPosition)
	mux.HandleFunc("DELETE /api/sessions/{id}/books/{side}/positions/last", s.handleRemoveLastPosition)
	mux.HandleFunc("DELETE /api/sessions/{id}/books/{side}/positions", s.handleClearBook)
	mux.HandleFunc("POST /api/sessions/{id}/copy", s.handleCopyBaseToNew)
	mux.HandleFunc("GET /api/sessions/{id}/assessment", s.handleSessionAssessment)
	mux.HandleFunc("POST /api/sessions/{id}/record", s.handleRecordAssessment)
	mux.HandleFunc("POST /api/assess", s.handleAssess)
	mux.HandleFunc("GET /api/banlist", s.handleBanList)
	mux.HandleFunc("GET /api/journal/dates", s.handleJournalDates)
	mux.HandleFunc("GET /api/journal/{date}", s.handleJournalByDate)
	mux.Handle("GET /metrics", metrics.Handler())
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeStoreError maps store errors to HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// parseID extracts the session ID from the request path.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// parseSide extracts the book side from the request path.
func parseSide(r *http.Request) (domain.BookSide, error) {
	return domain.ParseBookSide(r.PathValue("side"))
}

// isBanned reports whether a stock is in the ban period. With no ban list
// configured, nothing is flagged.
func (s *Server) isBanned(stock string) bool {
	if s.banned == nil {
		return false
	}
	return s.banned.Contains(stock)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Stock == "" {
		writeError(w, http.StatusBadRequest, "stock required")
		return
	}
	if req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}

	sess, err := s.sessions.CreateSession(r.Context(), req.Stock, req.Price)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	metrics.SessionsCreated.Inc()
	s.log.Info("session created", "id", sess.ID, "stock", sess.Stock)
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, convertSession(sess, s.isBanned(sess.Stock)))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.ListSessions(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	out := make([]SessionJSON, 0, len(sessions))
	for i := range sessions {
		out = append(out, convertSession(&sessions[i], s.isBanned(sessions[i].Stock)))
	}
	writeJSON(w, SessionsResponse{Sessions: out})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	sess, err := s.sessions.GetSession(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, convertSession(sess, s.isBanned(sess.Stock)))
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	var req UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Stock == "" {
		writeError(w, http.StatusBadRequest, "stock required")
		return
	}
	if req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}

	if err := s.sessions.UpdateSession(r.Context(), id, req.Stock, req.Price); err != nil {
		writeStoreError(w, err)
		return
	}
	sess, err := s.sessions.GetSession(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, convertSession(sess, s.isBanned(sess.Stock)))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if err := s.sessions.DeleteSession(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddPosition(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	side, err := parseSide(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req AddPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	pos, err := s.engine.NewPosition(req.Kind, req.Direction, req.Quantity, req.Sensitivity)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.sessions.AppendPosition(r.Context(), id, side, pos)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, convertPosition(stored))
}

func (s *Server) handleRemoveLastPosition(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	side, err := parseSide(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sessions.RemoveLastPosition(r.Context(), id, side); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearBook(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	side, err := parseSide(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sessions.ClearBook(r.Context(), id, side); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCopyBaseToNew(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if err := s.sessions.CopyBaseToNew(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	sess, err := s.sessions.GetSession(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, convertSession(sess, s.isBanned(sess.Stock)))
}

// assessSession loads a session and runs the assessment over its books.
func (s *Server) assessSession(r *http.Request, id int64) (domain.Assessment, bool, error) {
	sess, err := s.sessions.GetSession(r.Context(), id)
	if err != nil {
		return domain.Assessment{}, false, err
	}
	a := s.engine.Assess(sess.Stock, sess.Base, sess.New, sess.Price)
	metrics.AssessmentsTotal.WithLabelValues(a.Stock, strconv.FormatBool(a.Violation.IsViolation)).Inc()
	if a.Penalty != nil {
		metrics.PenaltiesIssued.WithLabelValues(a.Stock).Inc()
	}
	return a, s.isBanned(sess.Stock), nil
}

func (s *Server) handleSessionAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	a, banned, err := s.assessSession(r, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, convertAssessment(a, banned))
}

func (s *Server) handleRecordAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	a, banned, err := s.assessSession(r, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.journal.Record(r.Context(), a, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("recording assessment: %v", err))
		return
	}
	s.log.Info("assessment recorded",
		"stock", a.Stock, "violation", a.Violation.IsViolation, "magnitude", a.Violation.Magnitude)
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, convertAssessment(a, banned))
}

// handleAssess runs a stateless assessment over books supplied in the body.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}

	base, err := s.buildBook(req.Base)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("base book: %v", err))
		return
	}
	next, err := s.buildBook(req.New)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("new book: %v", err))
		return
	}

	a := s.engine.Assess(req.Stock, base, next, req.Price)
	metrics.AssessmentsTotal.WithLabelValues(a.Stock, strconv.FormatBool(a.Violation.IsViolation)).Inc()
	if a.Penalty != nil {
		metrics.PenaltiesIssued.WithLabelValues(a.Stock).Inc()
	}
	writeJSON(w, convertAssessment(a, s.isBanned(req.Stock)))
}

// buildBook validates request rows and recomputes each contribution.
func (s *Server) buildBook(rows []PositionJSON) (domain.Book, error) {
	var book domain.Book
	for i, row := range rows {
		pos, err := s.engine.NewPosition(row.Kind, row.Direction, row.Quantity, row.Sensitivity)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		book = append(book, pos)
	}
	return book, nil
}

func (s *Server) handleBanList(w http.ResponseWriter, r *http.Request) {
	if s.banned == nil {
		writeJSON(w, BanListResponse{Entries: []BanEntryJSON{}})
		return
	}
	writeJSON(w, BanListResponse{Entries: convertBanEntries(s.banned.Entries())})
}

func (s *Server) handleJournalDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.journal.ListDates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, DatesResponse{Dates: dates})
}

func (s *Server) handleJournalByDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	records, err := s.journal.LoadByDate(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, JournalResponse{Date: date, Records: convertJournalRecords(records)})
}
