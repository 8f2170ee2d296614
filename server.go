package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"gridstack/internal/advisor"
	"gridstack/internal/catalog"
	"gridstack/internal/models"
	"gridstack/internal/session"
	"gridstack/internal/stack"
	"gridstack/internal/usecase"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StackView is the API representation of a stack session.
type StackView struct {
	ID                   string                       `json:"id"`
	UseCase              *models.UseCaseTemplate      `json:"useCase"`
	CurrentCategoryIndex int                          `json:"currentCategoryIndex"`
	CurrentCategory      *models.CategoryDefinition   `json:"currentCategory,omitempty"`
	CanProceed           bool                         `json:"canProceed"`
	Complete             bool                         `json:"complete"`
	MissingRequired      []string                     `json:"missingRequired"`
	Selections           []stack.Selection            `json:"selections"`
	Compatibility        []models.CompatibilityResult `json:"compatibility"`
}

type createStackRequest struct {
	UseCaseID string `json:"useCaseId"`
}

type selectProductRequest struct {
	ProductID string `json:"productId"`
}

type cursorRequest struct {
	Index *int `json:"index"`
}

type relationshipsRequest struct {
	ProductIDs []string `json:"productIds"`
}

type summaryResponse struct {
	Summary string             `json:"summary"`
	Report  models.StackReport `json:"report"`
}

// Server serves the catalog and stack-building API.
type Server struct {
	catalog      catalog.Gateway
	useCases     *usecase.Table
	sessions     *session.Registry
	advisor      *advisor.Advisor // nil when disabled
	defaultLimit int
}

// NewServer wires the API handlers. adv may be nil.
func NewServer(gw catalog.Gateway, useCases *usecase.Table, sessions *session.Registry, adv *advisor.Advisor, defaultLimit int) *Server {
	if defaultLimit <= 0 {
		defaultLimit = catalog.DefaultLimit
	}
	return &Server{
		catalog:      gw,
		useCases:     useCases,
		sessions:     sessions,
		advisor:      adv,
		defaultLimit: defaultLimit,
	}
}

// Routes returns the API handler. When staticDir is set, the frontend is
// served from it at "/".
func (s *Server) Routes(staticDir string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthCheckHandler)

	mux.HandleFunc("GET /api/products", s.listProductsHandler)
	mux.HandleFunc("GET /api/products/{id}", s.productHandler)
	mux.HandleFunc("POST /api/products/relationships", s.relationshipsHandler)

	mux.HandleFunc("GET /api/usecases", s.useCasesHandler)

	mux.HandleFunc("POST /api/stacks", s.createStackHandler)
	mux.HandleFunc("GET /api/stacks/{id}", s.getStackHandler)
	mux.HandleFunc("DELETE /api/stacks/{id}", s.deleteStackHandler)
	mux.HandleFunc("PUT /api/stacks/{id}/selections/{category}", s.selectProductHandler)
	mux.HandleFunc("DELETE /api/stacks/{id}/selections/{category}", s.deselectProductHandler)
	mux.HandleFunc("POST /api/stacks/{id}/next", s.nextHandler)
	mux.HandleFunc("POST /api/stacks/{id}/back", s.backHandler)
	mux.HandleFunc("PUT /api/stacks/{id}/cursor", s.cursorHandler)
	mux.HandleFunc("POST /api/stacks/{id}/compatibility", s.compatibilityHandler)
	mux.HandleFunc("POST /api/stacks/{id}/summary", s.summaryHandler)

	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	return accessLog(corsMiddleware(mux))
}

// CORS middleware to handle cross-origin requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Cache-Control")
		w.Header().Set("Access-Control-Max-Age", "86400")

		// Handle preflight OPTIONS request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("productTypeIds")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "productTypeIds is required"})
		return
	}
	var typeIDs []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			typeIDs = append(typeIDs, id)
		}
	}
	if len(typeIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "productTypeIds is required"})
		return
	}

	limit := s.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	products, err := s.catalog.Products(r.Context(), typeIDs, limit)
	if err != nil {
		writeError(w, "Failed to fetch products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) productHandler(w http.ResponseWriter, r *http.Request) {
	product, err := s.catalog.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "Failed to fetch product details", err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) relationshipsHandler(w http.ResponseWriter, r *http.Request) {
	var req relationshipsRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ProductIDs == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "productIds array is required"})
		return
	}
	products, err := s.catalog.Relationships(r.Context(), req.ProductIDs)
	if err != nil {
		writeError(w, "Failed to fetch product relationships", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) useCasesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":  s.useCases.Version(),
		"useCases": s.useCases.All(),
	})
}

func (s *Server) createStackHandler(w http.ResponseWriter, r *http.Request) {
	var req createStackRequest
	if err := decodeJSON(w, r, &req); err != nil || req.UseCaseID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "useCaseId is required"})
		return
	}
	tpl, err := s.useCases.Get(req.UseCaseID)
	if err != nil {
		writeError(w, "Failed to create stack", err)
		return
	}
	id := s.sessions.Create(tpl)
	s.respondWithStack(w, http.StatusCreated, id, func(*stack.Stack) error { return nil })
}

func (s *Server) getStackHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithStack(w, http.StatusOK, r.PathValue("id"), func(*stack.Stack) error { return nil })
}

func (s *Server) deleteStackHandler(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(r.PathValue("id")) {
		writeError(w, "Failed to delete stack", session.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) selectProductHandler(w http.ResponseWriter, r *http.Request) {
	var req selectProductRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "productId is required"})
		return
	}
	// Resolve the product before taking the session lock.
	product, err := s.catalog.Product(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, "Failed to fetch product", err)
		return
	}
	category := r.PathValue("category")
	s.respondWithStack(w, http.StatusOK, r.PathValue("id"), func(st *stack.Stack) error {
		return st.AddProduct(category, product)
	})
}

func (s *Server) deselectProductHandler(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	s.respondWithStack(w, http.StatusOK, r.PathValue("id"), func(st *stack.Stack) error {
		st.RemoveProduct(category)
		return nil
	})
}

var errCannotProceed = errors.New("current category requires a selection")

func (s *Server) nextHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithStack(w, http.StatusOK, r.PathValue("id"), func(st *stack.Stack) error {
		if !st.Next() {
			return errCannotProceed
		}
		return nil
	})
}

func (s *Server) backHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithStack(w, http.StatusOK, r.PathValue("id"), func(st *stack.Stack) error {
		st.Back()
		return nil
	})
}

var errCursorOutOfRange = errors.New("index out of range")

func (s *Server) cursorHandler(w http.ResponseWriter, r *http.Request) {
	var req cursorRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Index == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "index is required"})
		return
	}
	s.respondWithStack(w, http.StatusOK, r.PathValue("id"), func(st *stack.Stack) error {
		u := st.UseCase()
		if u == nil {
			return stack.ErrNoUseCase
		}
		if *req.Index < 0 || *req.Index > len(u.Categories) {
			return errCursorOutOfRange
		}
		st.SetCurrentCategoryIndex(*req.Index)
		return nil
	})
}

func (s *Server) compatibilityHandler(w http.ResponseWriter, r *http.Request) {
	var report models.StackReport
	err := s.sessions.With(r.PathValue("id"), func(st *stack.Stack) error {
		st.CalculateCompatibility()
		report = st.Report()
		return nil
	})
	if err != nil {
		writeError(w, "Failed to calculate compatibility", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

var errAdvisorDisabled = errors.New("stack advisor is not enabled")

func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		writeError(w, "Failed to summarize stack", errAdvisorDisabled)
		return
	}
	var in advisor.Input
	err := s.sessions.With(r.PathValue("id"), func(st *stack.Stack) error {
		st.CalculateCompatibility()
		in = advisor.FromStack(st)
		return nil
	})
	if err != nil {
		writeError(w, "Failed to summarize stack", err)
		return
	}
	text, err := s.advisor.Summarize(r.Context(), in)
	if err != nil {
		writeError(w, "Failed to summarize stack", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Summary: text, Report: in.Report})
}

// respondWithStack runs fn on the session's stack and writes the resulting
// view. fn's error is reported instead, and the view is not written.
func (s *Server) respondWithStack(w http.ResponseWriter, status int, id string, fn func(*stack.Stack) error) {
	var view StackView
	err := s.sessions.With(id, func(st *stack.Stack) error {
		if err := fn(st); err != nil {
			return err
		}
		view = newStackView(id, st)
		return nil
	})
	if err != nil {
		writeError(w, "Stack operation failed", err)
		return
	}
	writeJSON(w, status, view)
}

func newStackView(id string, st *stack.Stack) StackView {
	view := StackView{
		ID:                   id,
		UseCase:              st.UseCase(),
		CurrentCategoryIndex: st.CurrentCategoryIndex(),
		CanProceed:           st.CanProceedToNext(),
		Complete:             st.Complete(),
		MissingRequired:      st.MissingRequired(),
		Selections:           st.Selected(),
		Compatibility:        st.Compatibility(),
	}
	if c, ok := st.CurrentCategory(); ok {
		view.CurrentCategory = &c
	}
	if view.MissingRequired == nil {
		view.MissingRequired = []string{}
	}
	return view
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "Stack not found"
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound, "Use case not found"
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, stack.ErrNoUseCase), errors.Is(err, stack.ErrUnknownCategory):
		return http.StatusUnprocessableEntity, "Invalid selection"
	case errors.Is(err, errCannotProceed), errors.Is(err, advisor.ErrEmptyStack):
		return http.StatusConflict, "Cannot proceed"
	case errors.Is(err, errCursorOutOfRange):
		return http.StatusBadRequest, "Invalid cursor"
	case errors.Is(err, catalog.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "Catalog unavailable"
	case errors.Is(err, catalog.ErrUpstreamData):
		return http.StatusBadGateway, "Catalog returned an error"
	case errors.Is(err, errAdvisorDisabled):
		return http.StatusServiceUnavailable, "Advisor disabled"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request cancelled"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeError(w http.ResponseWriter, action string, err error) {
	status, title := statusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).Error(action)
	} else {
		logrus.WithError(err).Debug(action)
	}
	writeJSON(w, status, ErrorResponse{Error: title, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	return dec.Decode(v)
}
