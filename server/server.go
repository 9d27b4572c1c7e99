// Package server exposes the agent's hooks and trading context over a local
// HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/banky/go-hyperliquid-agent/exchange"
	"github.com/banky/go-hyperliquid-agent/internal/logger"
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

// ContextSwitcher changes the trading context used by later actions.
type ContextSwitcher interface {
	UseMaster(ctx context.Context)
	UseSubAccount(ctx context.Context, address common.Address, label string) error
}

type Config struct {
	Exchange *exchange.Exchange
	Hooks    *exchange.Hooks
	// Contexts is optional; without it PUT /v1/context is refused.
	Contexts ContextSwitcher
	Logger   *slog.Logger
}

type Server struct {
	exchange *exchange.Exchange
	hooks    *exchange.Hooks
	contexts ContextSwitcher
	log      *slog.Logger
}

func New(cfg Config) (*Server, error) {
	if cfg.Exchange == nil {
		return nil, errors.New("exchange is required")
	}
	hooks := cfg.Hooks
	if hooks == nil {
		hooks = exchange.NewHooks(cfg.Exchange)
	}
	return &Server{
		exchange: cfg.Exchange,
		hooks:    hooks,
		contexts: cfg.Contexts,
		log:      logger.OrNop(cfg.Logger),
	}, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/v1", func(api chi.Router) {
		api.Get("/status", s.handleStatus)
		api.Get("/context", s.handleGetContext)
		api.Put("/context", s.handlePutContext)
		api.Post("/trading/enable", s.handleEnable)
		api.Post("/trading/disable", s.handleDisable)
		api.Post("/actions/{kind}", s.handleAction)
	})

	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

type statusResponse struct {
	Network types.Network                  `json:"network"`
	Wallet  common.Address                 `json:"wallet"`
	State   exchange.State                 `json:"state"`
	Context exchange.ContextQuery          `json:"context"`
	Hooks   map[string]exchange.HookStatus `json:"hooks"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	signer := s.exchange.Signer()
	writeJSON(w, http.StatusOK, statusResponse{
		Network: signer.Network(),
		Wallet:  signer.Wallet().Address(),
		State:   signer.State(r.Context()),
		Context: s.exchange.ContextQuery(),
		Hooks:   s.hooks.Status(),
	})
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.exchange.ContextQuery())
}

type contextRequest struct {
	// Type is "master" or "subAccount".
	Type    string `json:"type"`
	Address string `json:"address,omitempty"`
	Label   string `json:"label,omitempty"`
}

func (s *Server) handlePutContext(w http.ResponseWriter, r *http.Request) {
	if s.contexts == nil {
		writeError(w, http.StatusNotImplemented, "NO_CONTEXTS", "trading context switching is not configured")
		return
	}

	var req contextRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_BODY", err.Error())
		return
	}

	switch strings.ToLower(req.Type) {
	case "master":
		s.contexts.UseMaster(r.Context())
	case "subaccount":
		if !common.IsHexAddress(req.Address) {
			writeError(w, http.StatusBadRequest, "BAD_ADDRESS", fmt.Sprintf("%q is not an address", req.Address))
			return
		}
		if err := s.contexts.UseSubAccount(r.Context(), common.HexToAddress(req.Address), req.Label); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "CONTEXT_REJECTED", err.Error())
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "BAD_TYPE", `type must be "master" or "subAccount"`)
		return
	}

	writeJSON(w, http.StatusOK, s.exchange.ContextQuery())
}

func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	s.writeOutcome(w, s.hooks.EnableTrading.Invoke(r.Context(), struct{}{}))
}

func (s *Server) handleDisable(w http.ResponseWriter, r *http.Request) {
	s.writeOutcome(w, s.hooks.DisableTrading.Invoke(r.Context(), struct{}{}))
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "kind")
	if !slices.Contains(s.hooks.Names(), name) {
		writeError(w, http.StatusNotFound, "UNKNOWN_ACTION", fmt.Sprintf("unknown action %q", name))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "payload exceeds 1MB limit")
			return
		}
		writeError(w, http.StatusBadRequest, "BAD_BODY", err.Error())
		return
	}

	out, err := s.hooks.InvokeByName(r.Context(), name, json.RawMessage(raw))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_ARGUMENTS", err.Error())
		return
	}
	s.writeOutcome(w, out)
}

// writeOutcome maps an outcome to a status code. The body is always the
// outcome itself.
func (s *Server) writeOutcome(w http.ResponseWriter, out exchange.Outcome) {
	status := http.StatusOK
	switch {
	case out.Success:
	case out.IsValidationError():
		status = http.StatusBadRequest
	case out.Cancelled:
		status = http.StatusConflict
	case out.IsTransportError():
		status = http.StatusBadGateway
	default:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, out)
}
