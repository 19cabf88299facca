// Package httpapi exposes the control service as a JSON API for local
// collaborators that prefer HTTP over the IPC socket. It has no streaming
// endpoint; subscribers use IPC WATCH.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"go.klb.dev/clipkeep/internal/apperror"
	"go.klb.dev/clipkeep/internal/ignore"
	"go.klb.dev/clipkeep/internal/service"
)

const maxBodyBytes = 64 * 1024

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type handler struct {
	svc *service.Service
}

// NewRouter returns the chi router serving /api.
func NewRouter(svc *service.Service) http.Handler {
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/history", h.list)
		r.Delete("/history", h.clear)
		r.Get("/history/{id}", h.get)
		r.Get("/history/{id}/payload", h.payload)
		r.Post("/history/{id}/pin", h.pin)
		r.Post("/history/{id}/copy", h.copy)
		r.Delete("/history/{id}", h.delete)

		r.Get("/status", h.status)
		r.Get("/monitoring", h.getMonitoring)
		r.Put("/monitoring", h.putMonitoring)
		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.putSettings)

		r.Get("/ignore", h.ignoreList)
		r.Get("/ignore/builtin", h.ignoreBuiltIn)
		r.Post("/ignore", h.ignoreAdd)
		r.Delete("/ignore/{appID}", h.ignoreRemove)
	})
	return r
}

// Serve runs the API on addr until ctx is cancelled. Only loopback
// addresses are accepted.
func Serve(ctx context.Context, addr string, svc *service.Service) error {
	ln, err := Listen(addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           NewRouter(svc),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("http api listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http api: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http api shutdown: %w", err)
		}
		slog.Info("http api stopped")
		return nil
	}
}

// Listen opens a TCP listener on addr, refusing non-loopback hosts.
func Listen(addr string) (net.Listener, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("http api: %w", err)
	}
	if host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			return nil, fmt.Errorf("http api: %q is not a loopback address", addr)
		}
	}
	return net.Listen("tcp", addr)
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	pinnedOnly, _ := strconv.ParseBool(r.URL.Query().Get("pinned"))
	writeJSON(w, http.StatusOK, h.svc.List(pinnedOnly))
}

func (h *handler) clear(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	n := h.svc.Clear(r.Context(), all)
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// payload serves the item's binary content raw: the image bytes or file
// thumbnail, RTF for rich text, the text itself otherwise.
func (h *handler) payload(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var body []byte
	switch {
	case len(it.Payload) > 0:
		body = it.Payload
		w.Header().Set("Content-Type", http.DetectContentType(body))
	case len(it.RichText) > 0 && r.URL.Query().Get("format") == "rtf":
		body = it.RichText
		w.Header().Set("Content-Type", "application/rtf")
	default:
		body = []byte(it.PrimaryText)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *handler) pin(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.TogglePin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it.WithoutPayload())
}

func (h *handler) copy(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.Copy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it.WithoutPayload())
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

type monitoringBody struct {
	Monitoring *bool `json:"monitoring"`
}

func (h *handler) getMonitoring(w http.ResponseWriter, _ *http.Request) {
	on := h.svc.Monitoring()
	writeJSON(w, http.StatusOK, monitoringBody{Monitoring: &on})
}

func (h *handler) putMonitoring(w http.ResponseWriter, r *http.Request) {
	var body monitoringBody
	if err := decode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Monitoring == nil {
		writeError(w, apperror.Validation("monitoring is required"))
		return
	}
	on := h.svc.SetMonitoring(*body.Monitoring)
	writeJSON(w, http.StatusOK, monitoringBody{Monitoring: &on})
}

func (h *handler) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

// putSettings accepts a {"key": "value"} object and applies each entry in
// turn; the first invalid entry stops processing.
func (h *handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := decode(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	if len(body) == 0 {
		writeError(w, apperror.Validation("no settings given"))
		return
	}
	for k, v := range body {
		if _, err := h.svc.Set(r.Context(), k, v); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

func (h *handler) ignoreList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.IgnoreList())
}

func (h *handler) ignoreBuiltIn(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.BuiltIn())
}

func (h *handler) ignoreAdd(w http.ResponseWriter, r *http.Request) {
	var app ignore.App
	if err := decode(w, r, &app); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.IgnoreAdd(r.Context(), app); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.svc.IgnoreList())
}

func (h *handler) ignoreRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.IgnoreRemove(r.Context(), chi.URLParam(r, "appID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperror.Validation("invalid JSON body: %v", err)
	}
	return nil
}
