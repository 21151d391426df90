package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ticket-backend/internal/issuance"
	"ticket-backend/internal/logger"
	"ticket-backend/internal/metrics"
	"ticket-backend/internal/models"
	"ticket-backend/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBody = 64 << 10

type Processor interface {
	Process(ctx context.Context, req models.VerifyRequest) *issuance.Result
}

type Handler struct {
	Issuance Processor
	Logger   *logger.Logger
}

func NewHandler(svc Processor, log *logger.Logger) *Handler {
	return &Handler{Issuance: svc, Logger: log}
}

// Routes builds the public router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", h.Health)
	r.Post("/verify", h.Verify)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Ticket backend running!"}); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Health: failed to encode response: %v", err))
	}
}

// Verify always answers 200; the outcome lives in the body's status field.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Verify: invalid request body: %v", err))
		metrics.IssuanceTotal.WithLabelValues(utils.StatusFailed).Inc()
		h.write(w, utils.FailedResponse("Invalid request body: "+err.Error()))
		return
	}

	h.Logger.Info("API", fmt.Sprintf("Verify: reference=%s quantity=%d", req.Reference, req.Quantity.Int()))
	res := h.Issuance.Process(r.Context(), req)
	h.write(w, res.Response())
}

func (h *Handler) write(w http.ResponseWriter, resp utils.WebhookResponse) {
	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(elapsed.Seconds())
		h.Logger.LogAPI(r.Method, r.URL.Path, strconv.Itoa(status), elapsed.String())
	})
}
