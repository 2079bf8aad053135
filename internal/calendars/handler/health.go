package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"

	httputil "atsumaru/pkg/http"
	"atsumaru/pkg/logger"
)

const readinessPingTimeout = 2 * time.Second

type HealthResponse struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Database   string `json:"database,omitempty"`
	DatabaseMS int64  `json:"database_ms,omitempty"`
}

// HealthHandler serves liveness and readiness probes. Liveness never touches
// Mongo; readiness pings it with a short deadline so a slow database marks
// the pod unready instead of hanging the probe.
type HealthHandler struct {
	mongoClient *mongo.Client
	service     string
	log         *logger.Logger
}

func NewHealthHandler(mongoClient *mongo.Client, service string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		mongoClient: mongoClient,
		service:     service,
		log:         log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.writeStatus(w, "Health", http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: h.service,
	})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessPingTimeout)
	defer cancel()

	started := time.Now()
	if err := h.mongoClient.Ping(ctx, nil); err != nil {
		h.log.Error("Database readiness check failed",
			"error", err,
			"path", r.URL.Path,
		)
		h.writeStatus(w, "Ready", http.StatusServiceUnavailable, HealthResponse{
			Status:   "unavailable",
			Service:  h.service,
			Database: "error",
		})
		return
	}

	h.writeStatus(w, "Ready", http.StatusOK, HealthResponse{
		Status:     "ready",
		Service:    h.service,
		Database:   "ok",
		DatabaseMS: time.Since(started).Milliseconds(),
	})
}

func (h *HealthHandler) writeStatus(w http.ResponseWriter, handlerName string, code int, resp HealthResponse) {
	if err := httputil.WriteJSON(w, code, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", handlerName, "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
