package handlers

import (
	"encoding/json"
	"net/http"

	"beacon/internal/core/services"
	"beacon/internal/platform/metrics"
)

// NotificationHandler accepts notification publishes over HTTP and hands them
// to the stream queue for the worker to fan out.
type NotificationHandler struct {
	notifier *services.Notifier
	metrics  *metrics.Metrics
}

func NewNotificationHandler(n *services.Notifier, m *metrics.Metrics) *NotificationHandler {
	return &NotificationHandler{notifier: n, metrics: m}
}

// Publish handles POST /api/v1.0/notifications/{topic}. The body is an
// arbitrary JSON document delivered verbatim as the notification data.
func (h *NotificationHandler) Publish(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")
	if topic == "" {
		writeError(w, r, http.StatusBadRequest, "Topic is required")
		return
	}

	var data any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.notifier.Enqueue(r.Context(), topic, data); err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to enqueue notification")
		return
	}
	h.metrics.NotificationsQueue.Inc()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "queued",
		"topic":  topic,
	})
}
