// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/fitline/internal/models"
)

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady probes every readiness check and answers 503 if any fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string, len(h.checks)+1)
	ready := true
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			components[c.Name] = err.Error()
			ready = false
			continue
		}
		components[c.Name] = "ok"
	}
	if h.visual != nil {
		components["visual_index_size"] = itoa(h.visual.Len())
	} else {
		components["visual"] = "disabled"
	}

	status, label := http.StatusOK, "ready"
	if !ready {
		status, label = http.StatusServiceUnavailable, "not_ready"
	}
	respondJSON(w, r, status, &models.APIResponse{
		Status: label,
		Data: map[string]interface{}{
			"ready":      ready,
			"components": components,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
