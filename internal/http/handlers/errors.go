package handlers

import "net/http"

func (h *Handler) registerErrors(mux *http.ServeMux) {
	mux.HandleFunc("GET /errors/current", h.CurrentError)
	mux.HandleFunc("POST /errors/ack", h.AckError)
}

// CurrentError returns the error awaiting acknowledgement, if any.
func (h *Handler) CurrentError(w http.ResponseWriter, r *http.Request) {
	current, ok := h.errs.Current()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"error": nil, "queued": 0}, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"error":  current.Error(),
		"queued": h.errs.Len(),
	}, h.logger)
}

// AckError discards the current error and reveals the next queued one.
func (h *Handler) AckError(w http.ResponseWriter, r *http.Request) {
	h.errs.Ack()
	current, ok := h.errs.Current()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"error": nil, "queued": 0}, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"error":  current.Error(),
		"queued": h.errs.Len(),
	}, h.logger)
}
