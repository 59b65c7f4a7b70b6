package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"agency-data-service/internal/domain/clubs"
)

func (h *Handler) registerClubs(mux *http.ServeMux) {
	mux.HandleFunc("GET /clubs", h.ListClubs)
	mux.HandleFunc("POST /clubs", h.CreateClub)
	mux.HandleFunc("GET /clubs/{id}", h.GetClub)
	mux.HandleFunc("PUT /clubs/{id}", h.UpdateClub)
	mux.HandleFunc("DELETE /clubs/{id}", h.DeleteClub)
	mux.HandleFunc("POST /clubs/{id}/logo", h.UploadClubLogo)
}

// ListClubs returns the current club snapshot.
func (h *Handler) ListClubs(w http.ResponseWriter, r *http.Request) {
	list := h.clubs.List()
	writeJSON(w, http.StatusOK, map[string]any{"clubs": list, "count": len(list)}, h.logger)
}

// GetClub returns one club from the snapshot.
func (h *Handler) GetClub(w http.ResponseWriter, r *http.Request) {
	c, ok := h.clubs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "club not found", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, c, h.logger)
}

// CreateClub persists a new club and returns its assigned ID.
func (h *Handler) CreateClub(w http.ResponseWriter, r *http.Request) {
	var c clubs.Club
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	id, err := h.clubs.Create(r.Context(), c)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error(), h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id}, h.logger)
}

// UpdateClub replaces the stored club with the request body.
func (h *Handler) UpdateClub(w http.ResponseWriter, r *http.Request) {
	var c clubs.Club
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	c.ID = r.PathValue("id")
	if err := h.clubs.Update(r.Context(), c); err != nil {
		writeStoreError(w, r, err, h)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"}, h.logger)
}

// DeleteClub removes a club and detaches its members.
func (h *Handler) DeleteClub(w http.ResponseWriter, r *http.Request) {
	if err := h.clubs.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, r, err, h)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, h.logger)
}

// UploadClubLogo stores the request body as the club's logo.
func (h *Handler) UploadClubLogo(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read upload", h.logger)
		return
	}
	if len(data) == 0 {
		writeError(w, r, http.StatusBadRequest, "empty upload", h.logger)
		return
	}

	url, err := h.clubs.UploadLogo(r.Context(), r.PathValue("id"), data, r.Header.Get("Content-Type"))
	if err != nil {
		writeStoreError(w, r, err, h)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url}, h.logger)
}
