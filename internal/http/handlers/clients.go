package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"agency-data-service/internal/docstore"
	"agency-data-service/internal/domain/clients"
	"agency-data-service/internal/domain/clubs"
	"agency-data-service/internal/enrich"
	"agency-data-service/internal/view"
)

// clientView decorates a client with its resolved club name for list
// responses, sparing consumers a second lookup.
type clientView struct {
	clients.Client
	ClubName string `json:"clubName,omitempty"`
}

// Photo uploads are capped well above any sensible profile image.
const maxUploadBytes = 8 << 20

func (h *Handler) registerClients(mux *http.ServeMux) {
	mux.HandleFunc("GET /clients", h.ListClients)
	mux.HandleFunc("POST /clients", h.CreateClient)
	mux.HandleFunc("POST /clients/more", h.LoadMoreClients)
	mux.HandleFunc("GET /clients/{id}", h.GetClient)
	mux.HandleFunc("PUT /clients/{id}", h.UpdateClient)
	mux.HandleFunc("DELETE /clients/{id}", h.DeleteClient)
	mux.HandleFunc("POST /clients/{id}/photo", h.UploadClientPhoto)
	mux.HandleFunc("POST /clients/{id}/enrich", h.EnrichClient)
}

// ListClients returns the filtered, sorted client snapshot.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := view.Filters{
		ClubID: q.Get("clubId"),
		Gender: clients.Gender(q.Get("gender")),
		Role:   clients.Role(q.Get("role")),
	}
	list := h.clients.List(filters, view.ParseSortKey(q.Get("sort")))
	clubSnapshot := h.clubs.List()
	out := make([]clientView, 0, len(list))
	for _, c := range list {
		out = append(out, clientView{Client: c, ClubName: clubs.NameOf(clubSnapshot, c.ClubID)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": out, "count": len(out)}, h.logger)
}

// GetClient returns one client from the snapshot.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	c, ok := h.clients.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "client not found", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, c, h.logger)
}

// CreateClient persists a new client and returns its assigned ID.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var c clients.Client
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	id, err := h.clients.Create(r.Context(), c)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error(), h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id}, h.logger)
}

// UpdateClient replaces the stored client with the request body.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var c clients.Client
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	c.ID = r.PathValue("id")
	if err := h.clients.Update(r.Context(), c); err != nil {
		writeStoreError(w, r, err, h)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"}, h.logger)
}

// DeleteClient removes a client; deleting an absent one succeeds.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.clients.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, r, err, h)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, h.logger)
}

// LoadMoreClients pulls the next page into the snapshot.
func (h *Handler) LoadMoreClients(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, r, http.StatusBadRequest, "invalid limit", h.logger)
			return
		}
		limit = parsed
	}
	n, err := h.clients.LoadMore(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error(), h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"loaded": n}, h.logger)
}

// UploadClientPhoto stores the request body as the client's photo and
// merges the resulting URL onto the document.
func (h *Handler) UploadClientPhoto(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read upload", h.logger)
		return
	}
	if len(data) == 0 {
		writeError(w, r, http.StatusBadRequest, "empty upload", h.logger)
		return
	}

	url, err := h.clients.UploadPhoto(r.Context(), r.PathValue("id"), data, r.Header.Get("Content-Type"))
	if err != nil {
		writeStoreError(w, r, err, h)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url}, h.logger)
}

// EnrichClient fetches supplementary profile data and merges it in.
func (h *Handler) EnrichClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.clients.Enrich(r.Context(), id)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "enriched"}, h.logger)
		return
	}

	logger := loggerFromContext(r, h.logger)
	switch {
	case errors.Is(err, docstore.ErrMissingID):
		writeError(w, r, http.StatusBadRequest, err.Error(), logger)
	case isTimeout(err):
		writeError(w, r, http.StatusGatewayTimeout, err.Error(), logger)
	case isNotFound(err):
		writeError(w, r, http.StatusNotFound, err.Error(), logger)
	default:
		writeError(w, r, http.StatusBadGateway, err.Error(), logger)
	}
}

func isTimeout(err error) bool {
	_, ok := enrich.AsTimeoutError(err)
	return ok
}

func isNotFound(err error) bool {
	var nf *enrich.NotFoundError
	return errors.As(err, &nf)
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error, h *Handler) {
	if errors.Is(err, docstore.ErrMissingID) {
		writeError(w, r, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	writeError(w, r, http.StatusBadGateway, err.Error(), h.logger)
}
