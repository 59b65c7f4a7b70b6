package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"agency-data-service/internal/app/records"
	"agency-data-service/internal/domain/contracts"
	"agency-data-service/internal/registry"
)

// registerRecords mounts the shared list/create/get/replace/delete routes
// for one record kind under the given path prefix.
func registerRecords[T registry.Entity](mux *http.ServeMux, prefix string, svc *records.Service[T], logger *slog.Logger) {
	mux.HandleFunc("GET "+prefix, func(w http.ResponseWriter, r *http.Request) {
		list := svc.List()
		writeJSON(w, http.StatusOK, map[string]any{"records": list, "count": len(list)}, logger)
	})

	mux.HandleFunc("POST "+prefix, func(w http.ResponseWriter, r *http.Request) {
		var record T
		if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body", logger)
			return
		}
		id, err := svc.Create(r.Context(), record)
		if err != nil {
			writeError(w, r, http.StatusBadGateway, err.Error(), logger)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id}, logger)
	})

	mux.HandleFunc("GET "+prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		record, ok := svc.Get(r.PathValue("id"))
		if !ok {
			writeError(w, r, http.StatusNotFound, "record not found", logger)
			return
		}
		writeJSON(w, http.StatusOK, record, logger)
	})

	mux.HandleFunc("PUT "+prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "failed to read body", logger)
			return
		}
		record, ok := decodeWithID[T](body, r.PathValue("id"))
		if !ok {
			writeError(w, r, http.StatusBadRequest, "invalid request body", logger)
			return
		}
		if err := svc.Update(r.Context(), record); err != nil {
			writeError(w, r, http.StatusBadGateway, err.Error(), logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"}, logger)
	})

	mux.HandleFunc("DELETE "+prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, r, http.StatusBadGateway, err.Error(), logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, logger)
	})
}

// decodeWithID unmarshals a record and forces the path ID onto it. Record
// IDs live in the "id" JSON field on every kind, so a map round trip keeps
// this generic without per-kind setters.
func decodeWithID[T any](body []byte, id string) (T, bool) {
	var zero T
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return zero, false
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["id"] = id

	raw, err := json.Marshal(fields)
	if err != nil {
		return zero, false
	}
	var record T
	if err := json.Unmarshal(raw, &record); err != nil {
		return zero, false
	}
	return record, true
}

// registerContractDocuments mounts the contract document upload, the one
// record action that goes beyond the shared CRUD shape.
func (h *Handler) registerContractDocuments(mux *http.ServeMux) {
	mux.HandleFunc("POST /contracts/{id}/document", h.UploadContractDocument)
}

// UploadContractDocument stores the request body and merges the resulting
// URL onto the contract.
func (h *Handler) UploadContractDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read upload", h.logger)
		return
	}
	if len(data) == 0 {
		writeError(w, r, http.StatusBadRequest, "empty upload", h.logger)
		return
	}

	url, err := h.uploadBlob(r.Context(), "contracts/"+id+"/document", data, r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error(), h.logger)
		return
	}
	if err := h.contracts.Patch(r.Context(), id, contracts.DocumentPatch(url)); err != nil {
		writeStoreError(w, r, err, h)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url}, h.logger)
}

func (h *Handler) uploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if h.blobs == nil {
		return "", errors.New("blob store not configured")
	}
	return h.blobs.Upload(ctx, path, data, contentType)
}
