// Package handlers wires HTTP routes to the application services. Routes
// follow one shape per resource: list and create on the collection,
// get/replace/delete on the document, plus resource-specific actions.
package handlers

import (
	"log/slog"
	"net/http"

	appchat "agency-data-service/internal/app/chat"
	appclients "agency-data-service/internal/app/clients"
	appclubs "agency-data-service/internal/app/clubs"
	"agency-data-service/internal/app/records"
	"agency-data-service/internal/domain/activities"
	"agency-data-service/internal/domain/contracts"
	"agency-data-service/internal/domain/sponsors"
	"agency-data-service/internal/docstore"
	"agency-data-service/internal/domain/transfers"
	"agency-data-service/internal/errqueue"
	"agency-data-service/internal/registry"
)

// Config collects the services a Handler serves.
type Config struct {
	Clients    *appclients.Service
	Clubs      *appclubs.Service
	Contracts  *records.Service[contracts.Contract]
	Transfers  *records.Service[transfers.Transfer]
	Processes  *records.Service[transfers.Process]
	Sponsors   *records.Service[sponsors.Sponsor]
	Activities *records.Service[activities.Activity]
	Chats      *appchat.Service
	Blobs      docstore.BlobStore
	Errors     *errqueue.Queue
	Statuses   func() []registry.Status
	Logger     *slog.Logger
}

// Handler wires HTTP routes to the application services.
type Handler struct {
	clients    *appclients.Service
	clubs      *appclubs.Service
	contracts  *records.Service[contracts.Contract]
	transfers  *records.Service[transfers.Transfer]
	processes  *records.Service[transfers.Process]
	sponsors   *records.Service[sponsors.Sponsor]
	activities *records.Service[activities.Activity]
	chats      *appchat.Service
	blobs      docstore.BlobStore
	errs       *errqueue.Queue
	statuses   func() []registry.Status
	logger     *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		clients:    cfg.Clients,
		clubs:      cfg.Clubs,
		contracts:  cfg.Contracts,
		transfers:  cfg.Transfers,
		processes:  cfg.Processes,
		sponsors:   cfg.Sponsors,
		activities: cfg.Activities,
		chats:      cfg.Chats,
		blobs:      cfg.Blobs,
		errs:       cfg.Errors,
		statuses:   cfg.Statuses,
		logger:     cfg.Logger,
	}
}

// Register mounts every route on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)

	h.registerClients(mux)
	h.registerClubs(mux)
	h.registerChats(mux)
	h.registerErrors(mux)

	registerRecords(mux, "/contracts", h.contracts, h.logger)
	registerRecords(mux, "/transfers", h.transfers, h.logger)
	registerRecords(mux, "/transfer-processes", h.processes, h.logger)
	registerRecords(mux, "/sponsors", h.sponsors, h.logger)
	registerRecords(mux, "/activities", h.activities, h.logger)
	h.registerContractDocuments(mux)
}

// Health reports the service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic. The service is ready once every
// registry has merged its initial snapshot.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.statuses == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	for _, status := range h.statuses() {
		if !status.IsReady() {
			msg := status.LastError
			if msg == "" {
				msg = "not ready"
			}
			writeError(w, r, http.StatusServiceUnavailable, msg, h.logger)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
}
