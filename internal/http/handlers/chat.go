package handlers

import (
	"encoding/json"
	"net/http"

	"agency-data-service/internal/domain/chat"
)

func (h *Handler) registerChats(mux *http.ServeMux) {
	mux.HandleFunc("GET /chats", h.ListChats)
	mux.HandleFunc("POST /chats", h.CreateChat)
	mux.HandleFunc("DELETE /chats/{id}", h.DeleteChat)
	mux.HandleFunc("GET /chats/{id}/messages", h.ListMessages)
	mux.HandleFunc("POST /chats/{id}/messages", h.SendMessage)
}

// ListChats returns the current conversation snapshot.
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	list := h.chats.List()
	writeJSON(w, http.StatusOK, map[string]any{"chats": list, "count": len(list)}, h.logger)
}

// CreateChat starts a new conversation.
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var c chat.Chat
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	id, err := h.chats.Create(r.Context(), c)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error(), h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id}, h.logger)
}

// DeleteChat removes a conversation.
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := h.chats.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, r, err, h)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, h.logger)
}

// ListMessages returns a conversation's messages oldest first.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chats.Messages(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, h)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs, "count": len(msgs)}, h.logger)
}

// SendMessage appends a message and refreshes the conversation summary.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var msg chat.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if msg.SenderID == "" || msg.Text == "" {
		writeError(w, r, http.StatusBadRequest, "sender and text are required", h.logger)
		return
	}
	id, err := h.chats.Send(r.Context(), r.PathValue("id"), msg)
	if err != nil {
		writeStoreError(w, r, err, h)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id}, h.logger)
}
