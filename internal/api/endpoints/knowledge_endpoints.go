package endpoints

import (
	"context"
	"net/http"

	"support-chat-backend/internal/dto"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/model"
	knowledgesvc "support-chat-backend/internal/service/knowledge"
)

type KnowledgeService interface {
	AddEntry(ctx context.Context, op identity.Operator, input knowledgesvc.EntryInput) (model.KnowledgeEntryItem, error)
	ListEntries(ctx context.Context, op identity.Operator) ([]model.KnowledgeEntryItem, error)
	DeleteEntry(ctx context.Context, op identity.Operator, entryID string) error
}

type KnowledgeEndpoints interface {
	Entries(http.ResponseWriter, *http.Request) error
	Entry(http.ResponseWriter, *http.Request) error
}

type knowledgeEndpoints struct {
	service KnowledgeService
}

func NewKnowledgeEndpoints(service KnowledgeService) KnowledgeEndpoints {
	return &knowledgeEndpoints{service: service}
}

func (h *knowledgeEndpoints) Entries(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:  h.handleList,
		http.MethodPost: h.handleAdd,
	})
}

func (h *knowledgeEndpoints) Entry(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodDelete: h.handleDelete,
	})
}

func (h *knowledgeEndpoints) handleList(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	entries, err := h.service.ListEntries(r.Context(), op)
	if err != nil {
		return err
	}

	resp := make([]dto.KnowledgeEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, toKnowledgeEntryResponse(entry))
	}
	return WriteJSON(w, http.StatusOK, resp)
}

func (h *knowledgeEndpoints) handleAdd(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	var req dto.KnowledgeEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	entry, err := h.service.AddEntry(r.Context(), op, knowledgesvc.EntryInput{
		Title:    req.Title,
		Content:  req.Content,
		MimeType: req.MimeType,
	})
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusCreated, toKnowledgeEntryResponse(entry))
}

func (h *knowledgeEndpoints) handleDelete(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}
	entryID, err := pathValue(r, "entryId")
	if err != nil {
		return err
	}

	if err := h.service.DeleteEntry(r.Context(), op, entryID); err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Entry deleted"})
}
