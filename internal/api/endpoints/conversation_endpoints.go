package endpoints

import (
	"context"
	"net/http"
	"strings"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/dto"
	"support-chat-backend/internal/identity"
	internaljwt "support-chat-backend/internal/jwt"
	"support-chat-backend/internal/model"
	conversationsvc "support-chat-backend/internal/service/conversation"
	"support-chat-backend/internal/websocket"
)

type ConversationService interface {
	CreateConversation(ctx context.Context, contactSessionID, organizationID string) (conversationsvc.Created, error)
	GetVisitorConversation(ctx context.Context, contactSessionID, conversationID string) (model.ConversationItem, error)
	GetOperatorConversation(ctx context.Context, op identity.Operator, conversationID string) (conversationsvc.View, error)
	ListVisitorConversations(ctx context.Context, contactSessionID string, limit int, cursor string) (model.Page[conversationsvc.View], error)
	ListOperatorConversations(ctx context.Context, op identity.Operator, status model.ConversationStatus, limit int, cursor string) (model.Page[conversationsvc.View], error)
	ListVisitorMessages(ctx context.Context, contactSessionID, threadID string, limit int, cursor string) (model.Page[model.MessageItem], error)
	ListOperatorMessages(ctx context.Context, op identity.Operator, conversationID string, limit int, cursor string) (model.Page[model.MessageItem], error)
	PostVisitorMessage(ctx context.Context, contactSessionID, threadID, prompt string) (conversationsvc.Posted, error)
	PostOperatorMessage(ctx context.Context, op identity.Operator, conversationID, text string) (conversationsvc.Posted, error)
	SetConversationStatus(ctx context.Context, op identity.Operator, conversationID string, status model.ConversationStatus) (conversationsvc.Posted, error)
	EnhanceOperatorDraft(ctx context.Context, op identity.Operator, text string) (string, error)
}

// RoomJoiner upgrades an authorized request into a websocket room member.
type RoomJoiner interface {
	JoinRoom(w http.ResponseWriter, r *http.Request, roomID, userID string)
}

type ConversationEndpoints interface {
	PublicConversations(http.ResponseWriter, *http.Request) error
	PublicConversation(http.ResponseWriter, *http.Request) error
	ThreadMessages(http.ResponseWriter, *http.Request) error
	Conversations(http.ResponseWriter, *http.Request) error
	Conversation(http.ResponseWriter, *http.Request) error
	ConversationStatus(http.ResponseWriter, *http.Request) error
	ConversationMessages(http.ResponseWriter, *http.Request) error
	Enhance(http.ResponseWriter, *http.Request) error
	Websocket(http.ResponseWriter, *http.Request) error
	NotificationsWebsocket(http.ResponseWriter, *http.Request) error
}

type conversationEndpoints struct {
	service   ConversationService
	publisher websocket.Publisher
	rooms     RoomJoiner
}

func NewConversationEndpoints(service ConversationService, publisher websocket.Publisher, rooms RoomJoiner) ConversationEndpoints {
	return &conversationEndpoints{
		service:   service,
		publisher: publisher,
		rooms:     rooms,
	}
}

func (h *conversationEndpoints) PublicConversations(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:  h.handleListVisitorConversations,
		http.MethodPost: h.handleCreateConversation,
	})
}

func (h *conversationEndpoints) PublicConversation(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleGetVisitorConversation,
	})
}

func (h *conversationEndpoints) ThreadMessages(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:  h.handleListVisitorMessages,
		http.MethodPost: h.handlePostVisitorMessage,
	})
}

func (h *conversationEndpoints) Conversations(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListConversations,
	})
}

func (h *conversationEndpoints) Conversation(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleGetConversation,
	})
}

func (h *conversationEndpoints) ConversationStatus(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPatch: h.handleSetStatus,
	})
}

func (h *conversationEndpoints) ConversationMessages(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:  h.handleListMessages,
		http.MethodPost: h.handlePostOperatorMessage,
	})
}

func (h *conversationEndpoints) Enhance(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleEnhance,
	})
}

func (h *conversationEndpoints) handleCreateConversation(w http.ResponseWriter, r *http.Request) error {
	var req dto.CreateConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	created, err := h.service.CreateConversation(r.Context(), req.ContactSessionID, req.OrganizationID)
	if err != nil {
		return err
	}

	resp := dto.CreateConversationResponse{Conversation: toConversationResponse(created.Conversation)}
	view := dto.ConversationView{Conversation: resp.Conversation}
	if created.Greeting != nil {
		greeting := toMessageResponse(*created.Greeting)
		resp.Greeting = &greeting
		view.LastMessage = &greeting
	}

	publish(r.Context(), h.publisher, websocket.Event{Type: websocket.EventConversationCreated, Data: view},
		websocket.NotificationsRoom(created.Conversation.OrganizationID))

	return WriteJSON(w, http.StatusCreated, resp)
}

func (h *conversationEndpoints) handleListVisitorConversations(w http.ResponseWriter, r *http.Request) error {
	limit, cursor := pageParams(r)
	page, err := h.service.ListVisitorConversations(r.Context(), r.URL.Query().Get("contactSessionId"), limit, cursor)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, toPage(page, toConversationView))
}

func (h *conversationEndpoints) handleGetVisitorConversation(w http.ResponseWriter, r *http.Request) error {
	conversationID, err := pathValue(r, "conversationId")
	if err != nil {
		return err
	}

	conversation, err := h.service.GetVisitorConversation(r.Context(), r.URL.Query().Get("contactSessionId"), conversationID)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, toConversationResponse(conversation))
}

func (h *conversationEndpoints) handleListVisitorMessages(w http.ResponseWriter, r *http.Request) error {
	threadID, err := pathValue(r, "threadId")
	if err != nil {
		return err
	}

	limit, cursor := pageParams(r)
	page, err := h.service.ListVisitorMessages(r.Context(), r.URL.Query().Get("contactSessionId"), threadID, limit, cursor)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, toPage(page, toMessageResponse))
}

func (h *conversationEndpoints) handlePostVisitorMessage(w http.ResponseWriter, r *http.Request) error {
	threadID, err := pathValue(r, "threadId")
	if err != nil {
		return err
	}

	var req dto.PostVisitorMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	posted, err := h.service.PostVisitorMessage(r.Context(), req.ContactSessionID, threadID, req.Prompt)
	if err != nil {
		return err
	}

	h.publishPosted(r.Context(), posted)
	return WriteJSON(w, http.StatusCreated, toPostMessageResponse(posted))
}

func (h *conversationEndpoints) handleListConversations(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	limit, cursor := pageParams(r)
	status := model.ConversationStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	page, err := h.service.ListOperatorConversations(r.Context(), op, status, limit, cursor)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, toPage(page, toConversationView))
}

func (h *conversationEndpoints) handleGetConversation(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}
	conversationID, err := pathValue(r, "conversationId")
	if err != nil {
		return err
	}

	view, err := h.service.GetOperatorConversation(r.Context(), op, conversationID)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, toConversationView(view))
}

func (h *conversationEndpoints) handleSetStatus(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}
	conversationID, err := pathValue(r, "conversationId")
	if err != nil {
		return err
	}

	var req dto.SetConversationStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	posted, err := h.service.SetConversationStatus(r.Context(), op, conversationID, model.ConversationStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		return err
	}

	h.publishPosted(r.Context(), posted)
	return WriteJSON(w, http.StatusOK, toConversationResponse(posted.Conversation))
}

func (h *conversationEndpoints) handleListMessages(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}
	conversationID, err := pathValue(r, "conversationId")
	if err != nil {
		return err
	}

	limit, cursor := pageParams(r)
	page, err := h.service.ListOperatorMessages(r.Context(), op, conversationID, limit, cursor)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, toPage(page, toMessageResponse))
}

func (h *conversationEndpoints) handlePostOperatorMessage(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}
	conversationID, err := pathValue(r, "conversationId")
	if err != nil {
		return err
	}

	var req dto.PostOperatorMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	posted, err := h.service.PostOperatorMessage(r.Context(), op, conversationID, req.Content)
	if err != nil {
		return err
	}

	h.publishPosted(r.Context(), posted)
	return WriteJSON(w, http.StatusCreated, toPostMessageResponse(posted))
}

func (h *conversationEndpoints) handleEnhance(w http.ResponseWriter, r *http.Request) error {
	op, err := operator(r)
	if err != nil {
		return err
	}

	var req dto.EnhanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	enhanced, err := h.service.EnhanceOperatorDraft(r.Context(), op, req.Content)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, dto.EnhanceResponse{Content: enhanced})
}

// publishPosted fans out new messages to the conversation room and the organization inbox,
// followed by a status event when the write moved the conversation.
func (h *conversationEndpoints) publishPosted(ctx context.Context, posted conversationsvc.Posted) {
	conversation := posted.Conversation
	rooms := []string{
		websocket.ConversationRoom(conversation.ConversationID),
		websocket.NotificationsRoom(conversation.OrganizationID),
	}

	for _, message := range posted.Messages {
		publish(ctx, h.publisher, websocket.Event{
			Type: websocket.EventMessageCreated,
			Data: dto.MessageEvent{ConversationID: conversation.ConversationID, Message: toMessageResponse(message)},
		}, rooms...)
	}

	if posted.StatusChanged() {
		publish(ctx, h.publisher, websocket.Event{
			Type: websocket.EventConversationStatus,
			Data: dto.StatusEvent{
				ConversationID: conversation.ConversationID,
				PreviousStatus: string(posted.PreviousStatus),
				Status:         string(conversation.Status),
			},
		}, rooms...)
	}
}

// Websocket joins the conversation room. Visitors prove ownership with their
// contact session; operators with an access token of the owning organization.
func (h *conversationEndpoints) Websocket(w http.ResponseWriter, r *http.Request) error {
	conversationID, err := pathValue(r, "conversationId")
	if err != nil {
		return err
	}
	if h.rooms == nil {
		return &HTTPError{StatusCode: http.StatusServiceUnavailable, Code: apperror.CodeInternal, Message: "Websocket not available"}
	}

	query := r.URL.Query()
	switch role := query.Get("role"); role {
	case "visitor":
		contactSessionID := query.Get("contactSessionId")
		if _, err := h.service.GetVisitorConversation(r.Context(), contactSessionID, conversationID); err != nil {
			return err
		}
		h.rooms.JoinRoom(w, r, websocket.ConversationRoom(conversationID), "visitor:"+contactSessionID)
		return nil

	case "operator":
		op, err := internaljwt.OperatorFromToken(query.Get("token"))
		if err != nil {
			return apperror.New(apperror.CodeUnauthorized, "Unauthorized", err)
		}
		if _, err := h.service.GetOperatorConversation(r.Context(), op, conversationID); err != nil {
			return err
		}
		h.rooms.JoinRoom(w, r, websocket.ConversationRoom(conversationID), "operator:"+op.OperatorID)
		return nil

	default:
		return apperror.BadRequest("Missing or invalid role parameter")
	}
}

func (h *conversationEndpoints) NotificationsWebsocket(w http.ResponseWriter, r *http.Request) error {
	if h.rooms == nil {
		return &HTTPError{StatusCode: http.StatusServiceUnavailable, Code: apperror.CodeInternal, Message: "Websocket not available"}
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		return apperror.Unauthorized("Missing token")
	}

	op, err := internaljwt.OperatorFromToken(token)
	if err != nil {
		return apperror.New(apperror.CodeUnauthorized, "Unauthorized", err)
	}

	h.rooms.JoinRoom(w, r, websocket.NotificationsRoom(op.OrganizationID), "operator:"+op.OperatorID)
	return nil
}
