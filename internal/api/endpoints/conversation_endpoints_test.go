package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"support-chat-backend/internal/api"
	"support-chat-backend/internal/api/middleware"
	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/dto"
	"support-chat-backend/internal/identity"
	internaljwt "support-chat-backend/internal/jwt"
	"support-chat-backend/internal/model"
	conversationsvc "support-chat-backend/internal/service/conversation"
	"support-chat-backend/internal/websocket"
)

const (
	testOrganizationID = "org-1"
	testSessionID      = "cs-1"
)

var testConversation = model.ConversationItem{
	ConversationID:   "conv-1",
	OrganizationID:   testOrganizationID,
	ContactSessionID: testSessionID,
	ThreadID:         "thread-1",
	Status:           model.ConversationStatusUnresolved,
	CreatedAt:        "2024-01-01T12:00:00Z",
	UpdatedAt:        "2024-01-01T12:00:00Z",
}

type fakeConversationService struct {
	mu         sync.Mutex
	lastLimit  int
	lastCursor string
	lastStatus model.ConversationStatus
	lastPrompt string
	lastOp     identity.Operator
	posted     conversationsvc.Posted
	postErr    error
	enhanced   string
}

func (f *fakeConversationService) CreateConversation(ctx context.Context, contactSessionID, organizationID string) (conversationsvc.Created, error) {
	if contactSessionID != testSessionID {
		return conversationsvc.Created{}, apperror.Unauthorized("Invalid session")
	}
	greeting := model.MessageItem{ThreadID: "thread-1", Order: 1, MessageID: "m-0", Role: model.MessageRoleAssistant, Content: "Hi! How can I help you today?"}
	return conversationsvc.Created{Conversation: testConversation, Greeting: &greeting}, nil
}

func (f *fakeConversationService) GetVisitorConversation(ctx context.Context, contactSessionID, conversationID string) (model.ConversationItem, error) {
	if contactSessionID != testSessionID {
		return model.ConversationItem{}, apperror.Unauthorized("Invalid session")
	}
	if conversationID != testConversation.ConversationID {
		return model.ConversationItem{}, apperror.NotFound("Conversation not found")
	}
	return testConversation, nil
}

func (f *fakeConversationService) GetOperatorConversation(ctx context.Context, op identity.Operator, conversationID string) (conversationsvc.View, error) {
	if op.OrganizationID != testOrganizationID || conversationID != testConversation.ConversationID {
		return conversationsvc.View{}, apperror.NotFound("Conversation not found")
	}
	return conversationsvc.View{Conversation: testConversation}, nil
}

func (f *fakeConversationService) ListVisitorConversations(ctx context.Context, contactSessionID string, limit int, cursor string) (model.Page[conversationsvc.View], error) {
	return model.Page[conversationsvc.View]{IsDone: true}, nil
}

func (f *fakeConversationService) ListOperatorConversations(ctx context.Context, op identity.Operator, status model.ConversationStatus, limit int, cursor string) (model.Page[conversationsvc.View], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOp, f.lastStatus, f.lastLimit, f.lastCursor = op, status, limit, cursor
	return model.Page[conversationsvc.View]{
		Page:           []conversationsvc.View{{Conversation: testConversation}},
		ContinueCursor: "next",
	}, nil
}

func (f *fakeConversationService) ListVisitorMessages(ctx context.Context, contactSessionID, threadID string, limit int, cursor string) (model.Page[model.MessageItem], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit, f.lastCursor = limit, cursor
	if contactSessionID != testSessionID {
		return model.Page[model.MessageItem]{}, apperror.Unauthorized("Invalid session")
	}
	return model.Page[model.MessageItem]{
		Page: []model.MessageItem{{ThreadID: threadID, Order: 2, MessageID: "m-2", Role: model.MessageRoleUser, Content: "hello"}},
	}, nil
}

func (f *fakeConversationService) ListOperatorMessages(ctx context.Context, op identity.Operator, conversationID string, limit int, cursor string) (model.Page[model.MessageItem], error) {
	return model.Page[model.MessageItem]{IsDone: true}, nil
}

func (f *fakeConversationService) PostVisitorMessage(ctx context.Context, contactSessionID, threadID, prompt string) (conversationsvc.Posted, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPrompt = prompt
	return f.posted, f.postErr
}

func (f *fakeConversationService) PostOperatorMessage(ctx context.Context, op identity.Operator, conversationID, text string) (conversationsvc.Posted, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOp, f.lastPrompt = op, text
	return f.posted, f.postErr
}

func (f *fakeConversationService) SetConversationStatus(ctx context.Context, op identity.Operator, conversationID string, status model.ConversationStatus) (conversationsvc.Posted, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastStatus = status
	next := testConversation
	next.Status = status
	return conversationsvc.Posted{Conversation: next, PreviousStatus: testConversation.Status}, nil
}

func (f *fakeConversationService) EnhanceOperatorDraft(ctx context.Context, op identity.Operator, text string) (string, error) {
	if f.enhanced == "" {
		return "", apperror.BadRequest("Missing subscription")
	}
	return f.enhanced, nil
}

type publishedEvent struct {
	room  string
	event websocket.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, roomID string, event websocket.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{room: roomID, event: event})
	return nil
}

func (p *fakePublisher) types(room string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.room == room {
			out = append(out, e.event.Type)
		}
	}
	return out
}

type fakeRoomJoiner struct {
	mu     sync.Mutex
	room   string
	userID string
}

func (j *fakeRoomJoiner) JoinRoom(w http.ResponseWriter, r *http.Request, roomID, userID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.room, j.userID = roomID, userID
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func setupConversationHandler(t *testing.T, service *fakeConversationService, publisher *fakePublisher, rooms *fakeRoomJoiner) http.Handler {
	t.Helper()
	setupTestJWT(t)
	server := newTestAPIServer(t)

	var (
		pub    websocket.Publisher
		joiner RoomJoiner
	)
	if publisher != nil {
		pub = publisher
	}
	if rooms != nil {
		joiner = rooms
	}
	h := NewConversationEndpoints(service, pub, joiner)

	mux := http.NewServeMux()
	mux.HandleFunc("/public/conversations", server.MakeHTTPHandleFunc(h.PublicConversations))
	mux.HandleFunc("/public/conversations/{conversationId}", server.MakeHTTPHandleFunc(h.PublicConversation))
	mux.HandleFunc("/public/threads/{threadId}/messages", server.MakeHTTPHandleFunc(h.ThreadMessages))
	mux.HandleFunc("/client/conversations", server.MakeHTTPHandleFunc(h.Conversations, middleware.ValidateUserJWT))
	mux.HandleFunc("/client/conversations/{conversationId}", server.MakeHTTPHandleFunc(h.Conversation, middleware.ValidateUserJWT))
	mux.HandleFunc("/client/conversations/{conversationId}/status", server.MakeHTTPHandleFunc(h.ConversationStatus, middleware.ValidateUserJWT))
	mux.HandleFunc("/client/conversations/{conversationId}/messages", server.MakeHTTPHandleFunc(h.ConversationMessages, middleware.ValidateUserJWT))
	mux.HandleFunc("/client/messages/enhance", server.MakeHTTPHandleFunc(h.Enhance, middleware.ValidateUserJWT))
	mux.HandleFunc("/ws/conversations/{conversationId}", server.MakeHTTPHandleFunc(h.Websocket))
	mux.HandleFunc("/ws/notifications", server.MakeHTTPHandleFunc(h.NotificationsWebsocket))
	return mux
}

func operatorToken(t *testing.T, organizationID string) string {
	t.Helper()
	token, err := internaljwt.CreateToken(internaljwt.User{
		Id:             "op-1",
		Email:          "agent@example.com",
		Name:           "Agent",
		OrganizationID: organizationID,
	}, internaljwt.RoleUser, 0)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	return token
}

func TestCreateConversationPublishesToInbox(t *testing.T) {
	publisher := &fakePublisher{}
	handler := setupConversationHandler(t, &fakeConversationService{}, publisher, nil)

	resp := doJSONRequest[dto.CreateConversationResponse](t, handler, http.MethodPost, "/public/conversations", map[string]interface{}{
		"contactSessionId": testSessionID,
		"organizationId":   testOrganizationID,
	}, nil, http.StatusCreated)

	if resp.Conversation.ConversationID != testConversation.ConversationID {
		t.Fatalf("expected conversation %s, got %s", testConversation.ConversationID, resp.Conversation.ConversationID)
	}
	if resp.Greeting == nil || resp.Greeting.Role != string(model.MessageRoleAssistant) {
		t.Fatalf("expected assistant greeting, got %#v", resp.Greeting)
	}

	got := publisher.types(websocket.NotificationsRoom(testOrganizationID))
	if len(got) != 1 || got[0] != websocket.EventConversationCreated {
		t.Fatalf("expected one conversation.created event, got %v", got)
	}
}

func TestCreateConversationRejectsInvalidSession(t *testing.T) {
	publisher := &fakePublisher{}
	handler := setupConversationHandler(t, &fakeConversationService{}, publisher, nil)

	resp := doJSONRequest[api.ApiError](t, handler, http.MethodPost, "/public/conversations", map[string]interface{}{
		"contactSessionId": "expired",
		"organizationId":   testOrganizationID,
	}, nil, http.StatusUnauthorized)

	if resp.Message != "Invalid session" {
		t.Fatalf("expected Invalid session, got %s", resp.Message)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no events on failure, got %d", len(publisher.events))
	}
}

func TestGetVisitorConversationMapsNotFound(t *testing.T) {
	handler := setupConversationHandler(t, &fakeConversationService{}, &fakePublisher{}, nil)

	doJSONRequest[dto.ConversationResponse](t, handler, http.MethodGet, "/public/conversations/conv-1?contactSessionId="+testSessionID, nil, nil, http.StatusOK)

	resp := doJSONRequest[api.ApiError](t, handler, http.MethodGet, "/public/conversations/missing?contactSessionId="+testSessionID, nil, nil, http.StatusNotFound)
	if resp.Code != apperror.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %s", resp.Code)
	}
}

func TestListVisitorMessagesPassesPaging(t *testing.T) {
	service := &fakeConversationService{}
	handler := setupConversationHandler(t, service, &fakePublisher{}, nil)

	resp := doJSONRequest[dto.PageResponse[dto.MessageResponse]](t, handler, http.MethodGet,
		"/public/threads/thread-1/messages?contactSessionId="+testSessionID+"&numItems=5&cursor=abc", nil, nil, http.StatusOK)

	if len(resp.Page) != 1 || resp.Page[0].Content != "hello" {
		t.Fatalf("unexpected page: %#v", resp.Page)
	}
	if service.lastLimit != 5 || service.lastCursor != "abc" {
		t.Fatalf("expected limit 5 and cursor abc, got %d %q", service.lastLimit, service.lastCursor)
	}
}

func TestPostVisitorMessagePublishesMessagesAndStatus(t *testing.T) {
	escalated := testConversation
	escalated.Status = model.ConversationStatusEscalated
	service := &fakeConversationService{
		posted: conversationsvc.Posted{
			Conversation: escalated,
			Messages: []model.MessageItem{
				{ThreadID: "thread-1", Order: 2, MessageID: "m-2", Role: model.MessageRoleUser, Content: "I want a human"},
				{ThreadID: "thread-1", Order: 3, MessageID: "m-3", Role: model.MessageRoleAssistant, Content: "Connecting you now."},
			},
			PreviousStatus: model.ConversationStatusUnresolved,
			AgentTriggered: true,
		},
	}
	publisher := &fakePublisher{}
	handler := setupConversationHandler(t, service, publisher, nil)

	resp := doJSONRequest[dto.PostMessageResponse](t, handler, http.MethodPost, "/public/threads/thread-1/messages", map[string]interface{}{
		"contactSessionId": testSessionID,
		"prompt":           "I want a human",
	}, nil, http.StatusCreated)

	if !resp.AgentTriggered || len(resp.Messages) != 2 {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if service.lastPrompt != "I want a human" {
		t.Fatalf("expected prompt forwarded, got %q", service.lastPrompt)
	}

	want := []string{websocket.EventMessageCreated, websocket.EventMessageCreated, websocket.EventConversationStatus}
	for _, room := range []string{websocket.ConversationRoom("conv-1"), websocket.NotificationsRoom(testOrganizationID)} {
		got := publisher.types(room)
		if len(got) != len(want) {
			t.Fatalf("room %s: expected %v, got %v", room, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("room %s: expected %v, got %v", room, want, got)
			}
		}
	}
}

func TestPostVisitorMessageRejectsResolvedConversation(t *testing.T) {
	service := &fakeConversationService{postErr: apperror.BadRequest("Conversation resolved")}
	publisher := &fakePublisher{}
	handler := setupConversationHandler(t, service, publisher, nil)

	resp := doJSONRequest[api.ApiError](t, handler, http.MethodPost, "/public/threads/thread-1/messages", map[string]interface{}{
		"contactSessionId": testSessionID,
		"prompt":           "hello?",
	}, nil, http.StatusBadRequest)

	if resp.Message != "Conversation resolved" {
		t.Fatalf("expected Conversation resolved, got %s", resp.Message)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no events, got %d", len(publisher.events))
	}
}

func TestOperatorRoutesRequireToken(t *testing.T) {
	handler := setupConversationHandler(t, &fakeConversationService{}, &fakePublisher{}, nil)

	doJSONRequest[api.ApiError](t, handler, http.MethodGet, "/client/conversations", nil, nil, http.StatusUnauthorized)
	doJSONRequest[api.ApiError](t, handler, http.MethodPatch, "/client/conversations/conv-1/status", map[string]interface{}{
		"status": "escalated",
	}, nil, http.StatusUnauthorized)
}

func TestListOperatorConversationsFiltersByStatus(t *testing.T) {
	service := &fakeConversationService{}
	handler := setupConversationHandler(t, service, &fakePublisher{}, nil)
	token := operatorToken(t, testOrganizationID)

	resp := doJSONRequest[dto.PageResponse[dto.ConversationView]](t, handler, http.MethodGet,
		"/client/conversations?status=escalated&numItems=10", nil, bearer(token), http.StatusOK)

	if len(resp.Page) != 1 || resp.ContinueCursor != "next" || resp.IsDone {
		t.Fatalf("unexpected page: %#v", resp)
	}
	if service.lastStatus != model.ConversationStatusEscalated || service.lastLimit != 10 {
		t.Fatalf("expected escalated filter with limit 10, got %q %d", service.lastStatus, service.lastLimit)
	}
	if service.lastOp.OrganizationID != testOrganizationID || service.lastOp.OperatorID != "op-1" {
		t.Fatalf("expected operator identity from token, got %#v", service.lastOp)
	}
}

func TestGetOperatorConversationOtherOrganization(t *testing.T) {
	handler := setupConversationHandler(t, &fakeConversationService{}, &fakePublisher{}, nil)

	doJSONRequest[dto.ConversationView](t, handler, http.MethodGet, "/client/conversations/conv-1", nil, bearer(operatorToken(t, testOrganizationID)), http.StatusOK)
	doJSONRequest[api.ApiError](t, handler, http.MethodGet, "/client/conversations/conv-1", nil, bearer(operatorToken(t, "org-2")), http.StatusNotFound)
}

func TestSetConversationStatusPublishesStatusEvent(t *testing.T) {
	service := &fakeConversationService{}
	publisher := &fakePublisher{}
	handler := setupConversationHandler(t, service, publisher, nil)

	resp := doJSONRequest[dto.ConversationResponse](t, handler, http.MethodPatch, "/client/conversations/conv-1/status", map[string]interface{}{
		"status": "escalated",
	}, bearer(operatorToken(t, testOrganizationID)), http.StatusOK)

	if resp.Status != string(model.ConversationStatusEscalated) {
		t.Fatalf("expected escalated, got %s", resp.Status)
	}

	got := publisher.types(websocket.ConversationRoom("conv-1"))
	if len(got) != 1 || got[0] != websocket.EventConversationStatus {
		t.Fatalf("expected one status event, got %v", got)
	}

	publisher.mu.Lock()
	data, ok := publisher.events[0].event.Data.(dto.StatusEvent)
	publisher.mu.Unlock()
	if !ok || data.PreviousStatus != "unresolved" || data.Status != "escalated" {
		t.Fatalf("unexpected status event payload: %#v", publisher.events[0].event.Data)
	}
}

func TestPostOperatorMessage(t *testing.T) {
	service := &fakeConversationService{
		posted: conversationsvc.Posted{
			Conversation:   testConversation,
			Messages:       []model.MessageItem{{ThreadID: "thread-1", Order: 4, MessageID: "m-4", Role: model.MessageRoleAssistant, AuthorName: "Agent", Content: "On it"}},
			PreviousStatus: testConversation.Status,
		},
	}
	publisher := &fakePublisher{}
	handler := setupConversationHandler(t, service, publisher, nil)

	resp := doJSONRequest[dto.PostMessageResponse](t, handler, http.MethodPost, "/client/conversations/conv-1/messages", map[string]interface{}{
		"content": "On it",
	}, bearer(operatorToken(t, testOrganizationID)), http.StatusCreated)

	if resp.AgentTriggered || len(resp.Messages) != 1 || resp.Messages[0].AuthorName != "Agent" {
		t.Fatalf("unexpected response: %#v", resp)
	}
	got := publisher.types(websocket.ConversationRoom("conv-1"))
	if len(got) != 1 || got[0] != websocket.EventMessageCreated {
		t.Fatalf("expected one message.created event, got %v", got)
	}
}

func TestEnhanceOperatorDraft(t *testing.T) {
	handler := setupConversationHandler(t, &fakeConversationService{enhanced: "Thanks for waiting!"}, &fakePublisher{}, nil)
	token := operatorToken(t, testOrganizationID)

	resp := doJSONRequest[dto.EnhanceResponse](t, handler, http.MethodPost, "/client/messages/enhance", map[string]interface{}{
		"content": "thx 4 waiting",
	}, bearer(token), http.StatusOK)
	if resp.Content != "Thanks for waiting!" {
		t.Fatalf("unexpected enhancement %q", resp.Content)
	}

	handler = setupConversationHandler(t, &fakeConversationService{}, &fakePublisher{}, nil)
	doJSONRequest[api.ApiError](t, handler, http.MethodPost, "/client/messages/enhance", map[string]interface{}{
		"content": "thx",
	}, bearer(token), http.StatusBadRequest)
}

func serve(handler http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestWebsocketJoinsConversationRoom(t *testing.T) {
	rooms := &fakeRoomJoiner{}
	handler := setupConversationHandler(t, &fakeConversationService{}, nil, rooms)

	rec := serve(handler, http.MethodGet, "/ws/conversations/conv-1?role=visitor&contactSessionId="+testSessionID)
	if rec.Code != http.StatusSwitchingProtocols {
		t.Fatalf("expected upgrade, got %d: %s", rec.Code, rec.Body.String())
	}
	if rooms.room != websocket.ConversationRoom("conv-1") || rooms.userID != "visitor:"+testSessionID {
		t.Fatalf("unexpected join %q %q", rooms.room, rooms.userID)
	}

	rec = serve(handler, http.MethodGet, "/ws/conversations/conv-1?role=operator&token="+operatorToken(t, testOrganizationID))
	if rec.Code != http.StatusSwitchingProtocols || rooms.userID != "operator:op-1" {
		t.Fatalf("expected operator join, got %d %q", rec.Code, rooms.userID)
	}
}

func TestWebsocketRejectsUnauthorizedJoins(t *testing.T) {
	rooms := &fakeRoomJoiner{}
	handler := setupConversationHandler(t, &fakeConversationService{}, nil, rooms)

	cases := []struct {
		target string
		status int
	}{
		{"/ws/conversations/conv-1", http.StatusBadRequest},
		{"/ws/conversations/conv-1?role=visitor&contactSessionId=other", http.StatusUnauthorized},
		{"/ws/conversations/conv-1?role=operator&token=garbage", http.StatusUnauthorized},
		{"/ws/conversations/conv-1?role=operator&token=" + operatorToken(t, "org-2"), http.StatusNotFound},
		{"/ws/notifications", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rec := serve(handler, http.MethodGet, tc.target)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.target, tc.status, rec.Code)
		}
		var body api.ApiError
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode error body: %v", tc.target, err)
		}
	}
	if rooms.room != "" {
		t.Fatalf("expected no joins, got %q", rooms.room)
	}
}

func TestNotificationsWebsocketJoinsOrganizationRoom(t *testing.T) {
	rooms := &fakeRoomJoiner{}
	handler := setupConversationHandler(t, &fakeConversationService{}, nil, rooms)

	rec := serve(handler, http.MethodGet, "/ws/notifications?token="+operatorToken(t, testOrganizationID))
	if rec.Code != http.StatusSwitchingProtocols {
		t.Fatalf("expected upgrade, got %d", rec.Code)
	}
	if rooms.room != websocket.NotificationsRoom(testOrganizationID) {
		t.Fatalf("expected notifications room, got %q", rooms.room)
	}
}
