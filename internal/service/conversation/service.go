package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"support-chat-backend/internal/agent"
	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/database"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/model"

	"github.com/google/uuid"
)

const (
	DefaultPageSize   = 20
	maxPageSize       = 100
	historyLimit      = 30
	maxMessageLength  = 4000
	statusChangedText = "Conversation status changed, reload and try again"
)

type SessionStore interface {
	Require(ctx context.Context, contactSessionID string) (model.ContactSessionItem, error)
	Refresh(ctx context.Context, contactSessionID string) (model.ContactSessionItem, error)
	Get(ctx context.Context, contactSessionID string) (*model.ContactSessionItem, error)
}

type OrganizationStore interface {
	GetSubscription(ctx context.Context, organizationID string) (*model.SubscriptionItem, error)
	GetWidgetSettings(ctx context.Context, organizationID string) (*model.WidgetSettingsItem, error)
}

type KnowledgeSearcher interface {
	Search(ctx context.Context, organizationID, query string, limit int) ([]model.KnowledgeEntryItem, error)
}

type Enhancer interface {
	Enhance(ctx context.Context, draft string) (string, error)
}

type Dependencies struct {
	Sessions      SessionStore
	Organizations OrganizationStore
	Knowledge     KnowledgeSearcher
	Agent         agent.Agent
	AgentName     string
	Enhancer      Enhancer
	Metrics       *Metrics
}

type Service struct {
	repo Repository
	deps Dependencies
	now  func() time.Time
}

func New(db *database.Database, deps Dependencies) *Service {
	return NewWithRepository(NewDynamoRepository(db), deps, time.Now)
}

func NewWithRepository(repo Repository, deps Dependencies, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if deps.AgentName == "" {
		deps.AgentName = agent.DefaultName
	}
	return &Service{repo: repo, deps: deps, now: now}
}

// View is a conversation as shown in listings and the operator detail view.
type View struct {
	Conversation   model.ConversationItem
	ContactSession *model.ContactSessionItem
	LastMessage    *model.MessageItem
}

type Created struct {
	Conversation model.ConversationItem
	Greeting     *model.MessageItem
}

// Posted is the outcome of a message write. Messages are in thread order.
type Posted struct {
	Conversation   model.ConversationItem
	Messages       []model.MessageItem
	PreviousStatus model.ConversationStatus
	AgentTriggered bool
}

func (p Posted) StatusChanged() bool {
	return p.PreviousStatus != p.Conversation.Status
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *Service) CreateConversation(ctx context.Context, contactSessionID, organizationID string) (Created, error) {
	session, err := s.deps.Sessions.Require(ctx, contactSessionID)
	if err != nil {
		return Created{}, err
	}
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		organizationID = session.OrganizationID
	}
	if organizationID != session.OrganizationID {
		return Created{}, apperror.BadRequest("Invalid organization")
	}

	greetText := model.DefaultGreetMessage
	if s.deps.Organizations != nil {
		settings, err := s.deps.Organizations.GetWidgetSettings(ctx, organizationID)
		if err != nil {
			return Created{}, err
		}
		if settings != nil && strings.TrimSpace(settings.GreetMessage) != "" {
			greetText = settings.GreetMessage
		}
	}

	now := s.timestamp()
	threadID := uuid.NewString()
	conversation := model.ConversationItem{
		ConversationID:   uuid.NewString(),
		OrganizationID:   organizationID,
		ContactSessionID: session.ContactSessionID,
		ThreadID:         threadID,
		Status:           model.ConversationStatusUnresolved,
		OrgStatus:        model.OrganizationStatusKey(organizationID, model.ConversationStatusUnresolved),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	greeting := &model.MessageItem{
		ThreadID:   threadID,
		Order:      1,
		MessageID:  uuid.NewString(),
		Role:       model.MessageRoleAssistant,
		AuthorName: s.deps.AgentName,
		Content:    greetText,
		CreatedAt:  now,
	}
	thread := model.ThreadItem{
		ThreadID:       threadID,
		OrganizationID: organizationID,
		NextOrder:      greeting.Order,
		CreatedAt:      now,
	}

	if err := s.repo.CreateConversation(ctx, conversation, thread, greeting); err != nil {
		return Created{}, apperror.Internal("failed to create conversation", err)
	}
	return Created{Conversation: conversation, Greeting: greeting}, nil
}

func (s *Service) GetVisitorConversation(ctx context.Context, contactSessionID, conversationID string) (model.ConversationItem, error) {
	session, err := s.deps.Sessions.Require(ctx, contactSessionID)
	if err != nil {
		return model.ConversationItem{}, err
	}
	conversation, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return model.ConversationItem{}, err
	}
	if conversation.ContactSessionID != session.ContactSessionID {
		return model.ConversationItem{}, apperror.Unauthorized("Incorrect session")
	}
	return conversation, nil
}

func (s *Service) GetOperatorConversation(ctx context.Context, op identity.Operator, conversationID string) (View, error) {
	conversation, err := s.operatorConversation(ctx, op, conversationID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, conversation, true)
}

func (s *Service) ListOperatorConversations(
	ctx context.Context,
	op identity.Operator,
	status model.ConversationStatus,
	limit int,
	cursor string,
) (model.Page[View], error) {
	if err := op.Require(); err != nil {
		return model.Page[View]{}, err
	}
	if status != "" && !status.Valid() {
		return model.Page[View]{}, apperror.BadRequest("Invalid status")
	}

	page, err := s.repo.ListOrganizationConversations(ctx, op.OrganizationID, status, pageSize(limit), cursor)
	if err != nil {
		return model.Page[View]{}, listError(err, "failed to list conversations")
	}
	return s.views(ctx, page, true)
}

func (s *Service) ListVisitorConversations(ctx context.Context, contactSessionID string, limit int, cursor string) (model.Page[View], error) {
	session, err := s.deps.Sessions.Require(ctx, contactSessionID)
	if err != nil {
		return model.Page[View]{}, err
	}

	page, err := s.repo.ListSessionConversations(ctx, session.ContactSessionID, pageSize(limit), cursor)
	if err != nil {
		return model.Page[View]{}, listError(err, "failed to list conversations")
	}
	return s.views(ctx, page, false)
}

func (s *Service) ListVisitorMessages(ctx context.Context, contactSessionID, threadID string, limit int, cursor string) (model.Page[model.MessageItem], error) {
	session, err := s.deps.Sessions.Require(ctx, contactSessionID)
	if err != nil {
		return model.Page[model.MessageItem]{}, err
	}
	conversation, err := s.loadByThread(ctx, threadID)
	if err != nil {
		return model.Page[model.MessageItem]{}, err
	}
	if conversation.ContactSessionID != session.ContactSessionID {
		return model.Page[model.MessageItem]{}, apperror.Unauthorized("Incorrect session")
	}
	return s.listMessages(ctx, conversation.ThreadID, limit, cursor)
}

func (s *Service) ListOperatorMessages(ctx context.Context, op identity.Operator, conversationID string, limit int, cursor string) (model.Page[model.MessageItem], error) {
	conversation, err := s.operatorConversation(ctx, op, conversationID)
	if err != nil {
		return model.Page[model.MessageItem]{}, err
	}
	return s.listMessages(ctx, conversation.ThreadID, limit, cursor)
}

// SetConversationStatus applies the operator toggle. Only the cycle successor of
// the current status is accepted; the current status itself is a no-op.
func (s *Service) SetConversationStatus(ctx context.Context, op identity.Operator, conversationID string, status model.ConversationStatus) (Posted, error) {
	if !status.Valid() {
		return Posted{}, apperror.BadRequest("Invalid status")
	}
	conversation, err := s.operatorConversation(ctx, op, conversationID)
	if err != nil {
		return Posted{}, err
	}

	result := Posted{Conversation: conversation, PreviousStatus: conversation.Status}
	if status == conversation.Status {
		return result, nil
	}
	if NextStatus(conversation.Status) != status {
		return Posted{}, apperror.BadRequest("Invalid status transition")
	}

	updatedAt := s.timestamp()
	if err := s.repo.UpdateStatus(ctx, conversation, status, updatedAt); err != nil {
		return Posted{}, writeError(err, "failed to update conversation status")
	}
	s.deps.Metrics.observeTransition(string(conversation.Status), string(status), string(EventOperatorToggle))

	result.Conversation.Status = status
	result.Conversation.OrgStatus = model.OrganizationStatusKey(conversation.OrganizationID, status)
	result.Conversation.UpdatedAt = updatedAt
	return result, nil
}

func (s *Service) loadConversation(ctx context.Context, conversationID string) (model.ConversationItem, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return model.ConversationItem{}, apperror.BadRequest("Missing conversation ID")
	}
	conversation, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ConversationItem{}, apperror.NotFound("Conversation not found")
		}
		return model.ConversationItem{}, apperror.Internal("failed to load conversation", err)
	}
	return conversation, nil
}

func (s *Service) loadByThread(ctx context.Context, threadID string) (model.ConversationItem, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return model.ConversationItem{}, apperror.BadRequest("Missing thread ID")
	}
	// byThread is a GSI and may lag behind the base table; it only resolves the id.
	indexed, err := s.repo.GetConversationByThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ConversationItem{}, apperror.NotFound("Conversation not found")
		}
		return model.ConversationItem{}, apperror.Internal("failed to load conversation", err)
	}
	return s.loadConversation(ctx, indexed.ConversationID)
}

func (s *Service) operatorConversation(ctx context.Context, op identity.Operator, conversationID string) (model.ConversationItem, error) {
	if err := op.Require(); err != nil {
		return model.ConversationItem{}, err
	}
	conversation, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return model.ConversationItem{}, err
	}
	if conversation.OrganizationID != op.OrganizationID {
		return model.ConversationItem{}, apperror.BadRequest("Invalid organization")
	}
	return conversation, nil
}

func (s *Service) listMessages(ctx context.Context, threadID string, limit int, cursor string) (model.Page[model.MessageItem], error) {
	page, err := s.repo.ListMessages(ctx, threadID, pageSize(limit), cursor)
	if err != nil {
		return model.Page[model.MessageItem]{}, listError(err, "failed to list messages")
	}
	return page, nil
}

func (s *Service) views(ctx context.Context, page model.Page[model.ConversationItem], withSession bool) (model.Page[View], error) {
	out := model.Page[View]{
		Page:           make([]View, 0, len(page.Page)),
		ContinueCursor: page.ContinueCursor,
		IsDone:         page.IsDone,
	}
	for _, conversation := range page.Page {
		v, err := s.view(ctx, conversation, withSession)
		if err != nil {
			return model.Page[View]{}, err
		}
		out.Page = append(out.Page, v)
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, conversation model.ConversationItem, withSession bool) (View, error) {
	v := View{Conversation: conversation}

	last, err := s.repo.ListMessages(ctx, conversation.ThreadID, 1, "")
	if err != nil {
		return View{}, apperror.Internal("failed to load last message", err)
	}
	if len(last.Page) > 0 {
		v.LastMessage = &last.Page[0]
	}

	if withSession && s.deps.Sessions != nil {
		session, err := s.deps.Sessions.Get(ctx, conversation.ContactSessionID)
		if err != nil {
			slog.WarnContext(ctx, "contact session lookup failed", "conversationId", conversation.ConversationID, "error", err)
		}
		v.ContactSession = session
	}
	return v, nil
}

func pageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func listError(err error, msg string) error {
	if errors.Is(err, database.ErrInvalidCursor) {
		return apperror.BadRequest("Invalid cursor")
	}
	return apperror.Internal(msg, err)
}

func writeError(err error, msg string) error {
	if errors.Is(err, ErrStatusConflict) {
		return apperror.BadRequest(statusChangedText)
	}
	return apperror.Internal(msg, err)
}
