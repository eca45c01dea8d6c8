package conversation

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"support-chat-backend/internal/agent"
	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/database"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	mu            sync.Mutex
	conversations map[string]model.ConversationItem
	counters      map[string]int64
	messages      map[string][]model.MessageItem
	// beforeWrite runs inside status-guarded writes, letting tests race them.
	beforeWrite func(m *memoryRepository)
	// indexStatus, when set for a thread, is what the byThread index still reports.
	indexStatus map[string]model.ConversationStatus
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		conversations: make(map[string]model.ConversationItem),
		counters:      make(map[string]int64),
		messages:      make(map[string][]model.MessageItem),
		indexStatus:   make(map[string]model.ConversationStatus),
	}
}

func (m *memoryRepository) CreateConversation(ctx context.Context, conversation model.ConversationItem, thread model.ThreadItem, greeting *model.MessageItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[conversation.ConversationID] = conversation
	m.counters[thread.ThreadID] = thread.NextOrder
	if greeting != nil {
		m.messages[thread.ThreadID] = append(m.messages[thread.ThreadID], *greeting)
	}
	return nil
}

func (m *memoryRepository) GetConversation(ctx context.Context, conversationID string) (model.ConversationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[conversationID]
	if !ok {
		return model.ConversationItem{}, ErrNotFound
	}
	return conversation, nil
}

func (m *memoryRepository) GetConversationByThread(ctx context.Context, threadID string) (model.ConversationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, conversation := range m.conversations {
		if conversation.ThreadID == threadID {
			if status, ok := m.indexStatus[threadID]; ok {
				conversation.Status = status
			}
			return conversation, nil
		}
	}
	return model.ConversationItem{}, ErrNotFound
}

func (m *memoryRepository) ListOrganizationConversations(ctx context.Context, organizationID string, status model.ConversationStatus, limit int, cursor string) (model.Page[model.ConversationItem], error) {
	return m.listConversations(limit, cursor, func(c model.ConversationItem) bool {
		return c.OrganizationID == organizationID && (status == "" || c.Status == status)
	})
}

func (m *memoryRepository) ListSessionConversations(ctx context.Context, contactSessionID string, limit int, cursor string) (model.Page[model.ConversationItem], error) {
	return m.listConversations(limit, cursor, func(c model.ConversationItem) bool {
		return c.ContactSessionID == contactSessionID
	})
}

// listConversations orders by createdAt like the listing indexes and resumes after the
// last returned key, so updates between pages cannot move items across the cursor.
func (m *memoryRepository) listConversations(limit int, cursor string, match func(model.ConversationItem) bool) (model.Page[model.ConversationItem], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.ConversationItem
	for _, c := range m.conversations {
		if match(c) {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return conversationKey(all[i]) > conversationKey(all[j])
	})
	if cursor != "" {
		start := sort.Search(len(all), func(i int) bool { return conversationKey(all[i]) < cursor })
		all = all[start:]
	}
	if len(all) <= limit {
		return model.Page[model.ConversationItem]{Page: all, IsDone: true}, nil
	}
	return model.Page[model.ConversationItem]{Page: all[:limit], ContinueCursor: conversationKey(all[limit-1])}, nil
}

func conversationKey(c model.ConversationItem) string {
	return c.CreatedAt + "|" + c.ConversationID
}

func (m *memoryRepository) ReserveMessageOrders(ctx context.Context, threadID string, count int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[threadID] += int64(count)
	return m.counters[threadID] - int64(count) + 1, nil
}

func (m *memoryRepository) AppendMessages(ctx context.Context, conversation model.ConversationItem, next model.ConversationStatus, messages []model.MessageItem, updatedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardedUpdate(conversation, next, updatedAt); err != nil {
		return err
	}
	m.messages[conversation.ThreadID] = append(m.messages[conversation.ThreadID], messages...)
	return nil
}

func (m *memoryRepository) UpdateStatus(ctx context.Context, conversation model.ConversationItem, next model.ConversationStatus, updatedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.guardedUpdate(conversation, next, updatedAt)
}

func (m *memoryRepository) guardedUpdate(conversation model.ConversationItem, next model.ConversationStatus, updatedAt string) error {
	if m.beforeWrite != nil {
		m.beforeWrite(m)
	}
	stored := m.conversations[conversation.ConversationID]
	if stored.Status != conversation.Status {
		return ErrStatusConflict
	}
	stored.Status = next
	stored.OrgStatus = model.OrganizationStatusKey(stored.OrganizationID, next)
	stored.UpdatedAt = updatedAt
	m.conversations[conversation.ConversationID] = stored
	return nil
}

func (m *memoryRepository) ListMessages(ctx context.Context, threadID string, limit int, cursor string) (model.Page[model.MessageItem], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := append([]model.MessageItem(nil), m.messages[threadID]...)
	sort.Slice(all, func(i, j int) bool { return all[i].Order > all[j].Order })
	return paginate(all, limit, cursor)
}

// paginate uses the decimal offset as cursor.
func paginate[T any](all []T, limit int, cursor string) (model.Page[T], error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return model.Page[T]{}, database.ErrInvalidCursor
		}
		offset = n
	}
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end >= len(all) {
		return model.Page[T]{Page: all[offset:], IsDone: true}, nil
	}
	return model.Page[T]{Page: all[offset:end], ContinueCursor: strconv.Itoa(end)}, nil
}

type fakeSessions struct {
	sessions  map[string]model.ContactSessionItem
	now       time.Time
	refreshed []string
}

func (f *fakeSessions) Require(ctx context.Context, id string) (model.ContactSessionItem, error) {
	session, ok := f.sessions[id]
	if !ok || f.now.UnixMilli() >= session.ExpiresAt {
		return model.ContactSessionItem{}, apperror.Unauthorized("Invalid session")
	}
	return session, nil
}

func (f *fakeSessions) Refresh(ctx context.Context, id string) (model.ContactSessionItem, error) {
	f.refreshed = append(f.refreshed, id)
	return f.Require(ctx, id)
}

func (f *fakeSessions) Get(ctx context.Context, id string) (*model.ContactSessionItem, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

type fakeOrganizations struct {
	subscriptions map[string]model.SubscriptionItem
	settings      map[string]model.WidgetSettingsItem
}

func (f *fakeOrganizations) GetSubscription(ctx context.Context, organizationID string) (*model.SubscriptionItem, error) {
	sub, ok := f.subscriptions[organizationID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (f *fakeOrganizations) GetWidgetSettings(ctx context.Context, organizationID string) (*model.WidgetSettingsItem, error) {
	settings, ok := f.settings[organizationID]
	if !ok {
		return nil, nil
	}
	return &settings, nil
}

// fakeAgent calls the named tools from the request registry, then replies.
type fakeAgent struct {
	reply    string
	tools    []string
	err      error
	requests []agent.GenerateRequest
}

func (a *fakeAgent) Generate(ctx context.Context, req agent.GenerateRequest) (agent.Generation, error) {
	a.requests = append(a.requests, req)
	if a.err != nil {
		return agent.Generation{}, a.err
	}
	gen := agent.Generation{Reply: a.reply}
	for _, name := range a.tools {
		tool, ok := req.Tools.Get(name)
		if !ok {
			return agent.Generation{}, errors.New("missing tool " + name)
		}
		result, err := tool.Execute(ctx, []byte(`{"query":"refund policy"}`))
		if err != nil {
			return agent.Generation{}, err
		}
		gen.ToolInvocations = append(gen.ToolInvocations, agent.ToolInvocation{Name: name, Result: result})
	}
	return gen, nil
}

type fakeKnowledge struct{ entries []model.KnowledgeEntryItem }

func (f *fakeKnowledge) Search(ctx context.Context, organizationID, query string, limit int) ([]model.KnowledgeEntryItem, error) {
	return f.entries, nil
}

type fakeEnhancer struct{ calls []string }

func (f *fakeEnhancer) Enhance(ctx context.Context, draft string) (string, error) {
	f.calls = append(f.calls, draft)
	return "Enhanced: " + draft, nil
}

type fixture struct {
	svc      *Service
	repo     *memoryRepository
	sessions *fakeSessions
	orgs     *fakeOrganizations
	agent    *fakeAgent
	enhancer *fakeEnhancer
	metrics  *Metrics
	now      time.Time
}

var (
	operator      = identity.Operator{OperatorID: "op-1", OrganizationID: "org-1", Name: "Ana", Email: "ana@acme.test"}
	otherOperator = identity.Operator{OperatorID: "op-9", OrganizationID: "org-2", Email: "zed@other.test"}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := &fixture{
		repo: newMemoryRepository(),
		sessions: &fakeSessions{now: now, sessions: map[string]model.ContactSessionItem{
			"cs-1":    {ContactSessionID: "cs-1", OrganizationID: "org-1", Name: "Vera", ExpiresAt: now.Add(time.Hour).UnixMilli()},
			"cs-2":    {ContactSessionID: "cs-2", OrganizationID: "org-1", Name: "Ivo", ExpiresAt: now.Add(time.Hour).UnixMilli()},
			"expired": {ContactSessionID: "expired", OrganizationID: "org-1", Name: "Old", ExpiresAt: now.Add(-time.Minute).UnixMilli()},
		}},
		orgs: &fakeOrganizations{
			subscriptions: map[string]model.SubscriptionItem{},
			settings:      map[string]model.WidgetSettingsItem{},
		},
		agent:    &fakeAgent{reply: "Happy to help!"},
		enhancer: &fakeEnhancer{},
		metrics:  NewMetrics(prometheus.NewRegistry()),
		now:      now,
	}
	f.svc = NewWithRepository(f.repo, Dependencies{
		Sessions:      f.sessions,
		Organizations: f.orgs,
		Knowledge:     &fakeKnowledge{entries: []model.KnowledgeEntryItem{{Title: "Refunds", Content: "30 days."}}},
		Agent:         f.agent,
		AgentName:     "Acme Bot",
		Enhancer:      f.enhancer,
		Metrics:       f.metrics,
	}, func() time.Time { return now })
	return f
}

func (f *fixture) activate() {
	f.orgs.subscriptions["org-1"] = model.SubscriptionItem{OrganizationID: "org-1", Status: model.SubscriptionStatusActive}
}

func (f *fixture) create(t *testing.T) model.ConversationItem {
	t.Helper()
	created, err := f.svc.CreateConversation(context.Background(), "cs-1", "org-1")
	require.NoError(t, err)
	return created.Conversation
}

func (f *fixture) setStatus(id string, status model.ConversationStatus) {
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	c := f.repo.conversations[id]
	c.Status = status
	f.repo.conversations[id] = c
}

func (f *fixture) thread(threadID string) []model.MessageItem {
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	return append([]model.MessageItem(nil), f.repo.messages[threadID]...)
}

func (f *fixture) stored(id string) model.ConversationItem {
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	return f.repo.conversations[id]
}

func TestCreateConversationSavesGreeting(t *testing.T) {
	f := newFixture(t)
	f.orgs.settings["org-1"] = model.WidgetSettingsItem{OrganizationID: "org-1", GreetMessage: "Welcome to Acme!"}

	created, err := f.svc.CreateConversation(context.Background(), "cs-1", "org-1")
	require.NoError(t, err)

	assert.Equal(t, model.ConversationStatusUnresolved, created.Conversation.Status)
	assert.Equal(t, "org-1#unresolved", created.Conversation.OrgStatus)
	messages := f.thread(created.Conversation.ThreadID)
	require.Len(t, messages, 1)
	assert.Equal(t, "Welcome to Acme!", messages[0].Content)
	assert.Equal(t, model.MessageRoleAssistant, messages[0].Role)
	assert.Equal(t, "Acme Bot", messages[0].AuthorName)
}

func TestCreateConversationDefaultsGreetingAndChecksSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateConversation(ctx, "cs-1", "")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultGreetMessage, created.Greeting.Content)

	_, err = f.svc.CreateConversation(ctx, "expired", "org-1")
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	_, err = f.svc.CreateConversation(ctx, "cs-1", "org-2")
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))
}

func TestVisitorMessageWithoutActivePlanSkipsAgent(t *testing.T) {
	f := newFixture(t)
	conversation := f.create(t)

	posted, err := f.svc.PostVisitorMessage(context.Background(), "cs-1", conversation.ThreadID, "Hello")
	require.NoError(t, err)

	assert.False(t, posted.AgentTriggered)
	assert.Empty(t, f.agent.requests)
	assert.Equal(t, model.ConversationStatusUnresolved, f.stored(conversation.ConversationID).Status)

	messages := f.thread(conversation.ThreadID)
	require.Len(t, messages, 2)
	assert.Equal(t, model.MessageRoleUser, messages[1].Role)
	assert.Equal(t, "Hello", messages[1].Content)
	assert.Equal(t, int64(2), messages[1].Order)
	assert.Equal(t, []string{"cs-1"}, f.sessions.refreshed)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.dispatch.WithLabelValues(dispatchRecordOnly)))
}

func TestVisitorMessageWithActivePlanStoresReply(t *testing.T) {
	f := newFixture(t)
	f.activate()
	f.agent.tools = []string{"searchKnowledgeBase"}
	conversation := f.create(t)

	posted, err := f.svc.PostVisitorMessage(context.Background(), "cs-1", conversation.ThreadID, "What is the refund policy?")
	require.NoError(t, err)

	assert.True(t, posted.AgentTriggered)
	require.Len(t, posted.Messages, 2)
	reply := posted.Messages[1]
	assert.Equal(t, model.MessageRoleAssistant, reply.Role)
	assert.Equal(t, "Acme Bot", reply.AuthorName)
	assert.Equal(t, "Happy to help!", reply.Content)
	require.Len(t, reply.ToolInvocations, 1)
	assert.Contains(t, reply.ToolInvocations[0].Result, "30 days.")
	assert.Equal(t, model.ConversationStatusUnresolved, posted.Conversation.Status)

	require.Len(t, f.agent.requests, 1)
	history := f.agent.requests[0].History
	require.Len(t, history, 1)
	assert.Equal(t, model.DefaultGreetMessage, history[0].Content)
	assert.Len(t, f.thread(conversation.ThreadID), 3)
}

func TestAgentToolsMoveStatusAtomically(t *testing.T) {
	cases := []struct {
		name  string
		tools []string
		want  model.ConversationStatus
	}{
		{"resolve", []string{"resolveConversation"}, model.ConversationStatusResolved},
		{"escalate", []string{"escalateConversation"}, model.ConversationStatusEscalated},
		{"escalate then resolve", []string{"escalateConversation", "resolveConversation"}, model.ConversationStatusResolved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.activate()
			f.agent.tools = tc.tools
			conversation := f.create(t)

			posted, err := f.svc.PostVisitorMessage(context.Background(), "cs-1", conversation.ThreadID, "Thanks, bye")
			require.NoError(t, err)

			assert.Equal(t, tc.want, posted.Conversation.Status)
			assert.True(t, posted.StatusChanged())
			assert.Equal(t, tc.want, f.stored(conversation.ConversationID).Status)
			assert.Len(t, f.thread(conversation.ThreadID), 3)
		})
	}
}

func TestEscalatedConversationDoesNotDispatch(t *testing.T) {
	f := newFixture(t)
	f.activate()
	conversation := f.create(t)
	f.setStatus(conversation.ConversationID, model.ConversationStatusEscalated)

	posted, err := f.svc.PostVisitorMessage(context.Background(), "cs-1", conversation.ThreadID, "Anyone there?")
	require.NoError(t, err)
	assert.False(t, posted.AgentTriggered)
	assert.Empty(t, f.agent.requests)
	assert.Equal(t, model.ConversationStatusEscalated, f.stored(conversation.ConversationID).Status)
}

func TestVisitorMessageIgnoresLaggingThreadIndex(t *testing.T) {
	f := newFixture(t)
	conversation := f.create(t)
	f.repo.indexStatus[conversation.ThreadID] = model.ConversationStatusResolved

	posted, err := f.svc.PostVisitorMessage(context.Background(), "cs-1", conversation.ThreadID, "Are you still there?")
	require.NoError(t, err)
	assert.Equal(t, model.ConversationStatusUnresolved, posted.Conversation.Status)
	assert.Len(t, f.thread(conversation.ThreadID), 2)
}

func TestLaggingThreadIndexDoesNotDispatchOnEscalated(t *testing.T) {
	f := newFixture(t)
	f.activate()
	conversation := f.create(t)
	f.setStatus(conversation.ConversationID, model.ConversationStatusEscalated)
	f.repo.indexStatus[conversation.ThreadID] = model.ConversationStatusUnresolved

	posted, err := f.svc.PostVisitorMessage(context.Background(), "cs-1", conversation.ThreadID, "Hello?")
	require.NoError(t, err)
	assert.False(t, posted.AgentTriggered)
	assert.Empty(t, f.agent.requests)
	assert.Equal(t, model.ConversationStatusEscalated, f.stored(conversation.ConversationID).Status)
	assert.Len(t, f.thread(conversation.ThreadID), 2)
}

func TestAgentFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.activate()
	f.agent.err = errors.New("model unavailable")
	conversation := f.create(t)

	_, err := f.svc.PostVisitorMessage(context.Background(), "cs-1", conversation.ThreadID, "Hello")
	assert.True(t, apperror.Is(err, apperror.CodeInternal))
	assert.Len(t, f.thread(conversation.ThreadID), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.dispatch.WithLabelValues(dispatchAgentFailure)))
}

func TestVisitorMessageRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.create(t)

	_, err := f.svc.PostVisitorMessage(ctx, "expired", conversation.ThreadID, "Hello")
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	_, err = f.svc.PostVisitorMessage(ctx, "cs-2", conversation.ThreadID, "Hello")
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	_, err = f.svc.PostVisitorMessage(ctx, "cs-1", "missing-thread", "Hello")
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))

	_, err = f.svc.PostVisitorMessage(ctx, "cs-1", conversation.ThreadID, "   ")
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))

	f.setStatus(conversation.ConversationID, model.ConversationStatusResolved)
	_, err = f.svc.PostVisitorMessage(ctx, "cs-1", conversation.ThreadID, "Hello")
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))

	assert.Len(t, f.thread(conversation.ThreadID), 1)
}

func TestOperatorReplyEscalates(t *testing.T) {
	f := newFixture(t)
	conversation := f.create(t)

	posted, err := f.svc.PostOperatorMessage(context.Background(), operator, conversation.ConversationID, "Let me check that for you.")
	require.NoError(t, err)

	assert.Equal(t, model.ConversationStatusEscalated, posted.Conversation.Status)
	assert.Equal(t, model.ConversationStatusEscalated, f.stored(conversation.ConversationID).Status)
	require.Len(t, posted.Messages, 1)
	assert.Equal(t, model.MessageRoleAssistant, posted.Messages[0].Role)
	assert.Equal(t, "op-1", posted.Messages[0].AuthorID)
	assert.Equal(t, "Ana", posted.Messages[0].AuthorName)
}

func TestOperatorReplyToResolvedIsRejected(t *testing.T) {
	f := newFixture(t)
	conversation := f.create(t)
	f.setStatus(conversation.ConversationID, model.ConversationStatusResolved)

	_, err := f.svc.PostOperatorMessage(context.Background(), operator, conversation.ConversationID, "Hello?")
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))
	assert.Len(t, f.thread(conversation.ThreadID), 1)
	assert.Equal(t, model.ConversationStatusResolved, f.stored(conversation.ConversationID).Status)
}

func TestOperatorGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.create(t)

	_, err := f.svc.PostOperatorMessage(ctx, identity.Operator{}, conversation.ConversationID, "hi")
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	_, err = f.svc.PostOperatorMessage(ctx, otherOperator, conversation.ConversationID, "hi")
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))

	_, err = f.svc.GetOperatorConversation(ctx, otherOperator, conversation.ConversationID)
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))

	_, err = f.svc.PostOperatorMessage(ctx, operator, "missing", "hi")
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestSetConversationStatusCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.create(t)

	for _, want := range []model.ConversationStatus{
		model.ConversationStatusEscalated,
		model.ConversationStatusResolved,
		model.ConversationStatusUnresolved,
	} {
		current := f.stored(conversation.ConversationID).Status
		assert.Equal(t, want, NextStatus(current))

		result, err := f.svc.SetConversationStatus(ctx, operator, conversation.ConversationID, want)
		require.NoError(t, err)
		assert.Equal(t, want, result.Conversation.Status)
		assert.Equal(t, want, f.stored(conversation.ConversationID).Status)
	}

	same, err := f.svc.SetConversationStatus(ctx, operator, conversation.ConversationID, model.ConversationStatusUnresolved)
	require.NoError(t, err)
	assert.False(t, same.StatusChanged())

	_, err = f.svc.SetConversationStatus(ctx, operator, conversation.ConversationID, model.ConversationStatusResolved)
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))

	_, err = f.svc.SetConversationStatus(ctx, operator, conversation.ConversationID, "archived")
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))
}

func TestConcurrentStatusChangeIsNotOverwritten(t *testing.T) {
	f := newFixture(t)
	conversation := f.create(t)

	f.repo.beforeWrite = func(m *memoryRepository) {
		c := m.conversations[conversation.ConversationID]
		c.Status = model.ConversationStatusResolved
		m.conversations[conversation.ConversationID] = c
	}

	_, err := f.svc.PostOperatorMessage(context.Background(), operator, conversation.ConversationID, "On it")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))
	assert.Equal(t, model.ConversationStatusResolved, f.stored(conversation.ConversationID).Status)
	assert.Len(t, f.thread(conversation.ThreadID), 1)
}

func TestEnhanceRequiresActivePlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.EnhanceOperatorDraft(ctx, operator, "pls wait")
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))
	assert.Empty(t, f.enhancer.calls)

	f.activate()
	out, err := f.svc.EnhanceOperatorDraft(ctx, operator, "pls wait")
	require.NoError(t, err)
	assert.Equal(t, "Enhanced: pls wait", out)

	_, err = f.svc.EnhanceOperatorDraft(ctx, identity.Operator{OperatorID: "op-1"}, "pls wait")
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))
}

func TestMessagePagesConcatenateToHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.create(t)

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		_, err := f.svc.PostVisitorMessage(ctx, "cs-1", conversation.ThreadID, text)
		require.NoError(t, err)
	}

	var collected []model.MessageItem
	cursor := ""
	for {
		page, err := f.svc.ListVisitorMessages(ctx, "cs-1", conversation.ThreadID, 2, cursor)
		require.NoError(t, err)
		collected = append(collected, page.Page...)
		if page.IsDone {
			break
		}
		cursor = page.ContinueCursor
	}

	var contents []string
	for i := len(collected) - 1; i >= 0; i-- {
		contents = append(contents, collected[i].Content)
	}
	assert.Equal(t, []string{model.DefaultGreetMessage, "one", "two", "three", "four", "five"}, contents)

	operatorPage, err := f.svc.ListOperatorMessages(ctx, operator, conversation.ConversationID, 10, "")
	require.NoError(t, err)
	assert.Len(t, operatorPage.Page, 6)
	assert.True(t, operatorPage.IsDone)

	_, err = f.svc.ListVisitorMessages(ctx, "cs-1", conversation.ThreadID, 2, "not-a-number")
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))
}

func TestInboxPagesSurviveConversationUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := map[string]bool{}
	for range 3 {
		created[f.create(t).ConversationID] = true
	}

	first, err := f.svc.ListOperatorConversations(ctx, operator, "", 2, "")
	require.NoError(t, err)
	require.Len(t, first.Page, 2)
	require.NotEmpty(t, first.ContinueCursor)

	// the conversation left for the next page becomes the most recently updated one
	var remaining string
	for id := range created {
		if id != first.Page[0].Conversation.ConversationID && id != first.Page[1].Conversation.ConversationID {
			remaining = id
		}
	}
	f.repo.mu.Lock()
	moved := f.repo.conversations[remaining]
	moved.UpdatedAt = "2099-01-01T00:00:00Z"
	f.repo.conversations[remaining] = moved
	f.repo.mu.Unlock()

	second, err := f.svc.ListOperatorConversations(ctx, operator, "", 2, first.ContinueCursor)
	require.NoError(t, err)
	require.Len(t, second.Page, 1)
	assert.True(t, second.IsDone)
	assert.Equal(t, remaining, second.Page[0].Conversation.ConversationID)
}

func TestListConversationsIncludesLastMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t)
	_, err := f.svc.PostVisitorMessage(ctx, "cs-1", first.ThreadID, "Where is my order?")
	require.NoError(t, err)

	page, err := f.svc.ListOperatorConversations(ctx, operator, "", 10, "")
	require.NoError(t, err)
	require.Len(t, page.Page, 1)
	require.NotNil(t, page.Page[0].LastMessage)
	assert.Equal(t, "Where is my order?", page.Page[0].LastMessage.Content)
	require.NotNil(t, page.Page[0].ContactSession)
	assert.Equal(t, "Vera", page.Page[0].ContactSession.Name)

	filtered, err := f.svc.ListOperatorConversations(ctx, operator, model.ConversationStatusResolved, 10, "")
	require.NoError(t, err)
	assert.Empty(t, filtered.Page)

	visitor, err := f.svc.ListVisitorConversations(ctx, "cs-1", 10, "")
	require.NoError(t, err)
	require.Len(t, visitor.Page, 1)
	assert.Nil(t, visitor.Page[0].ContactSession)

	_, err = f.svc.ListOperatorConversations(ctx, operator, "archived", 10, "")
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))
}
