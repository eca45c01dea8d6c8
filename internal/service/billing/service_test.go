package billing

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
)

type recordingUpdater struct {
	calls []string
}

func (r *recordingUpdater) UpsertSubscription(ctx context.Context, organizationID, status string) (model.SubscriptionItem, error) {
	r.calls = append(r.calls, organizationID+"="+status)
	return model.SubscriptionItem{OrganizationID: organizationID, Status: status}, nil
}

var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("billing-test-secret-0123456789"))

func signedHeaders(t *testing.T, payload []byte) http.Header {
	t.Helper()
	wh, err := svix.NewWebhook(testSecret)
	require.NoError(t, err)

	id := "msg_test"
	ts := time.Now()
	signature, err := wh.Sign(id, ts, payload)
	require.NoError(t, err)

	h := http.Header{}
	h.Set("svix-id", id)
	h.Set("svix-timestamp", strconv.FormatInt(ts.Unix(), 10))
	h.Set("svix-signature", signature)
	return h
}

func newTestService(t *testing.T) (*Service, *recordingUpdater) {
	t.Helper()
	updater := &recordingUpdater{}
	svc, err := New(testSecret, updater)
	require.NoError(t, err)
	return svc, updater
}

func TestSubscriptionUpdatedUpsertsStatus(t *testing.T) {
	svc, updater := newTestService(t)
	payload := []byte(`{"type":"subscription.updated","data":{"status":"active","payer":{"organization_id":"org-1"}}}`)

	result, err := svc.HandleWebhook(context.Background(), payload, signedHeaders(t, payload))
	require.NoError(t, err)

	assert.True(t, result.Handled)
	require.NotNil(t, result.Subscription)
	assert.Equal(t, "active", result.Subscription.Status)
	assert.Equal(t, []string{"org-1=active"}, updater.calls)
}

func TestSubscriptionUpdatedWithoutOrganization(t *testing.T) {
	svc, updater := newTestService(t)
	payload := []byte(`{"type":"subscription.updated","data":{"status":"active"}}`)

	_, err := svc.HandleWebhook(context.Background(), payload, signedHeaders(t, payload))
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))
	assert.Empty(t, updater.calls)
}

func TestOtherEventsAreIgnored(t *testing.T) {
	svc, updater := newTestService(t)
	payload := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)

	result, err := svc.HandleWebhook(context.Background(), payload, signedHeaders(t, payload))
	require.NoError(t, err)
	assert.False(t, result.Handled)
	assert.Equal(t, "user.created", result.EventType)
	assert.Empty(t, updater.calls)
}

func TestInvalidSignatureIsRejected(t *testing.T) {
	svc, updater := newTestService(t)
	payload := []byte(`{"type":"subscription.updated","data":{"status":"active","payer":{"organization_id":"org-1"}}}`)
	headers := signedHeaders(t, payload)

	tampered := []byte(fmt.Sprintf(`{"type":"subscription.updated","data":{"status":"active","payer":{"organization_id":"%s"}}}`, "org-2"))
	_, err := svc.HandleWebhook(context.Background(), tampered, headers)
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))

	_, err = svc.HandleWebhook(context.Background(), payload, http.Header{})
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))
	assert.Empty(t, updater.calls)
}
