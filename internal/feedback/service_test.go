package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/shopnest/internal/domain"
)

type mockRelay struct {
	m    sync.Mutex
	sent []Submission
	err  error
}

func (r *mockRelay) Relay(_ context.Context, s Submission) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, s)
	return nil
}

func TestSubmit_RelaysAndArchives(t *testing.T) {
	archive := setupArchive(t)
	relay := &mockRelay{}
	svc := NewService(archive, relay, nil)
	ctx := context.Background()

	s, err := svc.Submit(ctx, Submission{UserID: "u1", Subject: " Hi ", Message: "Love it"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StatusRelayed, s.Status)
	require.Len(t, relay.sent, 1)
	assert.Equal(t, "Hi", relay.sent[0].Subject)

	stored, err := archive.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRelayed, stored.Status)
}

func TestSubmit_ValidationStopsBeforeStorage(t *testing.T) {
	archive := setupArchive(t)
	relay := &mockRelay{}
	svc := NewService(archive, relay, nil)

	_, err := svc.Submit(context.Background(), Submission{Message: "   "})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, relay.sent)

	pending, err := archive.ListByStatus(context.Background(), StatusPending, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSubmit_RelayFailureIsRecorded(t *testing.T) {
	archive := setupArchive(t)
	svc := NewService(archive, &mockRelay{err: errors.New("smtp down")}, nil)
	ctx := context.Background()

	s, err := svc.Submit(ctx, Submission{Message: "hello"})
	require.ErrorIs(t, err, ErrRelayFailed)
	assert.Equal(t, StatusFailed, s.Status)

	stored, err := archive.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.Status)
}

func TestSendGridRelay(t *testing.T) {
	var gotAuth string
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	relay := NewSendGridRelay("key-123", "noreply@shopnest.test", "team@shopnest.test")
	relay.host = srv.URL

	err := relay.Relay(context.Background(), Submission{Email: "a@b.co", Subject: "Hi", Message: "Nice <b>site</b>"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, "Hi", payload["subject"])
}

func TestSendGridRelay_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	relay := NewSendGridRelay("bad", "noreply@shopnest.test", "team@shopnest.test")
	relay.host = srv.URL
	err := relay.Relay(context.Background(), Submission{Message: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	assert.Error(t, NewSendGridRelay("", "a", "b").Relay(context.Background(), Submission{Message: "x"}))
	assert.Error(t, NewSendGridRelay("k", "", "b").Relay(context.Background(), Submission{Message: "x"}))
}
