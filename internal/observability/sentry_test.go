package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/hdb-resale-go/internal/config"
)

type recordingTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *recordingTransport) Configure(sentry.ClientOptions) {}
func (t *recordingTransport) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}
func (t *recordingTransport) Flush(time.Duration) bool             { return true }
func (t *recordingTransport) FlushWithContext(context.Context) bool { return true }
func (t *recordingTransport) Close()                               {}

func newTestHub(t *testing.T) (*sentry.Hub, *recordingTransport) {
	t.Helper()
	transport := &recordingTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://public@example.com/1",
		Transport: transport,
	})
	require.NoError(t, err)
	return sentry.NewHub(client, sentry.NewScope()), transport
}

func TestInitSentryDisabled(t *testing.T) {
	assert.NoError(t, InitSentry(config.SentryConfig{Enabled: false, DSN: "https://public@example.com/1"}, "v1", "test"))
	assert.NoError(t, InitSentry(config.SentryConfig{Enabled: true}, "v1", "test"))
}

func TestInitSentryInvalidDSN(t *testing.T) {
	err := InitSentry(config.SentryConfig{Enabled: true, DSN: "::not-a-dsn"}, "v1", "test")
	assert.Error(t, err)
}

func TestCaptureWithTags(t *testing.T) {
	hub, transport := newTestHub(t)
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	CaptureWithTags(ctx, errors.New("schema mismatch"), map[string]string{"fault": "configuration"})
	CaptureException(ctx, errors.New("model failed"))
	CaptureException(ctx, nil)

	transport.mu.Lock()
	defer transport.mu.Unlock()
	require.Len(t, transport.events, 2)
	assert.Equal(t, "configuration", transport.events[0].Tags["fault"])
	assert.Empty(t, transport.events[1].Tags["fault"])
}

func TestFlushRespectsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	assert.NotPanics(t, func() { Flush(ctx) })
}
