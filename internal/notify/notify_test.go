package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	mu       sync.Mutex
	sent     []Message
	failures int
}

func (t *recordingTransport) Send(_ context.Context, msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failures > 0 {
		t.failures--
		return errors.New("gateway down")
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *recordingTransport) delivered() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.sent))
	copy(out, t.sent)
	return out
}

func TestDispatcherDelivers(t *testing.T) {
	transport := &recordingTransport{}
	d := NewDispatcher(transport)

	d.Dispatch(Message{Kind: KindSubmissionReceived, Phone: "27821234567"})
	d.Close()

	sent := transport.delivered()
	require.Len(t, sent, 1)
	assert.Equal(t, KindSubmissionReceived, sent[0].Kind)
}

func TestDispatcherRetriesTransientFailure(t *testing.T) {
	transport := &recordingTransport{failures: 2}
	d := NewDispatcher(transport)
	d.baseDelay = time.Millisecond

	d.Dispatch(Message{Kind: KindPaymentApproved, Phone: "27821234567"})
	d.Close()

	assert.Len(t, transport.delivered(), 1)
}

func TestDispatcherSurvivesMissingTransport(t *testing.T) {
	d := NewDispatcher(nil)

	// Must not panic or block with nothing wired behind it.
	d.Dispatch(Message{Kind: KindOTPIssued, Phone: "27821234567"})
	d.Close()
}

func TestDispatchAfterCloseDoesNotPanic(t *testing.T) {
	d := NewDispatcher(&recordingTransport{})
	d.Close()
	d.Dispatch(Message{Kind: KindPaymentRejected, Phone: "27821234567"})
}
