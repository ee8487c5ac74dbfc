package forwarder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/adapters/configstore"
	"github.com/mikey/llm-mail-router/internal/core"
	"github.com/mikey/llm-mail-router/internal/mailmsg"
	"github.com/mikey/llm-mail-router/internal/utils"
)

const inboundMessage = `From: Alice Example <alice@example.com>
To: inbox@router.example.com
Subject: Hello there
Date: Mon, 02 Jan 2006 15:04:05 -0700
Content-Type: text/plain; charset=utf-8

My thing broke, please help.
`

type stubObjects struct {
	objects map[string][]byte
}

func (s *stubObjects) Get(ctx context.Context, key string) ([]byte, error) {
	raw, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return raw, nil
}

type stubSender struct {
	fail map[string]bool
	sent map[string][]byte
}

func (s *stubSender) SendRaw(ctx context.Context, to string, raw []byte) (string, error) {
	if s.fail[to] {
		return "", errors.New("rejected by provider")
	}
	if s.sent == nil {
		s.sent = make(map[string][]byte)
	}
	s.sent[to] = raw
	return "provider-id-" + to, nil
}

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Invoke(ctx context.Context, modelID string, prompt string) (string, error) {
	return s.response, s.err
}

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func newTestForwarder(t *testing.T, sender *stubSender, llm core.InferenceClient, rules string, routingEnabled bool) *Forwarder {
	t.Helper()
	logger := zap.NewNop()

	store := configstore.NewMemoryStore(logger)
	if rules != "" {
		store.SeedRoutingConfig(core.RoutingConfig{Rules: rules, Enabled: true})
	}

	router := core.NewRouter(store, llm,
		core.NewLiteralPromptBuilder(utils.NewTextProcessor(logger)), logger)

	objects := &stubObjects{objects: map[string][]byte{
		"incoming/msg-1": crlf(inboundMessage),
	}}

	return New(objects, sender, router, Config{
		KeyPrefix:      "incoming/",
		ForwardTo:      "default@example.com",
		FromAddress:    "forward@router.example.com",
		RoutingEnabled: routingEnabled,
	}, logger)
}

func receiptEvent(messageID, recipient string) events.SimpleEmailEvent {
	return events.SimpleEmailEvent{
		Records: []events.SimpleEmailRecord{
			{
				SES: events.SimpleEmailService{
					Mail:    events.SimpleEmailMessage{MessageID: messageID},
					Receipt: events.SimpleEmailReceipt{Recipients: []string{recipient}},
				},
			},
		},
	}
}

func sentEnvelope(t *testing.T, raw []byte) mailmsg.Envelope {
	t.Helper()
	entity, err := mailmsg.Parse(raw)
	require.NoError(t, err)
	return mailmsg.ReadEnvelope(entity)
}

func TestHandleEventWithoutRouting(t *testing.T) {
	sender := &stubSender{}
	fwd := newTestForwarder(t, sender, &stubLLM{}, "", false)

	err := fwd.HandleEvent(context.Background(), receiptEvent("msg-1", "inbox@router.example.com"))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	raw, ok := sender.sent["default@example.com"]
	require.True(t, ok)

	env := sentEnvelope(t, raw)
	assert.Equal(t, "Hello there", env.Subject)

	// The forwarded copy carries the context banner and the original text.
	body := strings.ReplaceAll(string(raw), "\r\n", "\n")
	assert.Contains(t, body, "---------- Forwarded message ----------")
	assert.Contains(t, body, "inbox@router.example.com")
	assert.Contains(t, body, "My thing broke, please help.")
}

func TestHandleEventWithRoutingDecision(t *testing.T) {
	sender := &stubSender{}
	llm := &stubLLM{response: `{"route_to": ["support@example.com", "oncall@example.com"], "tags": ["support", "urgent"], "confidence": 0.95}`}
	fwd := newTestForwarder(t, sender, llm, "Route support mail from {sender}", true)

	err := fwd.HandleEvent(context.Background(), receiptEvent("msg-1", "inbox@router.example.com"))
	require.NoError(t, err)

	require.Len(t, sender.sent, 2)
	for _, recipient := range []string{"support@example.com", "oncall@example.com"} {
		raw, ok := sender.sent[recipient]
		require.True(t, ok, "expected dispatch to %s", recipient)

		env := sentEnvelope(t, raw)
		assert.Equal(t, "[support] [urgent] Hello there", env.Subject)
	}
}

func TestHandleEventRoutingUnavailableFallsBack(t *testing.T) {
	sender := &stubSender{}
	llm := &stubLLM{err: errors.New("throttled")}
	fwd := newTestForwarder(t, sender, llm, "Route support mail", true)

	err := fwd.HandleEvent(context.Background(), receiptEvent("msg-1", "inbox@router.example.com"))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	_, ok := sender.sent["default@example.com"]
	assert.True(t, ok)
}

func TestForwardPartialDispatchFailure(t *testing.T) {
	sender := &stubSender{fail: map[string]bool{"support@example.com": true}}
	llm := &stubLLM{response: `{"route_to": ["support@example.com", "oncall@example.com"]}`}
	fwd := newTestForwarder(t, sender, llm, "Route support mail", true)

	err := fwd.Forward(context.Background(), "msg-1", "inbox@router.example.com")
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	_, ok := sender.sent["oncall@example.com"]
	assert.True(t, ok)
}

func TestForwardAllDispatchesFail(t *testing.T) {
	sender := &stubSender{fail: map[string]bool{"default@example.com": true}}
	fwd := newTestForwarder(t, sender, &stubLLM{}, "", false)

	err := fwd.Forward(context.Background(), "msg-1", "inbox@router.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch failed for all")
}

func TestForwardMissingObject(t *testing.T) {
	sender := &stubSender{}
	fwd := newTestForwarder(t, sender, &stubLLM{}, "", false)

	err := fwd.Forward(context.Background(), "unknown-id", "inbox@router.example.com")
	require.Error(t, err)
	assert.Empty(t, sender.sent)
}

func TestHandleEventNoRecords(t *testing.T) {
	fwd := newTestForwarder(t, &stubSender{}, &stubLLM{}, "", false)

	err := fwd.HandleEvent(context.Background(), events.SimpleEmailEvent{})
	require.Error(t, err)
}

func TestTagPrefix(t *testing.T) {
	assert.Equal(t, "", TagPrefix(nil))
	assert.Equal(t, "[support] ", TagPrefix([]string{"support"}))
	assert.Equal(t, "[support] [urgent] ", TagPrefix([]string{"support", "urgent"}))
}
