// Package forwarder drives one inbound message through extraction, routing
// and per-recipient dispatch.
package forwarder

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/core"
	"github.com/mikey/llm-mail-router/internal/mailmsg"
)

// Config holds the static forwarding settings.
type Config struct {
	KeyPrefix      string // object key prefix prepended to the message id
	ForwardTo      string // default destination when routing is off or fails
	FromAddress    string // forwarding identity used on outbound From
	RoutingEnabled bool
}

// Forwarder is the per-invocation entry point of the forwarding pipeline.
type Forwarder struct {
	objects core.ObjectStore
	sender  core.MailSender
	router  *core.Router
	cfg     Config
	logger  *zap.Logger
}

// New creates a new Forwarder
func New(objects core.ObjectStore, sender core.MailSender, router *core.Router, cfg Config, logger *zap.Logger) *Forwarder {
	return &Forwarder{
		objects: objects,
		sender:  sender,
		router:  router,
		cfg:     cfg,
		logger:  logger,
	}
}

// HandleEvent processes the first record of an SES receipt event. Failures on
// the mandatory path are logged with full context and returned so the runtime
// reports the invocation failed.
func (f *Forwarder) HandleEvent(ctx context.Context, event events.SimpleEmailEvent) error {
	if len(event.Records) == 0 {
		return fmt.Errorf("receipt event contains no records")
	}
	record := event.Records[0]

	var actualRecipient string
	if recipients := record.SES.Receipt.Recipients; len(recipients) > 0 {
		actualRecipient = recipients[0]
	}

	if err := f.Forward(ctx, record.SES.Mail.MessageID, actualRecipient); err != nil {
		f.logger.Error("Forward failed",
			zap.String("message_id", record.SES.Mail.MessageID),
			zap.String("recipient", actualRecipient),
			zap.Error(err))
		return err
	}
	return nil
}

// Forward fetches, re-encodes and re-dispatches a single message. Recipients
// come from the AI routing decision when one is available, otherwise the
// configured default address. Each recipient is dispatched independently; the
// forward fails only when every dispatch failed.
func (f *Forwarder) Forward(ctx context.Context, messageID, actualRecipient string) error {
	key := f.cfg.KeyPrefix + messageID
	f.logger.Info("Fetching raw message", zap.String("key", key))

	raw, err := f.objects.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to fetch raw message %q: %w", key, err)
	}

	entity, err := mailmsg.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse message %q: %w", messageID, err)
	}
	env := mailmsg.ReadEnvelope(entity)
	content := mailmsg.ExtractContent(entity)

	recipients := []string{f.cfg.ForwardTo}
	tagPrefix := ""
	if f.cfg.RoutingEnabled {
		f.logger.Info("AI routing enabled, analyzing message content")
		decision := f.router.Decide(ctx, core.EmailSummary{
			Sender:  env.From,
			Subject: env.Subject,
			Body:    content.PlainText(),
		})
		if decision != nil {
			recipients = decision.RouteTo
			tagPrefix = TagPrefix(decision.Tags)
		} else {
			f.logger.Info("AI routing unavailable, using default recipient")
		}
	}

	subject := tagPrefix + env.Subject
	banner := mailmsg.BuildBanner(env.From, actualRecipient, env.Date)

	var sent int
	for _, recipient := range recipients {
		out, err := mailmsg.Compose(mailmsg.ComposeInput{
			FromAddress: f.cfg.FromAddress,
			FromName:    env.FromName,
			To:          recipient,
			ReplyTo:     env.From,
			Subject:     subject,
			Banner:      banner,
			Content:     content,
			Raw:         raw,
		})
		if err != nil {
			f.logger.Error("Failed to compose outbound message",
				zap.String("recipient", recipient), zap.Error(err))
			continue
		}

		providerID, err := f.sender.SendRaw(ctx, recipient, out)
		if err != nil {
			f.logger.Error("Dispatch failed",
				zap.String("recipient", recipient), zap.Error(err))
			continue
		}
		sent++
		f.logger.Info("Forwarded message",
			zap.String("message_id", messageID),
			zap.String("recipient", recipient),
			zap.String("provider_message_id", providerID))
	}

	if sent == 0 {
		return fmt.Errorf("dispatch failed for all %d recipients", len(recipients))
	}
	return nil
}

// TagPrefix bracket-joins decision tags into a subject prefix,
// e.g. ["support","urgent"] becomes "[support] [urgent] ".
func TagPrefix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tag := range tags {
		b.WriteString("[")
		b.WriteString(tag)
		b.WriteString("] ")
	}
	return b.String()
}
