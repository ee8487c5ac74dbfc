// Package smtpmail implements the mail sender port over plain SMTP
// submission, for deployments that relay through a local MTA instead of SES.
package smtpmail

import (
	"bytes"
	"context"
	"fmt"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender relays composed messages through an SMTP submission endpoint.
type Sender struct {
	addr     string
	username string
	password string
	from     string
	logger   *zap.Logger
}

// New creates a new SMTP sender. Credentials may be empty for
// unauthenticated relays.
func New(addr, username, password, from string, logger *zap.Logger) *Sender {
	return &Sender{
		addr:     addr,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

// SendRaw submits one composed message to a single recipient. SMTP assigns no
// message identifier, so a locally generated one is returned for logging
// parity with the SES sender.
func (s *Sender) SendRaw(ctx context.Context, to string, raw []byte) (string, error) {
	var auth sasl.Client
	if s.username != "" {
		auth = sasl.NewPlainClient("", s.username, s.password)
	}

	if err := smtp.SendMail(s.addr, auth, s.from, []string{to}, bytes.NewReader(raw)); err != nil {
		return "", fmt.Errorf("failed to relay message to %s via %s: %w", to, s.addr, err)
	}

	id := uuid.NewString()
	s.logger.Debug("SMTP relay accepted message",
		zap.String("recipient", to),
		zap.String("local_message_id", id))
	return id, nil
}
