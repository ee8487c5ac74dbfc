// Package sesmail implements the mail sender port on the Amazon SES
// send-raw API.
package sesmail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

// Sender dispatches composed messages through SES.
type Sender struct {
	client *ses.Client
	logger *zap.Logger
}

// New creates a new SES sender
func New(client *ses.Client, logger *zap.Logger) *Sender {
	return &Sender{
		client: client,
		logger: logger,
	}
}

// SendRaw submits one composed message to a single recipient and returns the
// SES-assigned message id.
func (s *Sender) SendRaw(ctx context.Context, to string, raw []byte) (string, error) {
	out, err := s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Destinations: []string{to},
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send message to %s: %w", to, err)
	}

	id := aws.ToString(out.MessageId)
	s.logger.Debug("SES accepted message",
		zap.String("recipient", to),
		zap.String("ses_message_id", id))
	return id, nil
}
