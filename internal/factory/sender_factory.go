package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/adapters/sesmail"
	"github.com/mikey/llm-mail-router/internal/adapters/smtpmail"
	"github.com/mikey/llm-mail-router/internal/config"
	"github.com/mikey/llm-mail-router/internal/core"
)

// SenderFactory creates outbound mail transports
type SenderFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSenderFactory creates a new sender factory
func NewSenderFactory(cfg *config.Config, logger *zap.Logger) *SenderFactory {
	return &SenderFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailSender creates a new mail sender based on the configuration
func (f *SenderFactory) CreateMailSender() (core.MailSender, error) {
	senderCfg := f.cfg.GetSender()

	switch senderCfg.Type {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return sesmail.New(ses.NewFromConfig(awsCfg), f.logger), nil
	case "smtp":
		smtpCfg := f.cfg.GetSMTP()
		fwdCfg := f.cfg.GetForwarding()
		return smtpmail.New(
			smtpCfg.Address,
			smtpCfg.Username,
			smtpCfg.Password,
			fwdCfg.FromAddress,
			f.logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported sender type: %s", senderCfg.Type)
	}
}
