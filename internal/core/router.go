package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/utils"
)

// maxPromptBody bounds the body substitution to keep inference request
// size down.
const maxPromptBody = 2000

// PromptBuilder renders stored routing rules into a model prompt for one
// message. Implementations decide how message fields are spliced in.
type PromptBuilder interface {
	Build(rules string, email EmailSummary) string
}

// LiteralPromptBuilder substitutes the {sender}, {subject} and {body}
// placeholders into the rules text verbatim. The body is truncated to
// maxPromptBody bytes before substitution.
type LiteralPromptBuilder struct {
	text *utils.TextProcessor
}

// NewLiteralPromptBuilder creates a new LiteralPromptBuilder
func NewLiteralPromptBuilder(text *utils.TextProcessor) *LiteralPromptBuilder {
	return &LiteralPromptBuilder{text: text}
}

// Build substitutes the message fields into the rules text.
func (b *LiteralPromptBuilder) Build(rules string, email EmailSummary) string {
	prompt := strings.ReplaceAll(rules, "{sender}", email.Sender)
	prompt = strings.ReplaceAll(prompt, "{subject}", email.Subject)
	prompt = strings.ReplaceAll(prompt, "{body}", b.text.Process(email.Body, maxPromptBody))
	return prompt
}

// Router decides forwarding destinations by combining stored routing rules
// with a message summary and asking a language model for a verdict.
type Router struct {
	store   ConfigStore
	llm     InferenceClient
	prompts PromptBuilder
	logger  *zap.Logger
}

// NewRouter creates a new routing decision engine
func NewRouter(store ConfigStore, llm InferenceClient, prompts PromptBuilder, logger *zap.Logger) *Router {
	return &Router{
		store:   store,
		llm:     llm,
		prompts: prompts,
		logger:  logger,
	}
}

// ActiveRules returns the stored routing rules and the model override, or
// ok=false when routing is unconfigured, disabled, or the store is
// unreachable. Store failures degrade rather than propagate.
func (r *Router) ActiveRules(ctx context.Context) (rules, modelID string, ok bool) {
	if r.store == nil {
		r.logger.Warn("Routing config store not configured")
		return "", "", false
	}

	cfg, err := r.store.GetRoutingConfig(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.logger.Warn("Routing rules not found in config store")
		} else {
			r.logger.Error("Failed to fetch routing rules", zap.Error(err))
		}
		return "", "", false
	}

	if !cfg.Enabled {
		r.logger.Info("AI routing disabled in stored config")
		return "", "", false
	}
	if cfg.Rules == "" {
		r.logger.Warn("Stored routing config has no rules")
		return "", "", false
	}

	return cfg.Rules, cfg.ModelID, true
}

// Decide returns the routing decision for the message, or nil when routing
// is unavailable. Routing is a best-effort enhancement: every failure path
// logs and returns nil instead of failing the forward.
func (r *Router) Decide(ctx context.Context, email EmailSummary) *RoutingDecision {
	rules, modelID, ok := r.ActiveRules(ctx)
	if !ok {
		return nil
	}

	prompt := r.prompts.Build(rules, email)

	response, err := r.llm.Invoke(ctx, modelID, prompt)
	if err != nil {
		r.logger.Error("Inference call failed", zap.Error(err))
		return nil
	}
	r.logger.Debug("AI response", zap.String("response", response))

	raw, ok := ExtractJSONObject(response)
	if !ok {
		r.logger.Warn("No JSON found in AI response")
		return nil
	}

	var decision RoutingDecision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		r.logger.Warn("Failed to parse AI response as JSON", zap.Error(err))
		return nil
	}

	if len(decision.RouteTo) == 0 {
		r.logger.Warn("AI response missing route_to field")
		return nil
	}

	r.logger.Info("AI routing decision",
		zap.Strings("route_to", decision.RouteTo),
		zap.Strings("tags", decision.Tags),
		zap.Float64("confidence", decision.Confidence))

	return &decision
}

// ExtractJSONObject returns the substring between the first '{' and the last
// '}' of s. This is a deliberately bounded, single-purpose scan for pulling a
// JSON block out of free-text model output; unrelated braces in surrounding
// prose can corrupt the extraction.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
