package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/core"
	"github.com/mikey/llm-mail-router/internal/utils"
)

const defaultHistoryLimit = 10

// ToolService implements the four management tools on top of the config
// store. Tool results are maps so they serialize directly into the MCP
// text-content wrapper.
type ToolService struct {
	store  core.ConfigStore
	logger *zap.Logger
	now    func() time.Time
}

// NewToolService creates a new tool service
func NewToolService(store core.ConfigStore, logger *zap.Logger) *ToolService {
	return &ToolService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// GetRoutingPrompt returns the currently active routing rules.
func (t *ToolService) GetRoutingPrompt(ctx context.Context) map[string]any {
	cfg, err := t.store.GetRoutingConfig(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return map[string]any{
			"error":         "Routing configuration not found",
			"routing_rules": nil,
			"enabled":       false,
			"note":          "Use update_routing_prompt to set initial routing rules",
		}
	}
	if err != nil {
		t.logger.Error("Failed to read routing config", zap.Error(err))
		return map[string]any{
			"error": fmt.Sprintf("Failed to get routing rules: %v", err),
		}
	}

	updatedAt := ""
	if !cfg.UpdatedAt.IsZero() {
		updatedAt = cfg.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return map[string]any{
		"routing_rules": cfg.Rules,
		"enabled":       cfg.Enabled,
		"model_id":      cfg.ModelID,
		"updated_at":    updatedAt,
		"note":          "Routing rules define business logic only. The prompt template enforcing JSON output is fixed server-side.",
	}
}

// UpdateRoutingPrompt archives the current rules and overwrites them with
// the given ones. Archiving is best-effort: a failed archive never blocks
// the write.
func (t *ToolService) UpdateRoutingPrompt(ctx context.Context, prompt string) map[string]any {
	ts := t.now()

	if current, err := t.store.GetRoutingConfig(ctx); err == nil && current.Rules != "" {
		utils.BestEffort(t.logger, "archive routing config", func() error {
			return t.store.ArchiveRoutingConfig(ctx, current.Rules, ts)
		})
	}

	if err := t.store.PutRoutingConfig(ctx, prompt, ts); err != nil {
		t.logger.Error("Failed to update routing config", zap.Error(err))
		return map[string]any{
			"success": false,
			"error":   fmt.Sprintf("Failed to update routing rules: %v", err),
		}
	}

	t.logger.Info("Routing rules updated", zap.Int("length", len(prompt)))
	return map[string]any{
		"success":    true,
		"updated_at": ts.UTC().Format(time.RFC3339Nano),
	}
}

// GetPromptHistory returns archived rule versions, newest first.
func (t *ToolService) GetPromptHistory(ctx context.Context, limit int) map[string]any {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	versions, err := t.store.ListConfigVersions(ctx, limit)
	if err != nil {
		t.logger.Error("Failed to list config history", zap.Error(err))
		return map[string]any{
			"error": fmt.Sprintf("Failed to get history: %v", err),
		}
	}

	out := make([]map[string]any, 0, len(versions))
	for _, v := range versions {
		out = append(out, map[string]any{
			"routing_rules": v.Rules,
			"archived_at":   v.ArchivedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return map[string]any{"versions": out}
}

// ValidatePromptSyntax checks routing rules before they are stored. Empty
// rules are rejected; anything else is valid, possibly with advisory
// suggestions.
func (t *ToolService) ValidatePromptSyntax(prompt string) map[string]any {
	if strings.TrimSpace(prompt) == "" {
		return map[string]any{
			"valid":  false,
			"errors": []string{"Routing rules cannot be empty"},
			"help":   "Provide routing logic like: 'Route support emails to support@example.com with [SUPPORT] tag'",
		}
	}

	var suggestions []string
	if len(prompt) < 20 {
		suggestions = append(suggestions,
			"Routing rules seem very short. Consider adding more detailed routing logic.")
	}
	lower := strings.ToLower(prompt)
	if !strings.Contains(lower, "route") && !strings.Contains(prompt, "->") {
		suggestions = append(suggestions,
			"Routing rules should specify where to route emails (e.g., 'route to support@example.com').")
	}

	result := map[string]any{
		"valid":   true,
		"message": "Routing rules are valid",
	}
	if len(suggestions) > 0 {
		result["suggestions"] = suggestions
	}
	return result
}
