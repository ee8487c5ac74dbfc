package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/adapters/configstore"
	"github.com/mikey/llm-mail-router/internal/core"
)

const testAPIKey = "test-api-key"

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func newTestHandler(t *testing.T, seed func(*configstore.MemoryStore)) (*Handler, *configstore.MemoryStore) {
	t.Helper()
	logger := zap.NewNop()

	store := configstore.NewMemoryStore(logger)
	store.SeedAPIKey(core.APIKeyRecord{
		KeyHash:  hashKey(testAPIKey),
		KeyName:  "test",
		IsActive: true,
	})
	if seed != nil {
		seed(store)
	}

	handler := NewHandler(
		NewAuthenticator(store, logger),
		NewToolService(store, logger),
		logger,
	)
	return handler, store
}

func rpcRequest(t *testing.T, apiKey, method string, params map[string]any) events.APIGatewayProxyRequest {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	req := events.APIGatewayProxyRequest{Body: string(body)}
	if apiKey != "" {
		req.Headers = map[string]string{"Authorization": "Bearer " + apiKey}
	}
	return req
}

type rpcReply struct {
	JSONRPC string         `json:"jsonrpc"`
	Result  map[string]any `json:"result"`
	Error   *rpcError      `json:"error"`
}

func decodeReply(t *testing.T, resp events.APIGatewayProxyResponse) rpcReply {
	t.Helper()
	var reply rpcReply
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &reply))
	return reply
}

// decodeToolResult unwraps the text content block of a tools/call reply.
func decodeToolResult(t *testing.T, resp events.APIGatewayProxyResponse) map[string]any {
	t.Helper()
	reply := decodeReply(t, resp)
	require.Nil(t, reply.Error)

	content, ok := reply.Result["content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 1)
	block, ok := content[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "text", block["type"])

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(block["text"].(string)), &result))
	return result
}

func callTool(t *testing.T, h *Handler, name string, args map[string]any) events.APIGatewayProxyResponse {
	t.Helper()
	resp, err := h.Handle(context.Background(), rpcRequest(t, testAPIKey, methodToolsCall, map[string]any{
		"name":      name,
		"arguments": args,
	}))
	require.NoError(t, err)
	return resp
}

func TestHandleMissingAPIKey(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	resp, err := handler.Handle(context.Background(), rpcRequest(t, "", methodToolsList, nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.JSONEq(t, `{"error": "Missing API key"}`, resp.Body)
}

func TestHandleUnknownAPIKey(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	resp, err := handler.Handle(context.Background(), rpcRequest(t, "wrong-key", methodToolsList, nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.JSONEq(t, `{"error": "Invalid or expired API key"}`, resp.Body)
}

func TestHandleExpiredAPIKey(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	handler, _ := newTestHandler(t, func(store *configstore.MemoryStore) {
		store.SeedAPIKey(core.APIKeyRecord{
			KeyHash:   hashKey("expired-key"),
			KeyName:   "expired",
			IsActive:  true,
			ExpiresAt: &expired,
		})
	})

	resp, err := handler.Handle(context.Background(), rpcRequest(t, "expired-key", methodToolsList, nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHandleInactiveAPIKey(t *testing.T) {
	handler, _ := newTestHandler(t, func(store *configstore.MemoryStore) {
		store.SeedAPIKey(core.APIKeyRecord{
			KeyHash:  hashKey("revoked-key"),
			KeyName:  "revoked",
			IsActive: false,
		})
	})

	resp, err := handler.Handle(context.Background(), rpcRequest(t, "revoked-key", methodToolsList, nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHandleAuthenticationTouchesKey(t *testing.T) {
	handler, store := newTestHandler(t, nil)

	_, err := handler.Handle(context.Background(), rpcRequest(t, testAPIKey, methodToolsList, nil))
	require.NoError(t, err)

	record, err := store.GetAPIKey(context.Background(), hashKey(testAPIKey))
	require.NoError(t, err)
	assert.False(t, record.LastUsedAt.IsZero())
}

func TestHandleInvalidJSON(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		Headers: map[string]string{"authorization": testAPIKey},
		Body:    "{not json",
	})
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	reply := decodeReply(t, resp)
	require.NotNil(t, reply.Error)
	assert.Equal(t, codeParseError, reply.Error.Code)
}

func TestHandleWrongJSONRPCVersion(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		Headers: map[string]string{"Authorization": "Bearer " + testAPIKey},
		Body:    `{"jsonrpc": "1.0", "id": 1, "method": "tools/list"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	reply := decodeReply(t, resp)
	require.NotNil(t, reply.Error)
	assert.Equal(t, codeInvalidRequest, reply.Error.Code)
}

func TestHandleInitialize(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	resp, err := handler.Handle(context.Background(), rpcRequest(t, testAPIKey, methodInitialize, map[string]any{
		"protocolVersion": "2025-03-26",
		"clientInfo":      map[string]any{"name": "test-client"},
	}))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	reply := decodeReply(t, resp)
	require.Nil(t, reply.Error)
	assert.Equal(t, ProtocolVersion, reply.Result["protocolVersion"])

	serverInfo, ok := reply.Result["serverInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ServerName, serverInfo["name"])
}

func TestHandleInitializedNotification(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	resp, err := handler.Handle(context.Background(), rpcRequest(t, testAPIKey, methodInitialized, nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
	assert.Empty(t, resp.Body)
}

func TestHandleToolsList(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	resp, err := handler.Handle(context.Background(), rpcRequest(t, testAPIKey, methodToolsList, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	reply := decodeReply(t, resp)
	require.Nil(t, reply.Error)

	tools, ok := reply.Result["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 4)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{
		"get_routing_prompt",
		"update_routing_prompt",
		"get_prompt_history",
		"validate_prompt_syntax",
	}, names)
}

func TestHandleUnknownMethod(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	resp, err := handler.Handle(context.Background(), rpcRequest(t, testAPIKey, "resources/list", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	reply := decodeReply(t, resp)
	require.NotNil(t, reply.Error)
	assert.Equal(t, codeMethodNotFound, reply.Error.Code)
	assert.Contains(t, reply.Error.Message, "resources/list")
}

func TestHandleUnknownTool(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	resp := callTool(t, handler, "delete_everything", nil)
	assert.Equal(t, 404, resp.StatusCode)

	reply := decodeReply(t, resp)
	require.NotNil(t, reply.Error)
	assert.Equal(t, codeMethodNotFound, reply.Error.Code)
	assert.Contains(t, reply.Error.Message, "delete_everything")
}

func TestHandlePermissionDenied(t *testing.T) {
	handler, _ := newTestHandler(t, func(store *configstore.MemoryStore) {
		store.SeedAPIKey(core.APIKeyRecord{
			KeyHash:     hashKey("readonly-key"),
			KeyName:     "readonly",
			IsActive:    true,
			Permissions: []string{"tools/list"},
		})
	})

	// The permitted method works.
	resp, err := handler.Handle(context.Background(), rpcRequest(t, "readonly-key", methodToolsList, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// Anything else is rejected.
	resp, err = handler.Handle(context.Background(), rpcRequest(t, "readonly-key", methodToolsCall, map[string]any{
		"name": "get_routing_prompt",
	}))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	reply := decodeReply(t, resp)
	require.NotNil(t, reply.Error)
	assert.Equal(t, codePermissionDenied, reply.Error.Code)
}

func TestHandleWildcardPermission(t *testing.T) {
	handler, _ := newTestHandler(t, func(store *configstore.MemoryStore) {
		store.SeedAPIKey(core.APIKeyRecord{
			KeyHash:     hashKey("admin-key"),
			KeyName:     "admin",
			IsActive:    true,
			Permissions: []string{"all"},
		})
	})

	resp, err := handler.Handle(context.Background(), rpcRequest(t, "admin-key", methodToolsList, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHandlePermissionSkippedForHandshake(t *testing.T) {
	handler, _ := newTestHandler(t, func(store *configstore.MemoryStore) {
		store.SeedAPIKey(core.APIKeyRecord{
			KeyHash:     hashKey("narrow-key"),
			KeyName:     "narrow",
			IsActive:    true,
			Permissions: []string{"tools/list"},
		})
	})

	resp, err := handler.Handle(context.Background(), rpcRequest(t, "narrow-key", methodInitialize, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestGetRoutingPromptNotConfigured(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	result := decodeToolResult(t, callTool(t, handler, toolGetRoutingPrompt, nil))
	assert.Equal(t, "Routing configuration not found", result["error"])
	assert.Nil(t, result["routing_rules"])
	assert.Equal(t, false, result["enabled"])
}

func TestGetRoutingPromptReturnsStoredRules(t *testing.T) {
	handler, _ := newTestHandler(t, func(store *configstore.MemoryStore) {
		store.SeedRoutingConfig(core.RoutingConfig{
			Rules:     "Route support mail to support@example.com",
			Enabled:   true,
			ModelID:   "custom-model",
			UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		})
	})

	result := decodeToolResult(t, callTool(t, handler, toolGetRoutingPrompt, nil))
	assert.Equal(t, "Route support mail to support@example.com", result["routing_rules"])
	assert.Equal(t, true, result["enabled"])
	assert.Equal(t, "custom-model", result["model_id"])
	assert.Equal(t, "2026-01-02T03:04:05Z", result["updated_at"])
}

func TestUpdateThenHistory(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	// First write: nothing to archive.
	result := decodeToolResult(t, callTool(t, handler, toolUpdateRoutingPrompt, map[string]any{
		"prompt": "version one",
	}))
	assert.Equal(t, true, result["success"])
	assert.NotEmpty(t, result["updated_at"])

	// Second write archives the first version.
	result = decodeToolResult(t, callTool(t, handler, toolUpdateRoutingPrompt, map[string]any{
		"prompt": "version two",
	}))
	assert.Equal(t, true, result["success"])

	result = decodeToolResult(t, callTool(t, handler, toolGetRoutingPrompt, nil))
	assert.Equal(t, "version two", result["routing_rules"])

	history := decodeToolResult(t, callTool(t, handler, toolGetPromptHistory, nil))
	versions, ok := history["versions"].([]any)
	require.True(t, ok)
	require.Len(t, versions, 1)
	assert.Equal(t, "version one", versions[0].(map[string]any)["routing_rules"])
}

func TestHistoryNewestFirstWithLimit(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	for i := 1; i <= 4; i++ {
		decodeToolResult(t, callTool(t, handler, toolUpdateRoutingPrompt, map[string]any{
			"prompt": fmt.Sprintf("version %d", i),
		}))
	}

	history := decodeToolResult(t, callTool(t, handler, toolGetPromptHistory, map[string]any{
		"limit": 2,
	}))
	versions, ok := history["versions"].([]any)
	require.True(t, ok)
	require.Len(t, versions, 2)
	assert.Equal(t, "version 3", versions[0].(map[string]any)["routing_rules"])
	assert.Equal(t, "version 2", versions[1].(map[string]any)["routing_rules"])
}

func TestValidatePromptSyntax(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	tests := []struct {
		name            string
		prompt          string
		wantValid       bool
		wantSuggestions bool
	}{
		{
			name:      "empty prompt",
			prompt:    "",
			wantValid: false,
		},
		{
			name:      "whitespace only",
			prompt:    "   \n\t",
			wantValid: false,
		},
		{
			name:            "very short rules",
			prompt:          "route it",
			wantValid:       true,
			wantSuggestions: true,
		},
		{
			name:            "no routing destination hint",
			prompt:          "Classify messages by their general sentiment and mood",
			wantValid:       true,
			wantSuggestions: true,
		},
		{
			name:      "reasonable rules",
			prompt:    "Route support emails to support@example.com with [SUPPORT] tag",
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := decodeToolResult(t, callTool(t, handler, toolValidateSyntax, map[string]any{
				"prompt": tt.prompt,
			}))
			assert.Equal(t, tt.wantValid, result["valid"])

			_, hasSuggestions := result["suggestions"]
			assert.Equal(t, tt.wantSuggestions, hasSuggestions)
			if !tt.wantValid {
				assert.NotEmpty(t, result["errors"])
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "bearer prefix",
			headers: map[string]string{"Authorization": "Bearer secret"},
			want:    "secret",
		},
		{
			name:    "raw key",
			headers: map[string]string{"Authorization": "secret"},
			want:    "secret",
		},
		{
			name:    "lowercase header",
			headers: map[string]string{"authorization": "Bearer secret"},
			want:    "secret",
		},
		{
			name:    "missing header",
			headers: map[string]string{"Content-Type": "application/json"},
			want:    "",
		},
		{
			name:    "nil headers",
			headers: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bearerToken(tt.headers))
		})
	}
}
