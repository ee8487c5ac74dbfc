package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// Handler serves the MCP protocol over API Gateway proxy events. It is
// stateless: every request authenticates independently.
type Handler struct {
	auth   *Authenticator
	tools  *ToolService
	logger *zap.Logger
}

// NewHandler creates a new protocol handler
func NewHandler(auth *Authenticator, tools *ToolService, logger *zap.Logger) *Handler {
	return &Handler{
		auth:   auth,
		tools:  tools,
		logger: logger,
	}
}

// Handle processes one proxy request. Authentication happens before the
// body is parsed, so unauthenticated callers only ever see a plain 401.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	apiKey := bearerToken(req.Headers)
	if apiKey == "" {
		return jsonResponse(401, map[string]any{"error": "Missing API key"}), nil
	}

	key := h.auth.Authenticate(ctx, apiKey)
	if key == nil {
		return jsonResponse(401, map[string]any{"error": "Invalid or expired API key"}), nil
	}

	body := req.Body
	if body == "" {
		body = "{}"
	}
	var rpc request
	if err := json.Unmarshal([]byte(body), &rpc); err != nil {
		return errorResponse(400, nil, codeParseError, "Parse error: Invalid JSON in request body"), nil
	}
	if rpc.JSONRPC != JSONRPCVersion {
		return errorResponse(400, rpc.ID, codeInvalidRequest, "Invalid Request: Must use JSON-RPC 2.0"), nil
	}

	h.logger.Debug("Handling MCP request",
		zap.String("method", rpc.Method),
		zap.String("key_name", key.KeyName))

	// Handshake methods are open to any authenticated key.
	if rpc.Method != methodInitialize && rpc.Method != methodInitialized {
		if !permitted(key.Permissions, rpc.Method) {
			h.logger.Warn("Permission denied",
				zap.String("method", rpc.Method),
				zap.String("key_name", key.KeyName))
			return errorResponse(403, rpc.ID, codePermissionDenied,
				fmt.Sprintf("API key does not have permission for method: %s", rpc.Method)), nil
		}
	}

	switch rpc.Method {
	case methodInitialize:
		return resultResponse(rpc.ID, initializeResult()), nil
	case methodInitialized:
		return events.APIGatewayProxyResponse{
			StatusCode: 204,
			Headers:    jsonHeaders(),
		}, nil
	case methodToolsList:
		return resultResponse(rpc.ID, map[string]any{"tools": toolCatalog()}), nil
	case methodToolsCall:
		return h.callTool(ctx, rpc), nil
	default:
		return errorResponse(404, rpc.ID, codeMethodNotFound,
			fmt.Sprintf("Unknown method: %s", rpc.Method)), nil
	}
}

func (h *Handler) callTool(ctx context.Context, rpc request) events.APIGatewayProxyResponse {
	var result map[string]any
	switch rpc.Params.Name {
	case toolGetRoutingPrompt:
		result = h.tools.GetRoutingPrompt(ctx)
	case toolUpdateRoutingPrompt:
		result = h.tools.UpdateRoutingPrompt(ctx, rpc.Params.Arguments.Prompt)
	case toolGetPromptHistory:
		result = h.tools.GetPromptHistory(ctx, rpc.Params.Arguments.Limit)
	case toolValidateSyntax:
		result = h.tools.ValidatePromptSyntax(rpc.Params.Arguments.Prompt)
	default:
		return errorResponse(404, rpc.ID, codeMethodNotFound,
			fmt.Sprintf("Unknown tool: %s", rpc.Params.Name))
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		h.logger.Error("Failed to serialize tool result", zap.Error(err))
		return errorResponse(500, rpc.ID, codePermissionDenied, "Internal error")
	}

	return resultResponse(rpc.ID, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
	})
}

// permitted reports whether the key's permission list covers the method.
// An empty list and the "all" wildcard both grant everything.
func permitted(permissions []string, method string) bool {
	if len(permissions) == 0 {
		return true
	}
	for _, p := range permissions {
		if p == "all" || p == method {
			return true
		}
	}
	return false
}

// bearerToken extracts the API key from the Authorization header,
// tolerating any header casing and an optional Bearer prefix.
func bearerToken(headers map[string]string) string {
	for name, value := range headers {
		if !strings.EqualFold(name, "authorization") {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 7 && strings.EqualFold(value[:7], "Bearer ") {
			value = strings.TrimSpace(value[7:])
		}
		return value
	}
	return ""
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	encoded, _ := json.Marshal(body)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    jsonHeaders(),
		Body:       string(encoded),
	}
}

func resultResponse(id any, result any) events.APIGatewayProxyResponse {
	return jsonResponse(200, response{JSONRPC: JSONRPCVersion, ID: id, Result: result})
}

func errorResponse(status int, id any, code int, message string) events.APIGatewayProxyResponse {
	return jsonResponse(status, response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
}
