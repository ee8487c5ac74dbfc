// Package mcp implements the Model Context Protocol server surface that lets
// external clients manage the stored routing configuration.
package mcp

// ProtocolVersion is the MCP revision this server speaks.
const ProtocolVersion = "2025-03-26"

// JSONRPCVersion is the required JSON-RPC envelope version.
const JSONRPCVersion = "2.0"

// Server identity returned from the initialize handshake.
const (
	ServerName    = "email-routing-mcp"
	ServerVersion = "1.0.0"
)

// Protocol methods.
const (
	methodInitialize  = "initialize"
	methodInitialized = "notifications/initialized"
	methodToolsList   = "tools/list"
	methodToolsCall   = "tools/call"
)

// Tool names.
const (
	toolGetRoutingPrompt    = "get_routing_prompt"
	toolUpdateRoutingPrompt = "update_routing_prompt"
	toolGetPromptHistory    = "get_prompt_history"
	toolValidateSyntax      = "validate_prompt_syntax"
)

// JSON-RPC error codes.
const (
	codeParseError       = -32700
	codeInvalidRequest   = -32600
	codeMethodNotFound   = -32601
	codePermissionDenied = -32603
)

// request is the inbound JSON-RPC 2.0 envelope.
type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Method  string        `json:"method"`
	Params  requestParams `json:"params"`
}

type requestParams struct {
	// initialize
	ProtocolVersion string         `json:"protocolVersion,omitempty"`
	ClientInfo      map[string]any `json:"clientInfo,omitempty"`

	// tools/call
	Name      string        `json:"name,omitempty"`
	Arguments toolArguments `json:"arguments,omitempty"`
}

type toolArguments struct {
	Prompt string `json:"prompt"`
	Limit  int    `json:"limit"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// response is the outbound JSON-RPC 2.0 envelope.
type response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

// initializeResult returns the fixed handshake payload: protocol
// capabilities and server identity.
func initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": ServerVersion,
		},
		"instructions": "MCP server for managing AI email routing prompts. Use tools to view and update routing configuration.",
	}
}

// toolCatalog returns the static descriptors of the four management tools.
func toolCatalog() []map[string]any {
	return []map[string]any{
		{
			"name":        toolGetRoutingPrompt,
			"description": "Get current email routing rules. Returns business logic for routing (destinations, tags, conditions). The prompt template enforcing JSON output is fixed server-side.",
			"inputSchema": map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			"name":        toolUpdateRoutingPrompt,
			"description": "Update email routing rules. Provide only business logic (where to route, what tags to add). Do NOT include email content placeholders or JSON format - those are in the fixed server-side template.",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"prompt": map[string]any{
						"type":        "string",
						"description": "Routing rules defining business logic (e.g., 'Route support emails to support@example.com with [SUPPORT] tag')",
					},
				},
				"required": []string{"prompt"},
			},
		},
		{
			"name":        toolGetPromptHistory,
			"description": "Get routing rules version history (last 10 versions by default)",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"limit": map[string]any{"type": "number", "default": 10},
				},
			},
		},
		{
			"name":        toolValidateSyntax,
			"description": "Validate routing rules syntax. Checks that rules are non-empty and provides suggestions. No need to include {sender}, {subject}, {body} placeholders - those are in the fixed server-side template.",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"prompt": map[string]any{
						"type":        "string",
						"description": "Routing rules to validate",
					},
				},
				"required": []string{"prompt"},
			},
		},
	}
}
