package config

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// S3Config represents the configuration for the raw mail bucket
type S3Config struct {
	Bucket    string
	KeyPrefix string
}

// ForwardingConfig represents the forwarding behaviour
type ForwardingConfig struct {
	ForwardTo      string
	FromAddress    string
	RoutingEnabled bool
}

// SenderConfig selects the outbound mail transport
type SenderConfig struct {
	Type string
}

// SMTPConfig represents the SMTP relay transport
type SMTPConfig struct {
	Address  string
	Username string
	Password string
}

// StoreConfig selects the routing configuration store backend
type StoreConfig struct {
	Type       string
	TableName  string
	SQLitePath string
	MySQLDSN   string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
	}
}

// GetS3 returns the raw mail bucket configuration
func (c *Config) GetS3() S3Config {
	return S3Config{
		Bucket:    c.GetString("s3.bucket"),
		KeyPrefix: c.GetString("s3.key_prefix"),
	}
}

// GetForwarding returns the forwarding configuration
func (c *Config) GetForwarding() ForwardingConfig {
	return ForwardingConfig{
		ForwardTo:      c.GetString("forwarding.forward_to"),
		FromAddress:    c.GetString("forwarding.from_address"),
		RoutingEnabled: c.GetBool("forwarding.routing_enabled"),
	}
}

// GetSender returns the outbound transport configuration
func (c *Config) GetSender() SenderConfig {
	return SenderConfig{
		Type: c.GetString("sender.type"),
	}
}

// GetSMTP returns the SMTP relay configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Address:  c.GetString("smtp.address"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
	}
}

// GetStore returns the config store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		TableName:  c.GetString("store.table_name"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}
