package industry

// Config holds the per-trade persona and safety policy used to drive the AI
// responder for clients of a given industry type.
type Config struct {
	IndustryType         string   `json:"industry_type"`
	SystemPromptTemplate string   `json:"system_prompt_template"`
	SafetyKeywords       []string `json:"safety_keywords"`
	SafetyResponse       string   `json:"safety_response"`
	VisionInstruction    string   `json:"vision_instruction"`
}

// DefaultConfig is the fallback persona applied when a client's industry type
// has no configuration row. It carries no safety keywords, so the safety gate
// never fires for unconfigured trades.
func DefaultConfig(industryType string) *Config {
	return &Config{
		IndustryType:         industryType,
		SystemPromptTemplate: "You are a helpful assistant.",
		SafetyKeywords:       nil,
		SafetyResponse:       "",
		VisionInstruction:    "Describe image.",
	}
}
