package docpipe

// Config holds all configuration for the document pipeline.
type Config struct {
	// UploadsDir is where uploaded files are stored for the duration of a
	// request. Created on startup if missing.
	UploadsDir string `json:"uploads_dir" yaml:"uploads_dir"`

	// ProcessingDir is where intermediate artifacts (extracted page images)
	// are written.
	ProcessingDir string `json:"processing_dir" yaml:"processing_dir"`

	// Extractor selects the document extraction backend.
	// "llamaparse" (default) uses the LlamaParse cloud service and requires
	// an API key. "native" extracts text locally without network access.
	Extractor string `json:"extractor" yaml:"extractor"`

	// LlamaParse configures the cloud extraction service.
	LlamaParse LlamaParseConfig `json:"llamaparse" yaml:"llamaparse"`

	// LLM configures the provider used for identity field extraction.
	// A remote provider without an API key disables the identity stage
	// rather than failing the pipeline.
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// HistoryDBPath enables the SQLite processing history when non-empty.
	// Empty (the default) keeps the pipeline free of persistent state.
	HistoryDBPath string `json:"history_db_path" yaml:"history_db_path"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // openai, groq, openrouter, gemini, ollama, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// LlamaParseConfig configures the LlamaParse extraction service.
type LlamaParseConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// DefaultConfig returns a Config with sensible defaults. The LlamaParse and
// LLM API keys must still be supplied (config file or environment) before
// the respective stages are usable.
func DefaultConfig() Config {
	return Config{
		UploadsDir:    "uploaded_files",
		ProcessingDir: "processing_temp",
		Extractor:     "llamaparse",
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
	}
}
