// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-curator/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the metadata fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequestDelay is the delay between consecutive API requests (default 1s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`
}

// FilterConfig holds settings for the filtering stage.
type FilterConfig struct {
	// DomainFile is the path to the domain ruleset YAML.
	DomainFile string `json:"domain_file" yaml:"domain_file"`

	// Concurrency bounds parallel pipeline evaluation. Values below 1
	// mean sequential processing.
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ClassifyConfig holds settings for the classification enrichment stage.
type ClassifyConfig struct {
	AIConfig `yaml:",inline"`

	// Concurrency bounds the enrichment worker pool (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// CallTimeout bounds each labeler call (default 60s). A timed-out
	// call degrades to the fallback result.
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`
}

// StoreConfig holds settings for the lifecycle state store.
type StoreConfig struct {
	// DataDir is the directory holding curation.db.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// ExportConfig holds settings for the static site export stage.
type ExportConfig struct {
	// OutDir is the directory for the exported JSON files
	// (e.g. "site/data").
	OutDir string `json:"out_dir" yaml:"out_dir"`
}

// CurationConfig groups all stage configurations.
type CurationConfig struct {
	Fetch    FetchConfig    `json:"fetch" yaml:"fetch"`
	Filter   FilterConfig   `json:"filter" yaml:"filter"`
	Classify ClassifyConfig `json:"classify" yaml:"classify"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Export   ExportConfig   `json:"export" yaml:"export"`
}
