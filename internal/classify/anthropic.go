// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"

	"github.com/mlsec/paper-curator/pkg/types"
)

// classificationPromptTmpl is the prompt sent to the Claude API for each
// accepted paper. It instructs the model to assign taxonomy labels with
// structured metadata and respond with bare JSON.
var classificationPromptTmpl = template.Must(template.New("classification").Parse(`You are a machine learning security paper classifier. Classify the following paper into the OWASP Machine Learning Security Top 10 taxonomy.

Labels (multi-label, use "NONE" if no category applies):
- ML01: Input Manipulation Attack
- ML02: Data Poisoning Attack
- ML03: Model Inversion Attack
- ML04: Membership Inference Attack
- ML05: Model Theft
- ML06: AI Supply Chain Attacks
- ML07: Transfer Learning Attack
- ML08: Model Skewing
- ML09: Output Integrity Attack
- ML10: Model Poisoning

For the paper, identify:
- labels: list of label codes, most specific first. Never combine "NONE" with a real label.
- paper_type: one of "attack", "defense", "survey", "benchmark", "tool", "theoretical", "empirical"
- domains: application domains, lowercase (e.g. "vision", "nlp", "llm", "audio", "tabular")
- model_types: model architectures, lowercase (e.g. "cnn", "transformer", "llm", "gnn")
- tags: lowercase, hyphenated free-form topic tags drawn from the paper's vocabulary
- confidence: "high", "medium", or "low"
- reasoning: one or two sentences explaining the labels

Respond with a single JSON object containing exactly those fields. Do not include any text outside the JSON object.

Example response:
{"labels": ["ML05"], "paper_type": "attack", "domains": ["vision"], "model_types": ["cnn"], "tags": ["query-efficiency", "surrogate-model"], "confidence": "high", "reasoning": "Proposes a query-based model extraction attack on image classifiers."}

Paper:
Title: {{.Title}}
{{- if .Abstract}}
Abstract: {{.Abstract}}
{{- end}}
{{- if .Venue}}
Venue: {{.Venue}}
{{- end}}
{{- if .Year}}
Year: {{.Year}}
{{- end}}
`))

// anthropicAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// Labeler produces a raw classification response for one paper. The
// Enricher validates and normalizes whatever comes back; implementations
// only need to return the model's text.
type Labeler interface {
	Classify(ctx context.Context, paper types.Paper) (string, error)
}

// AnthropicLabeler calls the Claude Messages API with the classification
// prompt.
type AnthropicLabeler struct {
	APIKey string
	Model  string
	Client *http.Client
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Classify renders the prompt for one paper and returns the model's text
// response verbatim.
func (a *AnthropicLabeler) Classify(ctx context.Context, paper types.Paper) (string, error) {
	var buf bytes.Buffer
	if err := classificationPromptTmpl.Execute(&buf, paper); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := anthropicRequest{
		Model:     a.Model,
		MaxTokens: 1024,
		Messages: []anthropicMessage{
			{Role: "user", Content: buf.String()},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var ar anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range ar.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}
