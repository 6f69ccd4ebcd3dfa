package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements NoteProvider using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Flash keeps latency and cost low; notes are throwaway text.
	model := client.GenerativeModel("gemini-2.0-flash")
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.4)

	return &GeminiProvider{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

const notePrompt = `You are a dispatcher assistant for a Korean shared-logistics platform.
Given the JSON facts of a committed shipment-vehicle match, write one short sentence
(Korean, polite register) an operator can show the carrier: mention cargo, weight,
and anything the special instructions require. Respond as JSON: {"note": "..."}.`

// MatchNote summarizes an assignment in one operator-facing sentence.
func (p *GeminiProvider) MatchNote(ctx context.Context, input MatchContext) (string, error) {
	facts, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	resp, err := p.model.GenerateContent(ctx, genai.Text(fmt.Sprintf("%s\n\nFacts: %s", notePrompt, facts)))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}

	var result noteResult
	if err := json.Unmarshal([]byte(cleanJSONString(text.String())), &result); err != nil {
		return "", fmt.Errorf("unparseable note response: %w", err)
	}
	return result.Note, nil
}

// cleanJSONString strips markdown fences the model sometimes wraps around
// JSON despite the response MIME type.
func cleanJSONString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
