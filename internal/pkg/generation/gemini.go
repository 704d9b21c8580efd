package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// Uploader stores raw artifact bytes and returns a public URL.
// Implemented by the artifact store; faked in tests.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// GeminiGenerator produces SVG cover art via the Gemini API and uploads
// each result to the artifact store.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
	uploader  Uploader
}

// NewGeminiGenerator initializes the Gemini client.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, uploader Uploader) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	return &GeminiGenerator{client: client, modelName: modelName, uploader: uploader}, nil
}

// Close releases the underlying API client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

// Generate asks the model for a complete SVG book cover and stores it.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt, style string) (*ArtifactRef, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(
			"You are a book cover designer. Respond with a single complete " +
				"SVG document (800x1200 viewBox) and nothing else. No markdown, " +
				"no explanations.",
		)},
	}

	res, err := model.GenerateContent(ctx, genai.Text(
		fmt.Sprintf("Design a %s style book cover for: %s", style, prompt),
	))
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	svg, err := extractSVG(res)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	key := fmt.Sprintf("covers/%s.svg", id)
	url, err := g.uploader.Upload(ctx, key, "image/svg+xml", []byte(svg))
	if err != nil {
		return nil, fmt.Errorf("artifact upload failed: %w", err)
	}

	return &ArtifactRef{UUID: id, ObjectKey: key, URL: url, Style: style}, nil
}

// extractSVG pulls the SVG markup out of a model response, tolerating
// stray markdown fences.
func extractSVG(res *genai.GenerateContentResponse) (string, error) {
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model response")
	}
	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response part type %T", res.Candidates[0].Content.Parts[0])
	}
	svg := strings.TrimSpace(string(text))
	svg = strings.TrimPrefix(svg, "```svg")
	svg = strings.TrimPrefix(svg, "```xml")
	svg = strings.TrimPrefix(svg, "```")
	svg = strings.TrimSuffix(svg, "```")
	svg = strings.TrimSpace(svg)
	if !strings.HasPrefix(svg, "<svg") && !strings.HasPrefix(svg, "<?xml") {
		return "", fmt.Errorf("model response is not an SVG document")
	}
	return svg, nil
}
