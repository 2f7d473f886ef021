package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	gl "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"

	"github.com/mmynk/splithub/internal/models"
)

// Gemini calls the Generative Language API.
type Gemini struct {
	svc   *gl.Service
	model string
}

// NewGemini creates a client for model authenticated with apiKey. Extra
// options are appended, which tests use to point at a local endpoint.
func NewGemini(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Gemini, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := gl.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create generative language service: %w", err)
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	slog.InfoContext(ctx, "Generative model configured", "model", model)
	return &Gemini{svc: svc, model: model}, nil
}

// Generate sends history followed by prompt and returns the reply text.
func (g *Gemini) Generate(ctx context.Context, system string, history []Turn, prompt string) (string, error) {
	contents := make([]*gl.Content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, &gl.Content{
			Role:  geminiRole(turn.Role),
			Parts: []*gl.Part{{Text: turn.Text}},
		})
	}
	contents = append(contents, &gl.Content{
		Role:  "user",
		Parts: []*gl.Part{{Text: prompt}},
	})
	return g.call(ctx, system, contents, "")
}

// GenerateWithImage sends a single prompt with an inline image and asks for JSON output.
func (g *Gemini) GenerateWithImage(ctx context.Context, system, prompt string, image []byte, mimeType string) (string, error) {
	contents := []*gl.Content{{
		Role: "user",
		Parts: []*gl.Part{
			{Text: prompt},
			{InlineData: &gl.Blob{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(image),
			}},
		},
	}}
	return g.call(ctx, system, contents, "application/json")
}

func (g *Gemini) call(ctx context.Context, system string, contents []*gl.Content, responseMime string) (string, error) {
	req := &gl.GenerateContentRequest{Contents: contents}
	if system != "" {
		req.SystemInstruction = &gl.Content{Parts: []*gl.Part{{Text: system}}}
	}
	if responseMime != "" {
		req.GenerationConfig = &gl.GenerationConfig{ResponseMimeType: responseMime}
	}

	resp, err := g.svc.Models.GenerateContent(g.model, req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *gl.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

func geminiRole(r models.Role) string {
	if r == models.RoleAssistant {
		return "model"
	}
	return "user"
}
