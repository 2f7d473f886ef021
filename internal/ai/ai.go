// Package ai wraps the generative model used for chat, receipt OCR and
// receipt narration.
package ai

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/splithub/internal/metrics"
	"github.com/mmynk/splithub/internal/models"
)

// ErrDisabled is returned when no model is configured.
var ErrDisabled = errors.New("ai: no model configured")

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("ai: empty response")

// Turn is one prior message fed back to the model as history.
type Turn struct {
	Role models.Role
	Text string
}

// Generator produces text from a prompt, optionally with an image.
type Generator interface {
	Generate(ctx context.Context, system string, history []Turn, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, system, prompt string, image []byte, mimeType string) (string, error)
}

// Disabled is the Generator used when no API key is set.
type Disabled struct{}

func (Disabled) Generate(context.Context, string, []Turn, string) (string, error) {
	return "", ErrDisabled
}

func (Disabled) GenerateWithImage(context.Context, string, string, []byte, string) (string, error) {
	return "", ErrDisabled
}

// Instrumented records latency and failures of every call on the wrapped
// Generator.
type Instrumented struct {
	Next Generator
}

func (g Instrumented) Generate(ctx context.Context, system string, history []Turn, prompt string) (string, error) {
	start := time.Now()
	out, err := g.Next.Generate(ctx, system, history, prompt)
	metrics.RecordAICall("generate", time.Since(start), err)
	return out, err
}

func (g Instrumented) GenerateWithImage(ctx context.Context, system, prompt string, image []byte, mimeType string) (string, error) {
	start := time.Now()
	out, err := g.Next.GenerateWithImage(ctx, system, prompt, image, mimeType)
	metrics.RecordAICall("generate_with_image", time.Since(start), err)
	return out, err
}
