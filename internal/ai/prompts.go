package ai

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Prompts is the prompt catalogue shipped with the binary.
type Prompts struct {
	ChatSystem      string `yaml:"chat_system"`
	ReceiptOCR      string `yaml:"receipt_ocr"`
	ReceiptSummary  string `yaml:"receipt_summary"`
	ChatFallback    string `yaml:"chat_fallback"`
	SummaryFallback string `yaml:"summary_fallback"`
}

// LoadPrompts parses the embedded catalogue.
func LoadPrompts() (*Prompts, error) {
	return ParsePrompts(promptsYAML)
}

// ParsePrompts parses a catalogue and checks every prompt is present.
func ParsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}

	missing := []string{}
	for name, v := range map[string]string{
		"chat_system":      p.ChatSystem,
		"receipt_ocr":      p.ReceiptOCR,
		"receipt_summary":  p.ReceiptSummary,
		"chat_fallback":    p.ChatFallback,
		"summary_fallback": p.SummaryFallback,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("parse prompts: missing %s", strings.Join(missing, ", "))
	}
	return &p, nil
}

// MustLoadPrompts is LoadPrompts for package initialisation.
func MustLoadPrompts() *Prompts {
	p, err := LoadPrompts()
	if err != nil {
		panic(err)
	}
	return p
}

// SummaryFallbackText fills the fallback template.
func (p *Prompts) SummaryFallbackText(total string, count int) string {
	r := strings.NewReplacer("{{total}}", total, "{{count}}", fmt.Sprint(count))
	return r.Replace(p.SummaryFallback)
}
