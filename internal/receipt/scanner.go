package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/mmynk/splithub/internal/ai"
)

// AIScanner asks a vision model to read the receipt.
type AIScanner struct {
	gen    ai.Generator
	prompt string
}

// NewAIScanner returns a scanner that sends prompt with each image.
func NewAIScanner(gen ai.Generator, prompt string) *AIScanner {
	return &AIScanner{gen: gen, prompt: prompt}
}

// Scan implements Scanner.
func (s *AIScanner) Scan(ctx context.Context, image []byte, mimeType string) (*Receipt, error) {
	mimeType, err := CheckImage(image, mimeType)
	if err != nil {
		return nil, err
	}

	raw, err := s.gen.GenerateWithImage(ctx, "", s.prompt, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("scan receipt: %w", err)
	}

	r, err := Parse(raw)
	if err != nil {
		slog.WarnContext(ctx, "Unparseable receipt response", "error", err, "bytes", len(raw))
		return nil, err
	}
	return r, nil
}

// Parse reads the model's JSON answer. Markdown fences around the JSON are
// ignored and numbers may arrive as strings such as "$4.50".
func Parse(raw string) (*Receipt, error) {
	body := stripFences(raw)
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrUnparseable)
	}
	doc := gjson.Parse(body)

	items := doc.Get("items")
	if !items.IsArray() {
		return nil, fmt.Errorf("%w: missing items", ErrUnparseable)
	}

	r := &Receipt{
		Merchant: strings.TrimSpace(doc.Get("merchant").String()),
		Items:    []Item{},
	}

	subtotal := decimal.Zero
	items.ForEach(func(_, it gjson.Result) bool {
		name := strings.TrimSpace(it.Get("name").String())
		price := money(it.Get("price"))
		if name == "" || price.IsNegative() {
			return true
		}
		qty := int(it.Get("quantity").Int())
		if qty <= 0 {
			qty = 1
		}
		r.Items = append(r.Items, Item{Name: name, Price: price.InexactFloat64(), Quantity: qty})
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		return true
	})

	if v := doc.Get("subtotal"); v.Exists() && money(v).IsPositive() {
		subtotal = money(v)
	}
	tax := money(doc.Get("tax"))
	total := money(doc.Get("total"))
	if !total.IsPositive() {
		total = subtotal.Add(tax)
	}

	r.Subtotal = subtotal.Round(2).InexactFloat64()
	r.Tax = tax.Round(2).InexactFloat64()
	r.Total = total.Round(2).InexactFloat64()
	return r, nil
}

// money reads a number or a currency string as a decimal.
func money(v gjson.Result) decimal.Decimal {
	switch v.Type {
	case gjson.Number:
		return decimal.NewFromFloat(v.Float())
	case gjson.String:
		s := strings.TrimSpace(v.String())
		s = strings.TrimLeft(s, "$€£ ")
		s = strings.ReplaceAll(s, ",", "")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
