package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/splithub/internal/cache"
	"github.com/mmynk/splithub/internal/models"
)

// SummaryInput is the bill to narrate.
type SummaryInput struct {
	Title    string               `json:"title,omitempty"`
	Currency string               `json:"currency,omitempty"`
	Items    []models.ReceiptItem `json:"items"`
	Tax      float64              `json:"tax,omitempty"`
	Tip      float64              `json:"tip,omitempty"`
	Total    float64              `json:"total,omitempty"`
}

// SummaryFromSession collects the items and extras of every transaction in s.
func SummaryFromSession(s *models.Session) SummaryInput {
	in := SummaryInput{Title: s.Title, Currency: s.Currency, Total: s.Total()}
	for _, tx := range s.Transactions {
		if len(tx.Items) == 0 {
			in.Items = append(in.Items, models.ReceiptItem{
				Name:         tx.Description,
				Price:        tx.Amount,
				Quantity:     1,
				Participants: tx.SplitAmong,
			})
			continue
		}
		in.Items = append(in.Items, tx.Items...)
		in.Tax += tx.Tax
		in.Tip += tx.Tip
	}
	return in
}

func (in SummaryInput) total() float64 {
	if in.Total > 0 {
		return in.Total
	}
	t := in.Tax + in.Tip
	for _, it := range in.Items {
		t += it.LineTotal()
	}
	return t
}

func (in SummaryInput) money(v float64) string {
	if in.Currency == "" || in.Currency == "USD" {
		return fmt.Sprintf("$%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, in.Currency)
}

// prompt renders the bill as plain lines for the model.
func (in SummaryInput) prompt() string {
	var sb strings.Builder
	if in.Title != "" {
		fmt.Fprintf(&sb, "Bill: %s\n", in.Title)
	}
	var unclaimed []string
	for _, it := range in.Items {
		q := it.Quantity
		if q <= 0 {
			q = 1
		}
		fmt.Fprintf(&sb, "- %s x%d: %s", it.Name, q, in.money(it.LineTotal()))
		if len(it.Participants) > 0 {
			fmt.Fprintf(&sb, " (shared by %d)", len(it.Participants))
		} else {
			unclaimed = append(unclaimed, it.Name)
		}
		sb.WriteByte('\n')
	}
	if in.Tax > 0 {
		fmt.Fprintf(&sb, "Tax: %s\n", in.money(in.Tax))
	}
	if in.Tip > 0 {
		fmt.Fprintf(&sb, "Tip: %s\n", in.money(in.Tip))
	}
	fmt.Fprintf(&sb, "Total: %s\n", in.money(in.total()))
	if len(unclaimed) > 0 {
		fmt.Fprintf(&sb, "Unclaimed: %s\n", strings.Join(unclaimed, ", "))
	}
	return sb.String()
}

// ReceiptSummary returns a short narration of the bill. It never fails: a
// model error produces the fallback text, which is not cached.
func (a *Assistant) ReceiptSummary(ctx context.Context, in SummaryInput) string {
	body := in.prompt()
	raw, _ := json.Marshal(in)
	key := cache.Key("summary", string(raw))

	if v, ok := a.cached(ctx, key); ok {
		return v
	}

	out, err := a.gen.Generate(ctx, a.prompts.ReceiptSummary, nil, body)
	if err != nil {
		slog.ErrorContext(ctx, "Receipt summary generation failed", "items", len(in.Items), "error", err)
		return a.prompts.SummaryFallbackText(in.money(in.total()), len(in.Items))
	}

	a.remember(ctx, key, out)
	return out
}
