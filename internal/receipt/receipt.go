// Package receipt turns receipt photos into line items.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 10 << 20

var (
	ErrTooLarge    = errors.New("receipt image exceeds 10 MiB")
	ErrEmptyImage  = errors.New("receipt image is empty")
	ErrUnsupported = errors.New("receipt must be an image")
	ErrUnparseable = errors.New("could not read receipt")
)

// Item is one scanned line.
type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Receipt is the structured result of a scan.
type Receipt struct {
	Merchant string  `json:"merchant,omitempty"`
	Items    []Item  `json:"items"`
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Scanner extracts a Receipt from an image.
type Scanner interface {
	Scan(ctx context.Context, image []byte, mimeType string) (*Receipt, error)
}

// CheckImage validates size and type. An empty mimeType is sniffed from the
// content. It returns the effective MIME type.
func CheckImage(image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	if len(image) > MaxImageBytes {
		return "", ErrTooLarge
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: got %s", ErrUnsupported, mimeType)
	}
	return mimeType, nil
}

// MockScanner returns a fixed sample receipt for any valid image.
type MockScanner struct{}

// Scan implements Scanner.
func (MockScanner) Scan(_ context.Context, image []byte, mimeType string) (*Receipt, error) {
	if _, err := CheckImage(image, mimeType); err != nil {
		return nil, err
	}
	return Sample(), nil
}

// Sample is the canned receipt served by the mock OCR endpoint.
func Sample() *Receipt {
	return &Receipt{
		Merchant: "Corner Bistro",
		Items: []Item{
			{Name: "Margherita Pizza", Price: 14.50, Quantity: 1},
			{Name: "Caesar Salad", Price: 9.25, Quantity: 1},
			{Name: "Lemonade", Price: 3.50, Quantity: 2},
		},
		Subtotal: 30.75,
		Tax:      2.69,
		Total:    33.44,
	}
}
