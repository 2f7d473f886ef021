package calculator

import (
	"errors"
	"math"
	"testing"
)

func TestPersonShares(t *testing.T) {
	tests := []struct {
		name         string
		items        []Item
		billTotal    float64
		billSubtotal float64
		participants []string
		wantErr      bool
		validateFunc func(t *testing.T, splits map[string]*PersonSplit)
	}{
		{
			name: "simple two-person split with tax",
			items: []Item{
				{Name: "Pizza", Price: 20.0, Quantity: 1, Participants: []string{"Alice", "Bob"}},
				{Name: "Salad", Price: 10.0, Quantity: 1, Participants: []string{"Alice"}},
			},
			billTotal:    33.0,
			billSubtotal: 30.0,
			participants: []string{"Alice", "Bob"},
			validateFunc: func(t *testing.T, splits map[string]*PersonSplit) {
				// Alice: subtotal = 10 + 10 = 20, tax = 20 * (3/30) = 2, total = 22
				// Bob: subtotal = 10, tax = 10 * (3/30) = 1, total = 11
				alice := splits["Alice"]
				if math.Abs(alice.Subtotal-20.0) > 0.01 {
					t.Errorf("Alice subtotal = %v, want 20.0", alice.Subtotal)
				}
				if math.Abs(alice.Tax-2.0) > 0.01 {
					t.Errorf("Alice tax = %v, want 2.0", alice.Tax)
				}
				if math.Abs(alice.Total-22.0) > 0.01 {
					t.Errorf("Alice total = %v, want 22.0", alice.Total)
				}
				if len(alice.Items) != 2 {
					t.Errorf("Alice items = %d, want 2", len(alice.Items))
				}

				bob := splits["Bob"]
				if math.Abs(bob.Subtotal-10.0) > 0.01 {
					t.Errorf("Bob subtotal = %v, want 10.0", bob.Subtotal)
				}
				if math.Abs(bob.Total-11.0) > 0.01 {
					t.Errorf("Bob total = %v, want 11.0", bob.Total)
				}
			},
		},
		{
			name: "quantity multiplies the per-unit price",
			items: []Item{
				{Name: "Beer", Price: 5.0, Quantity: 4, Participants: []string{"Alice", "Bob"}},
			},
			billTotal:    20.0,
			billSubtotal: 20.0,
			participants: []string{"Alice", "Bob"},
			validateFunc: func(t *testing.T, splits map[string]*PersonSplit) {
				for _, person := range []string{"Alice", "Bob"} {
					if math.Abs(splits[person].Total-10.0) > 0.01 {
						t.Errorf("%s total = %v, want 10.0", person, splits[person].Total)
					}
				}
			},
		},
		{
			name:         "zero subtotal should error",
			items:        []Item{{Name: "Item", Price: 10.0, Participants: []string{"Alice"}}},
			billTotal:    10.0,
			billSubtotal: 0.0,
			participants: []string{"Alice"},
			wantErr:      true,
		},
		{
			name:         "no participants should error",
			items:        []Item{{Name: "Item", Price: 10.0, Participants: []string{"Alice"}}},
			billTotal:    10.0,
			billSubtotal: 10.0,
			participants: []string{},
			wantErr:      true,
		},
		{
			name:         "no items - three people split",
			items:        []Item{},
			billTotal:    90.0,
			billSubtotal: 75.0,
			participants: []string{"Alice", "Bob", "Charlie"},
			validateFunc: func(t *testing.T, splits map[string]*PersonSplit) {
				// Total = 90 / 3 = 30 each, subtotal = 25, tax = 5
				for _, person := range []string{"Alice", "Bob", "Charlie"} {
					split := splits[person]
					if math.Abs(split.Subtotal-25.0) > 0.01 {
						t.Errorf("%s subtotal = %v, want 25.0", person, split.Subtotal)
					}
					if math.Abs(split.Tax-5.0) > 0.01 {
						t.Errorf("%s tax = %v, want 5.0", person, split.Tax)
					}
					if math.Abs(split.Total-30.0) > 0.01 {
						t.Errorf("%s total = %v, want 30.0", person, split.Total)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := PersonShares(tt.items, tt.billTotal, tt.billSubtotal, tt.participants)
			if (err != nil) != tt.wantErr {
				t.Errorf("PersonShares() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.validateFunc != nil {
				tt.validateFunc(t, splits)
			}
		})
	}
}

func TestSplitEqual(t *testing.T) {
	shares, err := SplitEqual(100, []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("SplitEqual: %v", err)
	}
	// 10000 cents / 3 = 3333 r1, first person absorbs the extra cent
	if shares["A"] != 33.34 {
		t.Errorf("A = %v, want 33.34", shares["A"])
	}
	if shares["B"] != 33.33 || shares["C"] != 33.33 {
		t.Errorf("B, C = %v, %v, want 33.33", shares["B"], shares["C"])
	}
	sum := shares["A"] + shares["B"] + shares["C"]
	if math.Abs(sum-100) > 1e-9 {
		t.Errorf("sum = %v, want 100", sum)
	}

	if _, err := SplitEqual(10, nil); !errors.Is(err, ErrNoParticipants) {
		t.Errorf("expected ErrNoParticipants, got %v", err)
	}
	if _, err := SplitEqual(-1, []string{"A"}); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestSplitCustom(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		shares  map[string]float64
		wantErr error
	}{
		{name: "exact", amount: 50, shares: map[string]float64{"A": 20, "B": 30}},
		{name: "within tolerance", amount: 50, shares: map[string]float64{"A": 20.004, "B": 30}},
		{name: "mismatch", amount: 50, shares: map[string]float64{"A": 20, "B": 20}, wantErr: ErrSharesMismatch},
		{name: "negative", amount: 10, shares: map[string]float64{"A": 15, "B": -5}, wantErr: ErrNegativeAmount},
		{name: "empty", amount: 10, shares: nil, wantErr: ErrNoParticipants},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitCustom(tt.amount, tt.shares)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitItems(t *testing.T) {
	owed, unclaimed := SplitItems([]Item{
		{Name: "Nachos", Price: 12, Quantity: 1, Participants: []string{"A", "B"}},
		{Name: "Soda", Price: 2, Quantity: 3, Participants: []string{"C"}},
		{Name: "Dessert", Price: 8, Quantity: 1},
	})

	if owed["A"] != 6 || owed["B"] != 6 {
		t.Errorf("nachos split = %v/%v, want 6/6", owed["A"], owed["B"])
	}
	if owed["C"] != 6 {
		t.Errorf("C = %v, want 6", owed["C"])
	}
	if len(unclaimed) != 1 || unclaimed[0].Name != "Dessert" {
		t.Errorf("unclaimed = %+v, want Dessert", unclaimed)
	}
}
