package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNoParticipants = errors.New("must have at least one participant")
	ErrZeroSubtotal   = errors.New("subtotal cannot be zero")
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrSharesMismatch = errors.New("custom shares must add up to the transaction amount")
	ErrItemsMismatch  = errors.New("itemized amount must equal the item subtotal plus tax and tip")
)

// PersonItem is one person's share of a single receipt item.
type PersonItem struct {
	Name   string
	Amount float64
}

// PersonSplit represents the calculated split for one person
type PersonSplit struct {
	Subtotal float64
	Tax      float64
	Total    float64
	Items    []PersonItem
}

// Item represents a single line on a receipt
type Item struct {
	Name         string
	Price        float64
	Quantity     int
	Participants []string
}

// LineTotal is price × quantity. A quantity of zero or less is an unset
// quantity and counts as one unit.
func (it Item) LineTotal() float64 {
	q := it.Quantity
	if q <= 0 {
		q = 1
	}
	return it.Price * float64(q)
}

// SplitEqual divides amount evenly among people, in cents.
// Leftover cents go to the first people in order so the shares sum to amount exactly.
func SplitEqual(amount float64, people []string) (map[string]float64, error) {
	if len(people) == 0 {
		return nil, ErrNoParticipants
	}
	if amount < 0 {
		return nil, ErrNegativeAmount
	}

	cents := decimal.NewFromFloat(amount).Round(2).Shift(2).IntPart()
	n := int64(len(people))
	base, rem := cents/n, cents%n

	shares := make(map[string]float64, len(people))
	for i, p := range people {
		c := base
		if int64(i) < rem {
			c++
		}
		shares[p] += decimal.New(c, -2).InexactFloat64()
	}
	return shares, nil
}

// SplitCustom validates explicit per-person shares against the transaction amount.
func SplitCustom(amount float64, shares map[string]float64) (map[string]float64, error) {
	if len(shares) == 0 {
		return nil, ErrNoParticipants
	}
	var sum float64
	out := make(map[string]float64, len(shares))
	for p, v := range shares {
		if v < 0 {
			return nil, fmt.Errorf("share for %s: %w", p, ErrNegativeAmount)
		}
		sum += v
		out[p] = v
	}
	if diff := sum - amount; diff > epsilon || diff < -epsilon {
		return nil, fmt.Errorf("%w: shares=%.2f amount=%.2f", ErrSharesMismatch, sum, amount)
	}
	return out, nil
}

// SplitItems applies the per-unit shared-item rule: every person attached to an
// item owes price × quantity / len(participants). Items nobody claimed are returned
// separately so the caller can surface them.
func SplitItems(items []Item) (map[string]float64, []Item) {
	owed := make(map[string]float64)
	var unclaimed []Item
	for _, item := range items {
		if len(item.Participants) == 0 {
			unclaimed = append(unclaimed, item)
			continue
		}
		share := item.LineTotal() / float64(len(item.Participants))
		for _, p := range item.Participants {
			owed[p] += share
		}
	}
	return owed, unclaimed
}

// PersonShares computes how much each person owes including proportional tax
// Based on the algorithm: person_total = person_subtotal × (1 + (total_tax / bill_subtotal))
func PersonShares(items []Item, billTotal float64, billSubtotal float64, participants []string) (map[string]*PersonSplit, error) {
	if billSubtotal == 0 {
		return nil, ErrZeroSubtotal
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	tax := billTotal - billSubtotal
	splits := make(map[string]*PersonSplit)

	for _, p := range participants {
		splits[p] = &PersonSplit{}
	}

	// No items: split everything equally
	if len(items) == 0 {
		perPersonTotal := billTotal / float64(len(participants))
		perPersonSubtotal := billSubtotal / float64(len(participants))
		perPersonTax := tax / float64(len(participants))

		for _, split := range splits {
			split.Subtotal = perPersonSubtotal
			split.Tax = perPersonTax
			split.Total = perPersonTotal
		}
		return splits, nil
	}

	for _, item := range items {
		if len(item.Participants) == 0 {
			continue
		}

		perPersonAmount := item.LineTotal() / float64(len(item.Participants))
		for _, person := range item.Participants {
			if split, exists := splits[person]; exists {
				split.Subtotal += perPersonAmount
				split.Items = append(split.Items, PersonItem{Name: item.Name, Amount: perPersonAmount})
			}
		}
	}

	for _, split := range splits {
		split.Tax = split.Subtotal * (tax / billSubtotal)
		split.Total = split.Subtotal + split.Tax
	}

	return splits, nil
}

// RoundCents rounds x half-away-from-zero to two decimals.
func RoundCents(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
