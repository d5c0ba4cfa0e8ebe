package model

import "sort"

// Item identifies a kind of resource or product by name. The zero Item is
// "no item" and never appears in a slot.
type Item string

func (i Item) IsZero() bool   { return i == "" }
func (i Item) String() string { return string(i) }

// ItemCount is one (item, amount) pair of an add/remove request.
type ItemCount struct {
	Item   Item   `json:"item"`
	Amount uint32 `json:"amount"`
}

func Count(item Item, amount uint32) ItemCount { return ItemCount{Item: item, Amount: amount} }

// SortItems sorts in place by name and returns the slice.
func SortItems(items []Item) []Item {
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return items
}
