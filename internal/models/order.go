package models

import "slices"

// Ordered is implemented by child entities that carry an explicit display order.
// Child collections have no implied order, so every read sorts by it.
type Ordered interface {
	GetOrder() int
	SetOrder(int)
}

// SortByOrder sorts items by their Order field, keeping the relative position of equal orders.
func SortByOrder[T Ordered](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		return a.GetOrder() - b.GetOrder()
	})
}

// Renumber rewrites every element's order to its slice position (0..n-1).
func Renumber[T Ordered](items []T) {
	for i, it := range items {
		it.SetOrder(i)
	}
}

// NextOrder returns max(existing order)+1, or 0 for an empty collection.
func NextOrder[T Ordered](items []T) int {
	next := 0
	for _, it := range items {
		if o := it.GetOrder(); o >= next {
			next = o + 1
		}
	}
	return next
}

// Move removes the element at from and reinserts it at to, then renumbers.
// Out of range indices leave items untouched and return false.
func Move[T Ordered](items []T, from, to int) ([]T, bool) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return items, false
	}
	item := items[from]
	items = slices.Delete(items, from, from+1)
	items = slices.Insert(items, to, item)
	Renumber(items)
	return items, true
}
