// Package layering computes stacking order for canvas elements.
//
// Z values start at 1. Paint order is ascending z with ties kept in
// insertion order, so sorting must be stable.
package layering

import "sort"

// Floor is the lowest z value an element can hold.
const Floor = 1

// Layered is anything that carries a z value.
type Layered interface {
	Z() int
}

// Top returns the highest z value among items, or 0 when items is empty.
func Top[T Layered](items []T) int {
	top := 0
	for _, it := range items {
		if z := it.Z(); z > top {
			top = z
		}
	}

	return top
}

// Forward returns the z an element moves to when brought forward.
// The result is always strictly above top, including when current is
// already tied for the maximum.
func Forward(current, top int) int {
	if current >= top {
		return current + 1
	}

	return top + 1
}

// Backward returns the z an element moves to when sent backward.
func Backward(current int) int {
	if current-1 < Floor {
		return Floor
	}

	return current - 1
}

// OnTop returns the z for an element that must render above all of items.
func OnTop[T Layered](items []T) int {
	return Top(items) + 1
}

// Sort orders items for painting: ascending z, ties in their current order.
func Sort[T Layered](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Z() < items[j].Z()
	})
}
