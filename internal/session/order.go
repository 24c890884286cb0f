package session

import (
	"cmp"
	"slices"

	"github.com/wagnerlima/promptmux/internal/models"
)

func sortByOrder[T any](items []T, rank func(T) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(rank(a), rank(b))
	})
}

func repackSections(sections []*models.Section) {
	for i, s := range sections {
		s.OrderIndex = i
	}
}

func repackTopics(topics []*models.Topic) {
	for i, t := range topics {
		t.OrderIndex = i
	}
}

// move relocates items[from] to the drop slot newIndex. Slots are numbered
// against the list before removal, so a forward move lands one position
// earlier once the item has been taken out. Slots past the end append.
func move[T any](items []T, from, newIndex int) []T {
	item := items[from]
	items = slices.Delete(items, from, from+1)
	at := newIndex
	if newIndex > from {
		at = newIndex - 1
	}
	at = max(0, min(at, len(items)))
	return slices.Insert(items, at, item)
}
