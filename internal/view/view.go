// Package view derives filtered, sorted client lists from registry
// snapshots. Everything here is pure: the same snapshot, filters and sort
// key always produce the same list, and inputs are never mutated.
package view

import (
	"sort"
	"strings"
	"time"

	"agency-data-service/internal/domain/clients"
)

// SortKey selects the ordering of a derived client list.
type SortKey string

const (
	SortNameAsc       SortKey = "name_asc"
	SortNameDesc      SortKey = "name_desc"
	SortBirthDateAsc  SortKey = "birthdate_asc"
	SortBirthDateDesc SortKey = "birthdate_desc"
)

// ParseSortKey maps a request parameter to a SortKey, defaulting to
// ascending name order for unknown or empty input.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(s)) {
	case SortNameDesc:
		return SortNameDesc
	case SortBirthDateAsc:
		return SortBirthDateAsc
	case SortBirthDateDesc:
		return SortBirthDateDesc
	default:
		return SortNameAsc
	}
}

// Filters narrows a client list. Zero values mean "no constraint"; set
// fields combine conjunctively.
type Filters struct {
	ClubID string
	Gender clients.Gender
	Role   clients.Role
}

// Matches reports whether a client passes every set filter.
func (f Filters) Matches(c clients.Client) bool {
	if f.ClubID != "" && c.ClubID != f.ClubID {
		return false
	}
	if f.Gender != "" && c.Gender != f.Gender {
		return false
	}
	if f.Role != "" && c.Role != f.Role {
		return false
	}
	return true
}

// FilteredSorted returns a new slice holding the clients that pass the
// filters, ordered by the sort key. Clients missing the sort key's value
// sort after those that have one; ties keep the input order.
func FilteredSorted(in []clients.Client, filters Filters, key SortKey) []clients.Client {
	out := make([]clients.Client, 0, len(in))
	for _, c := range in {
		if filters.Matches(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j], key)
	})
	return out
}

func less(a, b clients.Client, key SortKey) bool {
	switch key {
	case SortNameDesc:
		return a.SortName() > b.SortName()
	case SortBirthDateAsc:
		return birthDateLess(a.BirthDate, b.BirthDate, false)
	case SortBirthDateDesc:
		return birthDateLess(a.BirthDate, b.BirthDate, true)
	default:
		return a.SortName() < b.SortName()
	}
}

// birthDateLess orders known dates before unknown ones regardless of
// direction, so clients without a birth date always trail the list.
func birthDateLess(a, b *time.Time, descending bool) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	if descending {
		return a.After(*b)
	}
	return a.Before(*b)
}
