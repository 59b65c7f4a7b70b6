package docstore

import "sort"

// PageOf applies a QuerySpec's filters, ordering, cursor, and limit to a
// full collection scan. Both store implementations share it so query
// semantics cannot drift between backends.
func PageOf(docs []Document, spec QuerySpec) Page {
	filtered := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, spec.Filters) {
			filtered = append(filtered, doc)
		}
	}

	SortDocs(filtered, spec)

	if spec.StartAfter != nil {
		filtered = dropThroughCursor(filtered, spec)
	}

	var next *Cursor
	if spec.Limit > 0 && len(filtered) > spec.Limit {
		filtered = filtered[:spec.Limit]
		last := filtered[len(filtered)-1]
		next = &Cursor{Value: orderValue(last, spec.OrderBy), ID: last.ID}
	}

	return Page{Documents: filtered, NextCursor: next}
}

// SortDocs orders documents by the spec's sort key, missing values last,
// document ID as the deterministic tie-break.
func SortDocs(docs []Document, spec QuerySpec) {
	sort.SliceStable(docs, func(i, j int) bool {
		cmp := CompareValues(orderValue(docs[i], spec.OrderBy), orderValue(docs[j], spec.OrderBy))
		if spec.Descending {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
		return docs[i].ID < docs[j].ID
	})
}

// dropThroughCursor skips documents at or before the cursor position.
// Ties on the order value resolve by the same ID comparison SortDocs uses,
// so documents sharing the cursor's value survive the page boundary.
func dropThroughCursor(docs []Document, spec QuerySpec) []Document {
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		cmp := CompareValues(orderValue(doc, spec.OrderBy), spec.StartAfter.Value)
		if spec.Descending {
			cmp = -cmp
		}
		if cmp > 0 || (cmp == 0 && doc.ID > spec.StartAfter.ID) {
			out = append(out, doc)
		}
	}
	return out
}

// Diff computes the change batch that transforms prev into curr.
// Used by poll-based subscriptions to synthesize events.
func Diff(prev, curr map[string]Document) []Change {
	changes := make([]Change, 0)
	for id, doc := range curr {
		old, ok := prev[id]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: ChangeAdded, Doc: doc})
		case !fieldsEqual(old.Fields, doc.Fields):
			changes = append(changes, Change{Kind: ChangeModified, Doc: doc})
		}
	}
	for id := range prev {
		if _, ok := curr[id]; !ok {
			changes = append(changes, Change{Kind: ChangeRemoved, Doc: Document{ID: id}})
		}
	}
	return changes
}

func fieldsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !valueEqual(av, bv) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok {
			return false
		}
		return fieldsEqual(av, bv)
	default:
		return a == b
	}
}
