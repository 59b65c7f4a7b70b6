package docstore

import "testing"

func TestDiffAddModifyRemove(t *testing.T) {
	prev := map[string]Document{
		"a": {ID: "a", Fields: map[string]any{"name": "Adler"}},
		"b": {ID: "b", Fields: map[string]any{"name": "Meier"}},
	}
	curr := map[string]Document{
		"a": {ID: "a", Fields: map[string]any{"name": "Adler"}},
		"b": {ID: "b", Fields: map[string]any{"name": "Zimmer"}},
		"c": {ID: "c", Fields: map[string]any{"name": "Vogel"}},
	}

	changes := Diff(prev, curr)
	kinds := map[string]ChangeKind{}
	for _, ch := range changes {
		kinds[ch.Doc.ID] = ch.Kind
	}

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d: %+v", len(changes), changes)
	}
	if kinds["b"] != ChangeModified {
		t.Fatalf("expected b modified, got %s", kinds["b"])
	}
	if kinds["c"] != ChangeAdded {
		t.Fatalf("expected c added, got %s", kinds["c"])
	}

	changes = Diff(curr, prev)
	found := false
	for _, ch := range changes {
		if ch.Doc.ID == "c" && ch.Kind == ChangeRemoved {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected c removed, got %+v", changes)
	}
}

func TestDiffListFieldComparison(t *testing.T) {
	prev := map[string]Document{
		"a": {ID: "a", Fields: map[string]any{"nationalities": []any{"DE"}}},
	}
	same := map[string]Document{
		"a": {ID: "a", Fields: map[string]any{"nationalities": []any{"DE"}}},
	}
	if got := Diff(prev, same); len(got) != 0 {
		t.Fatalf("expected no changes for equal list fields, got %+v", got)
	}

	changed := map[string]Document{
		"a": {ID: "a", Fields: map[string]any{"nationalities": []any{"DE", "FR"}}},
	}
	got := Diff(prev, changed)
	if len(got) != 1 || got[0].Kind != ChangeModified {
		t.Fatalf("expected modified change for list growth, got %+v", got)
	}
}

func TestPageOfDescending(t *testing.T) {
	docs := []Document{
		{ID: "1", Fields: map[string]any{"name": "Adler"}},
		{ID: "2", Fields: map[string]any{"name": "Zimmer"}},
		{ID: "3", Fields: map[string]any{"name": "Meier"}},
	}

	page := PageOf(docs, QuerySpec{OrderBy: "name", Descending: true})
	if page.Documents[0].Fields["name"] != "Zimmer" || page.Documents[2].Fields["name"] != "Adler" {
		t.Fatalf("expected descending order, got %+v", page.Documents)
	}
}

func TestCompareValuesNilSortsLast(t *testing.T) {
	if got := CompareValues(nil, "a"); got != 1 {
		t.Fatalf("expected nil after present, got %d", got)
	}
	if got := CompareValues("a", nil); got != -1 {
		t.Fatalf("expected present before nil, got %d", got)
	}
	if got := CompareValues(nil, nil); got != 0 {
		t.Fatalf("expected nils equal, got %d", got)
	}
}

func TestCompareValuesNumericMix(t *testing.T) {
	if got := CompareValues(1, 2.5); got != -1 {
		t.Fatalf("expected int/float comparable, got %d", got)
	}
	if got := CompareValues(int64(7), 7); got != 0 {
		t.Fatalf("expected equal across int widths, got %d", got)
	}
}
