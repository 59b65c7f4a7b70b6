package view

import (
	"testing"
	"time"

	"agency-data-service/internal/domain/clients"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func sample() []clients.Client {
	return []clients.Client{
		{ID: "1", GivenName: "Ben", FamilyName: "Adler", Role: clients.RolePlayer, Gender: clients.GenderMale, ClubID: "fcx", BirthDate: date("1999-03-12")},
		{ID: "2", GivenName: "Anna", FamilyName: "Zimmer", Role: clients.RolePlayer, Gender: clients.GenderFemale, ClubID: "fcx", BirthDate: date("2001-07-04")},
		{ID: "3", GivenName: "Carla", FamilyName: "Brandt", Role: clients.RoleCoach, Gender: clients.GenderFemale, ClubID: "scy"},
	}
}

func names(cs []clients.Client) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.GivenName
	}
	return out
}

func TestNameSortUsesConcatenatedKey(t *testing.T) {
	// "AnnaZimmer" < "BenAdler": the key is given name then family name,
	// so Anna Zimmer sorts before Ben Adler despite Adler < Zimmer.
	got := FilteredSorted(sample(), Filters{}, SortNameAsc)
	want := []string{"Anna", "Ben", "Carla"}
	for i, name := range names(got) {
		if name != want[i] {
			t.Fatalf("expected %v, got %v", want, names(got))
		}
	}
}

func TestNameSortDescending(t *testing.T) {
	got := FilteredSorted(sample(), Filters{}, SortNameDesc)
	if names(got)[0] != "Carla" || names(got)[2] != "Anna" {
		t.Fatalf("unexpected descending order %v", names(got))
	}
}

func TestMissingBirthDateSortsLast(t *testing.T) {
	asc := FilteredSorted(sample(), Filters{}, SortBirthDateAsc)
	if asc[len(asc)-1].ID != "3" {
		t.Fatalf("expected dateless client last ascending, got %v", names(asc))
	}
	desc := FilteredSorted(sample(), Filters{}, SortBirthDateDesc)
	if desc[len(desc)-1].ID != "3" {
		t.Fatalf("expected dateless client last descending, got %v", names(desc))
	}
	if desc[0].ID != "2" {
		t.Fatalf("expected youngest first descending, got %v", names(desc))
	}
}

func TestFiltersCombineConjunctively(t *testing.T) {
	got := FilteredSorted(sample(), Filters{ClubID: "fcx", Gender: clients.GenderFemale}, SortNameAsc)
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected only Anna, got %v", names(got))
	}
}

func TestZeroFiltersPassEverything(t *testing.T) {
	if got := FilteredSorted(sample(), Filters{}, SortNameAsc); len(got) != 3 {
		t.Fatalf("expected all clients, got %v", names(got))
	}
}

func TestPipelineDoesNotMutateInput(t *testing.T) {
	in := sample()
	FilteredSorted(in, Filters{}, SortNameDesc)
	if in[0].ID != "1" || in[1].ID != "2" || in[2].ID != "3" {
		t.Fatalf("input order mutated: %v", names(in))
	}
}

func TestParseSortKeyDefaults(t *testing.T) {
	if got := ParseSortKey("bogus"); got != SortNameAsc {
		t.Fatalf("expected default sort, got %q", got)
	}
	if got := ParseSortKey("BIRTHDATE_DESC"); got != SortBirthDateDesc {
		t.Fatalf("expected case-insensitive parse, got %q", got)
	}
}

func TestMemoReusesDerivedList(t *testing.T) {
	m := NewMemo()
	snapshot := sample()

	first := m.Get(snapshot, 1, Filters{ClubID: "fcx"}, SortNameAsc)
	second := m.Get(snapshot, 1, Filters{ClubID: "fcx"}, SortNameAsc)
	if len(first) != 2 || &first[0] != &second[0] {
		t.Fatal("expected cached slice reused for same version and params")
	}

	third := m.Get(snapshot, 2, Filters{ClubID: "fcx"}, SortNameAsc)
	if &first[0] == &third[0] {
		t.Fatal("expected recompute after version change")
	}
}
