package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"agency-data-service/internal/decode"
	"agency-data-service/internal/docstore"
	"agency-data-service/internal/errqueue"
)

type person struct {
	ID   string
	Name string
}

func (p person) Key() string { return p.ID }

func decodePerson(doc docstore.Document) (person, error) {
	name, err := decode.String(doc.Fields, "name")
	if err != nil {
		return person{}, err
	}
	return person{ID: doc.ID, Name: name}, nil
}

func openTestRegistry(t *testing.T, store docstore.Store, errs *errqueue.Queue) *Registry[person] {
	t.Helper()
	r, err := Open(context.Background(), Options[person]{
		Store:  store,
		Spec:   docstore.QuerySpec{Collection: "people", OrderBy: "name"},
		Decode: decodePerson,
		Errors: errs,
	})
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func waitForLen(t *testing.T, r *Registry[person], want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if r.Len() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d entities, have %d", want, r.Len())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func waitForReady(t *testing.T, r *Registry[person]) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if r.Status().IsReady() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for registry to become ready")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestInitialSnapshotAndOrdering(t *testing.T) {
	store := docstore.NewMemoryStore()
	mustCreate(t, store, "people", map[string]any{"name": "Nora"})
	mustCreate(t, store, "people", map[string]any{"name": "Ada"})

	r := openTestRegistry(t, store, nil)
	waitForLen(t, r, 2)

	got := r.List()
	if got[0].Name != "Ada" || got[1].Name != "Nora" {
		t.Fatalf("expected snapshot ordered by name, got %+v", got)
	}
}

func TestEmptyCollectionStillBecomesReady(t *testing.T) {
	store := docstore.NewMemoryStore()
	r := openTestRegistry(t, store, nil)

	waitForReady(t, r)
	if got := r.List(); len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", got)
	}
}

func TestLiveChangesMergeIntoSnapshot(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	r := openTestRegistry(t, store, nil)
	waitForReady(t, r)

	id := mustCreate(t, store, "people", map[string]any{"name": "Mara"})
	waitForLen(t, r, 1)

	if err := store.Update(ctx, "people", id, map[string]any{"name": "Mara Keller"}, true); err != nil {
		t.Fatalf("update: %v", err)
	}
	waitFor(t, func() bool {
		p, ok := r.Get(id)
		return ok && p.Name == "Mara Keller"
	})

	if err := store.Delete(ctx, "people", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	waitForLen(t, r, 0)
}

func TestDuplicateIDsStayDeduplicated(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	id := mustCreate(t, store, "people", map[string]any{"name": "Iris"})

	r := openTestRegistry(t, store, nil)
	waitForLen(t, r, 1)

	// Repeated modifications of the same document must never grow the set.
	for i := 0; i < 5; i++ {
		if err := store.Update(ctx, "people", id, map[string]any{"name": "Iris"}, false); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	waitFor(t, func() bool { return r.Status().Events >= 6 })

	if r.Len() != 1 {
		t.Fatalf("expected 1 entity after repeated updates, got %d", r.Len())
	}
}

func TestUndecodableDocumentIsSkipped(t *testing.T) {
	store := docstore.NewMemoryStore()
	mustCreate(t, store, "people", map[string]any{"name": "Ok"})
	mustCreate(t, store, "people", map[string]any{"nickname": "broken"})

	r := openTestRegistry(t, store, nil)
	waitForLen(t, r, 1)

	waitFor(t, func() bool { return r.Status().DecodeFailures == 1 })
	if got := r.List(); len(got) != 1 || got[0].Name != "Ok" {
		t.Fatalf("expected the decodable entity to survive, got %+v", got)
	}
}

func TestModifiedIntoUndecodableKeepsLastGoodVersion(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	id := mustCreate(t, store, "people", map[string]any{"name": "Lena"})

	r := openTestRegistry(t, store, nil)
	waitForLen(t, r, 1)

	if err := store.Update(ctx, "people", id, map[string]any{"nickname": "gone"}, false); err != nil {
		t.Fatalf("update: %v", err)
	}
	waitFor(t, func() bool { return r.Status().DecodeFailures == 1 })

	p, ok := r.Get(id)
	if !ok || p.Name != "Lena" {
		t.Fatalf("expected last good version retained, got %+v ok=%v", p, ok)
	}
}

func TestSubscriptionErrorsLandInQueue(t *testing.T) {
	errs := errqueue.New()
	sub := &fakeSub{
		changes: make(chan []docstore.Change, 1),
		errsCh:  make(chan error, 1),
	}
	store := &fakeStore{sub: sub}

	r, err := Open(context.Background(), Options[person]{
		Store:  store,
		Spec:   docstore.QuerySpec{Collection: "people", OrderBy: "name"},
		Decode: decodePerson,
		Errors: errs,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	listenFailed := errors.New("listen failed")
	sub.errsCh <- listenFailed

	waitFor(t, func() bool {
		current, ok := errs.Current()
		return ok && current == listenFailed
	})
	if got := r.Status().LastError; got != "listen failed" {
		t.Fatalf("expected status to carry last error, got %q", got)
	}
}

func TestLoadMorePastLastEntityReturnsNothing(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	for _, name := range []string{"Ada", "Ben", "Cleo", "Dana"} {
		mustCreate(t, store, "people", map[string]any{"name": name})
	}

	r := openTestRegistry(t, store, nil)
	waitForLen(t, r, 4)

	n, err := r.LoadMore(ctx, 2)
	if err != nil {
		t.Fatalf("load more: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no rows past the last entity, got %d", n)
	}
	if r.Len() != 4 {
		t.Fatalf("expected snapshot unchanged, got %d", r.Len())
	}
}

func TestLoadMorePagesFromEmptyRegistry(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	for _, name := range []string{"Ada", "Ben", "Cleo"} {
		mustCreate(t, store, "people", map[string]any{"name": name})
	}

	sub := &fakeSub{
		changes: make(chan []docstore.Change, 1),
		errsCh:  make(chan error, 1),
	}
	sub.changes <- nil // empty initial snapshot
	wrapped := &fakeStore{sub: sub, query: store}

	r, err := Open(ctx, Options[person]{
		Store:  wrapped,
		Spec:   docstore.QuerySpec{Collection: "people", OrderBy: "name"},
		Decode: decodePerson,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	waitForReady(t, r)

	if n, err := r.LoadMore(ctx, 2); err != nil || n != 2 {
		t.Fatalf("expected first page of 2, got n=%d err=%v", n, err)
	}
	if got := r.List(); len(got) != 2 || got[0].Name != "Ada" || got[1].Name != "Ben" {
		t.Fatalf("unexpected first page %+v", got)
	}

	if n, err := r.LoadMore(ctx, 2); err != nil || n != 1 {
		t.Fatalf("expected final page of 1, got n=%d err=%v", n, err)
	}
	if got := r.List(); len(got) != 3 || got[2].Name != "Cleo" {
		t.Fatalf("unexpected merged snapshot %+v", got)
	}
}

func TestLoadMoreKeepsDuplicateOrderValues(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	// Two people share the sort name; page boundaries between them must
	// not lose the second one.
	for _, name := range []string{"Ann", "Ann", "Ben"} {
		mustCreate(t, store, "people", map[string]any{"name": name})
	}

	sub := &fakeSub{
		changes: make(chan []docstore.Change, 1),
		errsCh:  make(chan error, 1),
	}
	sub.changes <- nil // empty initial snapshot
	wrapped := &fakeStore{sub: sub, query: store}

	r, err := Open(ctx, Options[person]{
		Store:  wrapped,
		Spec:   docstore.QuerySpec{Collection: "people", OrderBy: "name"},
		Decode: decodePerson,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	waitForReady(t, r)

	total := 0
	for i := 0; i < 3; i++ {
		n, err := r.LoadMore(ctx, 1)
		if err != nil {
			t.Fatalf("load more %d: %v", i, err)
		}
		total += n
	}
	if total != 3 || r.Len() != 3 {
		t.Fatalf("expected all 3 entities paged in, got total=%d len=%d", total, r.Len())
	}
	got := r.List()
	if got[0].Name != "Ann" || got[1].Name != "Ann" || got[2].Name != "Ben" {
		t.Fatalf("unexpected merged snapshot %+v", got)
	}
}

func TestVersionAdvancesAndUpdatesSignal(t *testing.T) {
	store := docstore.NewMemoryStore()
	r := openTestRegistry(t, store, nil)
	waitForReady(t, r)

	before := r.Version()
	mustCreate(t, store, "people", map[string]any{"name": "Ada"})

	select {
	case <-r.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update signal")
	}
	waitFor(t, func() bool { return r.Version() > before })
}

func TestCloseIsDeterministicAndIdempotent(t *testing.T) {
	store := docstore.NewMemoryStore()
	mustCreate(t, store, "people", map[string]any{"name": "Ada"})

	r := openTestRegistry(t, store, nil)
	waitForLen(t, r, 1)

	r.Close()
	r.Close()

	// Last snapshot stays readable after shutdown.
	if got := r.List(); len(got) != 1 {
		t.Fatalf("expected snapshot retained after close, got %+v", got)
	}
}

func mustCreate(t *testing.T, store docstore.Store, collection string, fields map[string]any) string {
	t.Helper()
	id, err := store.Create(context.Background(), collection, fields)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return id
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for condition")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

type fakeSub struct {
	changes chan []docstore.Change
	errsCh  chan error
	once    bool
}

func (s *fakeSub) Changes() <-chan []docstore.Change { return s.changes }
func (s *fakeSub) Errors() <-chan error              { return s.errsCh }
func (s *fakeSub) Cancel() {
	if !s.once {
		s.once = true
		close(s.changes)
		close(s.errsCh)
	}
}

type fakeStore struct {
	sub   *fakeSub
	query docstore.Store
}

func (s *fakeStore) Query(ctx context.Context, spec docstore.QuerySpec) (docstore.Page, error) {
	if s.query == nil {
		return docstore.Page{}, nil
	}
	return s.query.Query(ctx, spec)
}

func (s *fakeStore) Subscribe(ctx context.Context, spec docstore.QuerySpec) (docstore.Subscription, error) {
	return s.sub, nil
}

func (s *fakeStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	return "", errors.New("not supported")
}

func (s *fakeStore) Update(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	return errors.New("not supported")
}

func (s *fakeStore) Delete(ctx context.Context, collection, id string) error {
	return errors.New("not supported")
}

func (s *fakeStore) BatchUpdate(ctx context.Context, collection string, updates []docstore.Update) error {
	return errors.New("not supported")
}
