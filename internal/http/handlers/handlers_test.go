package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appchat "agency-data-service/internal/app/chat"
	appclients "agency-data-service/internal/app/clients"
	appclubs "agency-data-service/internal/app/clubs"
	"agency-data-service/internal/app/records"
	"agency-data-service/internal/docstore"
	"agency-data-service/internal/domain/activities"
	"agency-data-service/internal/domain/chat"
	"agency-data-service/internal/domain/clients"
	"agency-data-service/internal/domain/clubs"
	"agency-data-service/internal/domain/contracts"
	"agency-data-service/internal/domain/sponsors"
	"agency-data-service/internal/domain/transfers"
	"agency-data-service/internal/enrich"
	"agency-data-service/internal/enrich/fixture"
	"agency-data-service/internal/errqueue"
	internalhttp "agency-data-service/internal/http"
	"agency-data-service/internal/http/handlers"
	"agency-data-service/internal/registry"
)

type env struct {
	store    *docstore.MemoryStore
	provider *fixture.Provider
	errs     *errqueue.Queue
	router   http.Handler

	clientsReg *registry.Registry[clients.Client]
}

func openRegistry[T registry.Entity](t *testing.T, store docstore.Store, collection, orderBy string, dec func(docstore.Document) (T, error), errs *errqueue.Queue) *registry.Registry[T] {
	t.Helper()
	reg, err := registry.Open(context.Background(), registry.Options[T]{
		Store:  store,
		Spec:   docstore.QuerySpec{Collection: collection, OrderBy: orderBy},
		Decode: dec,
		Errors: errs,
	})
	if err != nil {
		t.Fatalf("open %s registry: %v", collection, err)
	}
	t.Cleanup(reg.Close)
	return reg
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := docstore.NewMemoryStore()
	blobs := docstore.NewMemoryBlobStore()
	errs := errqueue.New()
	provider := fixture.New()

	clientsReg := openRegistry(t, store, clients.Collection, "givenName", clients.Decode, errs)
	clubsReg := openRegistry(t, store, clubs.Collection, "name", clubs.Decode, errs)
	contractsReg := openRegistry(t, store, contracts.Collection, "start", contracts.Decode, errs)
	transfersReg := openRegistry(t, store, transfers.Collection, "date", transfers.Decode, errs)
	processesReg := openRegistry(t, store, transfers.ProcessCollection, "updatedAt", transfers.DecodeProcess, errs)
	sponsorsReg := openRegistry(t, store, sponsors.Collection, "name", sponsors.Decode, errs)
	activitiesReg := openRegistry(t, store, activities.Collection, "date", activities.Decode, errs)
	chatsReg := openRegistry(t, store, chat.Collection, "updatedAt", chat.Decode, errs)

	clientSvc := appclients.NewService(appclients.Config{
		Store:        store,
		Blobs:        blobs,
		Registry:     clientsReg,
		Provider:     provider,
		ProviderName: "fixture",
		Errors:       errs,
	})
	clubSvc := appclubs.NewService(appclubs.Config{
		Store:    store,
		Blobs:    blobs,
		Registry: clubsReg,
		Errors:   errs,
	})
	chatSvc := appchat.NewService(appchat.Config{Store: store, Registry: chatsReg, Errors: errs})

	handler := handlers.NewHandler(handlers.Config{
		Clients: clientSvc,
		Clubs:   clubSvc,
		Contracts: records.NewService(records.Config[contracts.Contract]{
			Store:    store,
			Codec:    records.Codec[contracts.Contract]{Collection: contracts.Collection, Decode: contracts.Decode, Encode: contracts.Encode},
			Registry: contractsReg,
			Errors:   errs,
		}),
		Transfers: records.NewService(records.Config[transfers.Transfer]{
			Store:    store,
			Codec:    records.Codec[transfers.Transfer]{Collection: transfers.Collection, Decode: transfers.Decode, Encode: transfers.Encode},
			Registry: transfersReg,
			Errors:   errs,
		}),
		Processes: records.NewService(records.Config[transfers.Process]{
			Store:    store,
			Codec:    records.Codec[transfers.Process]{Collection: transfers.ProcessCollection, Decode: transfers.DecodeProcess, Encode: transfers.EncodeProcess},
			Registry: processesReg,
			Errors:   errs,
		}),
		Sponsors: records.NewService(records.Config[sponsors.Sponsor]{
			Store:    store,
			Codec:    records.Codec[sponsors.Sponsor]{Collection: sponsors.Collection, Decode: sponsors.Decode, Encode: sponsors.Encode},
			Registry: sponsorsReg,
			Errors:   errs,
		}),
		Activities: records.NewService(records.Config[activities.Activity]{
			Store:    store,
			Codec:    records.Codec[activities.Activity]{Collection: activities.Collection, Decode: activities.Decode, Encode: activities.Encode},
			Registry: activitiesReg,
			Errors:   errs,
		}),
		Chats:  chatSvc,
		Blobs:  blobs,
		Errors: errs,
		Statuses: func() []registry.Status {
			return []registry.Status{clientsReg.Status(), clubsReg.Status()}
		},
	})

	return &env{
		store:      store,
		provider:   provider,
		errs:       errs,
		router:     internalhttp.NewRouter(handler),
		clientsReg: clientsReg,
	}
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (e *env) waitForClients(t *testing.T, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if e.clientsReg.Len() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d clients, have %d", want, e.clientsReg.Len())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyAfterInitialSnapshots(t *testing.T) {
	e := newEnv(t)
	deadline := time.After(2 * time.Second)
	for {
		rec := e.do(t, http.MethodGet, "/ready", "")
		if rec.Code == http.StatusOK {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("readiness never reached, last status %d", rec.Code)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestClientLifecycle(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/clients", `{"role":"player","givenName":"Anna","familyName":"Zimmer","gender":"f","clubId":"fcx"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	e.decode(t, rec, &created)
	if created.ID == "" {
		t.Fatal("expected assigned ID")
	}
	e.waitForClients(t, 1)

	rec = e.do(t, http.MethodGet, "/clients/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/clients?clubId=fcx&sort=name_asc", "")
	var list struct {
		Count int `json:"count"`
	}
	e.decode(t, rec, &list)
	if list.Count != 1 {
		t.Fatalf("expected 1 filtered client, got %d", list.Count)
	}

	rec = e.do(t, http.MethodPut, "/clients/"+created.ID, `{"role":"player","givenName":"Anna","familyName":"Zimmer-Adler","gender":"f"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodDelete, "/clients/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	// Idempotent: deleting again still succeeds.
	rec = e.do(t, http.MethodDelete, "/clients/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat delete: expected 200, got %d", rec.Code)
	}
}

func TestGetAbsentClientIs404(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/clients/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUploadPhotoAndEnrich(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/clients", `{"role":"player","givenName":"Ben","familyName":"Adler","gender":"m"}`)
	var created struct {
		ID string `json:"id"`
	}
	e.decode(t, rec, &created)

	req := httptest.NewRequest(http.MethodPost, "/clients/"+created.ID+"/photo", strings.NewReader("img-bytes"))
	req.Header.Set("Content-Type", "image/png")
	photoRec := httptest.NewRecorder()
	e.router.ServeHTTP(photoRec, req)
	if photoRec.Code != http.StatusOK {
		t.Fatalf("photo: expected 200, got %d (%s)", photoRec.Code, photoRec.Body.String())
	}

	h := 184
	e.provider.Set(created.ID, enrich.Profile{HeightCM: &h})
	rec = e.do(t, http.MethodPost, "/clients/"+created.ID+"/enrich", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("enrich: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/clients/unknown/enrich", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("enrich unknown: expected 404, got %d", rec.Code)
	}
}

func TestClubDeleteDetachesMembers(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/clubs", `{"name":"FC Example"}`)
	var club struct {
		ID string `json:"id"`
	}
	e.decode(t, rec, &club)

	rec = e.do(t, http.MethodPost, "/clients", `{"role":"player","givenName":"Anna","familyName":"Zimmer","gender":"f","clubId":"`+club.ID+`"}`)
	var member struct {
		ID string `json:"id"`
	}
	e.decode(t, rec, &member)
	e.waitForClients(t, 1)

	// List responses resolve the club reference to a name once both
	// registries have seen their documents.
	deadline := time.After(2 * time.Second)
	for {
		rec = e.do(t, http.MethodGet, "/clients", "")
		var list struct {
			Clients []struct {
				ClubName string `json:"clubName"`
			} `json:"clients"`
		}
		e.decode(t, rec, &list)
		if len(list.Clients) == 1 && list.Clients[0].ClubName == "FC Example" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("club name never resolved, last response %s", rec.Body.String())
		case <-time.After(5 * time.Millisecond):
		}
	}

	rec = e.do(t, http.MethodDelete, "/clubs/"+club.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete club: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	page, err := e.store.Query(context.Background(), docstore.QuerySpec{Collection: clients.Collection})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got := page.Documents[0].Fields["clubId"]; got != "" {
		t.Fatalf("expected member detached, clubId=%v", got)
	}
}

func TestContractCRUDAndDocumentUpload(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/contracts", `{"clientId":"c1","notes":"first deal"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	e.decode(t, rec, &created)

	req := httptest.NewRequest(http.MethodPost, "/contracts/"+created.ID+"/document", strings.NewReader("pdf-bytes"))
	req.Header.Set("Content-Type", "application/pdf")
	docRec := httptest.NewRecorder()
	e.router.ServeHTTP(docRec, req)
	if docRec.Code != http.StatusOK {
		t.Fatalf("document: expected 200, got %d (%s)", docRec.Code, docRec.Body.String())
	}

	page, err := e.store.Query(context.Background(), docstore.QuerySpec{Collection: contracts.Collection})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Documents[0].Fields["documentUrl"] == nil {
		t.Fatalf("expected document URL merged, got %v", page.Documents[0].Fields)
	}

	rec = e.do(t, http.MethodDelete, "/contracts/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
}

func TestChatSendAndList(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/chats", `{"participantIds":["u1","u2"]}`)
	var created struct {
		ID string `json:"id"`
	}
	e.decode(t, rec, &created)

	rec = e.do(t, http.MethodPost, "/chats/"+created.ID+"/messages", `{"senderId":"u1","text":"training at 9"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/chats/"+created.ID+"/messages", `{"senderId":"u1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing text, got %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/chats/"+created.ID+"/messages", "")
	var msgs struct {
		Count int `json:"count"`
	}
	e.decode(t, rec, &msgs)
	if msgs.Count != 1 {
		t.Fatalf("expected 1 message, got %d", msgs.Count)
	}
}

func TestErrorQueueEndpoints(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/errors/current", "")
	var empty struct {
		Queued int `json:"queued"`
	}
	e.decode(t, rec, &empty)
	if empty.Queued != 0 {
		t.Fatalf("expected empty queue, got %d", empty.Queued)
	}

	e.errs.Push(errTest("listener down"))
	e.errs.Push(errTest("upload failed"))

	rec = e.do(t, http.MethodGet, "/errors/current", "")
	var current struct {
		Error  string `json:"error"`
		Queued int    `json:"queued"`
	}
	e.decode(t, rec, &current)
	if current.Error != "listener down" || current.Queued != 2 {
		t.Fatalf("unexpected current error %+v", current)
	}

	rec = e.do(t, http.MethodPost, "/errors/ack", "")
	e.decode(t, rec, &current)
	if current.Error != "upload failed" || current.Queued != 1 {
		t.Fatalf("expected next error after ack, got %+v", current)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
