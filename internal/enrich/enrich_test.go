package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchProfileMapsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profiles/c1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"height":184,"weight":78,"positions":["ST"],"nationalities":["de","pl"]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	profile, err := c.FetchProfile(context.Background(), "c1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if profile.HeightCM == nil || *profile.HeightCM != 184 {
		t.Fatalf("unexpected height %v", profile.HeightCM)
	}
	if len(profile.Nationalities) != 2 || profile.Nationalities[1] != "pl" {
		t.Fatalf("unexpected nationalities %v", profile.Nationalities)
	}
}

func TestFetchProfileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL})
	_, err := c.FetchProfile(context.Background(), "missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ClientID != "missing" {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestFetchProfileUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL})
	if _, err := c.FetchProfile(context.Background(), "c1"); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestFetchProfileClassifiesDeadlineAsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL, Name: "upstream"})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.FetchProfile(ctx, "c1")
	tErr, ok := AsTimeoutError(err)
	if !ok {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if tErr.Provider != "upstream" {
		t.Fatalf("unexpected provider %q", tErr.Provider)
	}
}

type flakyProvider struct {
	failures int
	calls    int
}

func (p *flakyProvider) FetchProfile(ctx context.Context, clientID string) (Profile, error) {
	p.calls++
	if p.calls <= p.failures {
		return Profile{}, errors.New("transient")
	}
	h := 180
	return Profile{HeightCM: &h}, nil
}

func TestRetryingProviderEventuallySucceeds(t *testing.T) {
	inner := &flakyProvider{failures: 2}
	p := NewRetryingProvider(inner, nil, 3, time.Millisecond)

	profile, err := p.FetchProfile(context.Background(), "c1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if profile.HeightCM == nil || *profile.HeightCM != 180 {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryingProviderGivesUp(t *testing.T) {
	inner := &flakyProvider{failures: 10}
	p := NewRetryingProvider(inner, nil, 2, time.Millisecond)

	if _, err := p.FetchProfile(context.Background(), "c1"); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", inner.calls)
	}
}

type notFoundProvider struct{ calls int }

func (p *notFoundProvider) FetchProfile(ctx context.Context, clientID string) (Profile, error) {
	p.calls++
	return Profile{}, &NotFoundError{ClientID: clientID}
}

func TestRetryingProviderDoesNotRetryNotFound(t *testing.T) {
	inner := &notFoundProvider{}
	p := NewRetryingProvider(inner, nil, 3, time.Millisecond)

	_, err := p.FetchProfile(context.Background(), "c1")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected single attempt, got %d", inner.calls)
	}
}
