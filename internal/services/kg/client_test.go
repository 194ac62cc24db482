package kg

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wildlens/internal/services"
)

func TestLookupResolvesEntity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entities:search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("query") != "monarch butterfly" {
			t.Errorf("query = %q", query.Get("query"))
		}
		if query.Get("key") != "kg-key" {
			t.Errorf("missing api key")
		}
		w.Write([]byte(`{
			"itemListElement": [
				{"result": {"@id": "kg:/m/0dd4x", "name": "Monarch butterfly",
				 "description": "Insect",
				 "detailedDescription": {"url": "https://en.wikipedia.org/wiki/Monarch_butterfly"}},
				 "resultScore": 812.5}
			]
		}`))
	}))
	defer server.Close()

	client, err := New("kg-key", server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	canonical, err := client.Lookup(context.Background(), "monarch butterfly")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if canonical.CommonName != "Monarch butterfly" {
		t.Fatalf("unexpected name %q", canonical.CommonName)
	}
	if canonical.KGID != "kg:/m/0dd4x" {
		t.Fatalf("unexpected kg id %q", canonical.KGID)
	}
	if canonical.WikipediaTitle != "Monarch butterfly" {
		t.Fatalf("unexpected wikipedia title %q", canonical.WikipediaTitle)
	}
}

func TestLookupNoEntity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"itemListElement": []}`))
	}))
	defer server.Close()

	client, err := New("kg-key", server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Lookup(context.Background(), "zzzz"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
}

func TestLookupServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New("kg-key", server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Lookup(context.Background(), "fox"); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable marker, got %v", err)
	}
}

func TestWikipediaTitle(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://en.wikipedia.org/wiki/Monarch_butterfly", "Monarch butterfly"},
		{"https://en.wikipedia.org/wiki/Acer_(plant)", "Acer (plant)"},
		{"https://example.com/article/123", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := wikipediaTitle(tc.url); got != tc.want {
			t.Errorf("wikipediaTitle(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
