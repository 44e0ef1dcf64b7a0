package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/abelbrown/pokedex/internal/model"
)

const pageBody = `{
  "count": 1302,
  "next": "https://pokeapi.co/api/v2/pokemon?offset=2&limit=2",
  "previous": null,
  "results": [
    {"name": "bulbasaur", "url": "https://pokeapi.co/api/v2/pokemon/1/"},
    {"name": "ivysaur", "url": "https://pokeapi.co/api/v2/pokemon/2/"}
  ]
}`

const charizardBody = `{
  "id": 6,
  "name": "charizard",
  "height": 17,
  "weight": 905,
  "types": [
    {"slot": 2, "type": {"name": "flying", "url": ""}},
    {"slot": 1, "type": {"name": "fire", "url": ""}}
  ],
  "stats": [
    {"base_stat": 78, "effort": 0, "stat": {"name": "hp"}},
    {"base_stat": 84, "effort": 0, "stat": {"name": "attack"}},
    {"base_stat": 78, "effort": 0, "stat": {"name": "defense"}},
    {"base_stat": 109, "effort": 3, "stat": {"name": "special-attack"}},
    {"base_stat": 85, "effort": 0, "stat": {"name": "special-defense"}},
    {"base_stat": 100, "effort": 0, "stat": {"name": "speed"}},
    {"base_stat": 1, "effort": 0, "stat": {"name": "accuracy"}}
  ],
  "sprites": {"front_default": "https://img/6.png", "front_shiny": null}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}), srv
}

func TestFetchPage(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(pageBody))
	})

	page, err := c.FetchPage(context.Background(), 0, 2)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	if gotPath != "/pokemon" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "limit=2&offset=0" {
		t.Errorf("query = %q", gotQuery)
	}
	if !strings.HasPrefix(gotUA, "pokedex/") {
		t.Errorf("user agent = %q", gotUA)
	}
	want := Page{
		Total:    1302,
		Returned: 2,
		Items: []model.Summary{
			{Name: "bulbasaur", Locator: "https://pokeapi.co/api/v2/pokemon/1/"},
			{Name: "ivysaur", Locator: "https://pokeapi.co/api/v2/pokemon/2/"},
		},
	}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Errorf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchPageWithoutNextField(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 1, "results": [{"name": "mew", "url": "u"}]}`))
	})

	page, err := c.FetchPage(context.Background(), 150, 25)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "mew" {
		t.Errorf("items = %+v", page.Items)
	}
}

func TestFetchPageCountsSkippedResults(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 9, "results": [
			{"name": "abra", "url": "u1"},
			{"name": "", "url": "u2"},
			{"name": "kadabra", "url": "u3"}
		]}`))
	})

	page, err := c.FetchPage(context.Background(), 0, 3)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %+v, want the two named results", page.Items)
	}
	if page.Returned != 3 || page.Consumed() != 3 {
		t.Errorf("Returned = %d, Consumed = %d, want 3", page.Returned, page.Consumed())
	}

	// A full upstream page keeps pagination going even with a skipped entry.
	l := model.NewList(3)
	l.MergeCounted(page.Items, page.Consumed(), 3, page.Total)
	if cur := l.Cursor(); cur.Offset != 3 || !cur.HasMore {
		t.Errorf("cursor = %+v, want offset 3 with more pages", cur)
	}
}

func TestPageConsumedFallsBackToItems(t *testing.T) {
	p := Page{Items: []model.Summary{{Name: "a"}, {Name: "b"}}}
	if p.Consumed() != 2 {
		t.Errorf("Consumed = %d, want 2", p.Consumed())
	}
}

func TestFetchRecordDecodesStats(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pokemon/charizard" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(charizardBody))
	})

	rec, err := c.FetchRecord(context.Background(), srv.URL+"/pokemon/charizard")
	if err != nil {
		t.Fatalf("FetchRecord: %v", err)
	}

	want := model.Record{
		ID:     6,
		Name:   "charizard",
		Height: 17,
		Weight: 905,
		Types:  []string{"fire", "flying"},
		Stats: map[model.StatID]int{
			model.StatHP:             78,
			model.StatAttack:         84,
			model.StatDefense:        78,
			model.StatSpecialAttack:  109,
			model.StatSpecialDefense: 85,
			model.StatSpeed:          100,
		},
		Sprite: "https://img/6.png",
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchRecordByName(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pokemon/charizard" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(charizardBody))
	})

	rec, err := c.FetchRecord(context.Background(), " Charizard ")
	if err != nil {
		t.Fatalf("FetchRecord: %v", err)
	}
	if rec.Name != "charizard" {
		t.Errorf("name = %q", rec.Name)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind Kind
		wantCode int
	}{
		{
			name: "server status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream exploded", http.StatusServiceUnavailable)
			},
			wantKind: KindServerStatus,
			wantCode: 503,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantKind: KindServerStatus,
			wantCode: 404,
		},
		{
			name: "server status with truncated body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", "100")
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("bad gat"))
			},
			wantKind: KindServerStatus,
			wantCode: 502,
		},
		{
			name: "decode",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"results": [`))
			},
			wantKind: KindDecode,
		},
		{
			name: "wrong shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"results": "nope"}`))
			},
			wantKind: KindDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)
			_, err := c.FetchPage(context.Background(), 0, 10)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf = %v, want %v (%v)", got, tt.wantKind, err)
			}
			if got := StatusCode(err); got != tt.wantCode {
				t.Errorf("StatusCode = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestConnectivityFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: base, Timeout: time.Second})
	_, err := c.FetchPage(context.Background(), 0, 10)
	if KindOf(err) != KindConnectivity {
		t.Fatalf("KindOf = %v, want connectivity (%v)", KindOf(err), err)
	}
}

func TestDeadlineIsConnectivity(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.FetchRecord(ctx, "slowpoke")
	if KindOf(err) != KindConnectivity {
		t.Fatalf("KindOf = %v, want connectivity (%v)", KindOf(err), err)
	}
}

func TestCancelIsDistinguishable(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pageBody))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchPage(ctx, 0, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
	if KindOf(err) != KindUnknown {
		t.Errorf("KindOf = %v, want unknown", KindOf(err))
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindServerStatus, Code: 500, Msg: "boom"}, "fetch: server returned HTTP 500: boom"},
		{&Error{Kind: KindConnectivity, Err: errors.New("dial tcp")}, "fetch: connection failed: dial tcp"},
		{&Error{Kind: KindDecode}, "fetch: malformed response"},
		{&Error{Kind: KindUnknown, Msg: "rate limiter"}, "fetch: request failed: rate limiter"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindOfForeignError(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain errors should be unknown")
	}
	if StatusCode(nil) != 0 {
		t.Error("nil error has no status")
	}
}

func TestLocator(t *testing.T) {
	c := NewClient(Config{BaseURL: "https://example.test/api/"})
	tests := map[string]string{
		"pikachu":                        "https://example.test/api/pokemon/pikachu",
		"Mr. Mime":                       "https://example.test/api/pokemon/mr.%20mime",
		"https://pokeapi.co/x/pokemon/1": "https://pokeapi.co/x/pokemon/1",
	}
	for in, want := range tests {
		if got := c.Locator(in); got != want {
			t.Errorf("Locator(%q) = %q, want %q", in, got, want)
		}
	}
	if c.BaseURL() != "https://example.test/api" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
}
