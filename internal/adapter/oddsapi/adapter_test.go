package oddsapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KuiHua-JAC/winsports-cron/internal/config"

	"github.com/sirupsen/logrus"
)

func newTestAdapter(baseURL string) *Adapter {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.OddsConfig{
		BaseURL:    baseURL,
		APIKey:     "key-1",
		Sport:      "basketball_nba",
		Regions:    []string{"us", "us2"},
		Markets:    []string{"h2h", "totals"},
		OddsFormat: "decimal",
		Timeout:    5,
	}
	return NewOddsAPIAdapter(cfg, logger).(*Adapter)
}

func TestFetchEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/sports/basketball_nba/events" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("apiKey") != "key-1" {
			t.Errorf("apiKey = %q", r.URL.Query().Get("apiKey"))
		}
		_, _ = w.Write([]byte(`[
			{"id":"e1","sport_key":"basketball_nba","home_team":"A","away_team":"B","commence_time":"2026-01-01T00:00:00Z"},
			{"id":12345,"home_team":"C","away_team":"D"},
			{"home_team":"no id"},
			"garbage"
		]`))
	}))
	defer server.Close()

	events, err := newTestAdapter(server.URL).FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("len = %d, want 4", len(events))
	}
	if events[0].ID != "e1" || events[0].HomeTeam != "A" || events[0].CommenceTime != "2026-01-01T00:00:00Z" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].ID != "12345" {
		t.Errorf("numeric id stringified = %q", events[1].ID)
	}
	if events[2].ID != "" || events[3].ID != "" {
		t.Errorf("missing ids should be empty: %+v %+v", events[2], events[3])
	}
}

func TestFetchEvents_NonArrayIsEmpty(t *testing.T) {
	for _, body := range []string{`{"message":"quota"}`, `null`, `<html>oops</html>`, `42`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		events, err := newTestAdapter(server.URL).FetchEvents(context.Background())
		server.Close()
		if err != nil {
			t.Errorf("body %q: unexpected error %v", body, err)
			continue
		}
		if len(events) != 0 {
			t.Errorf("body %q: len = %d, want 0", body, len(events))
		}
	}
}

func TestFetchEvents_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`))
	}))
	defer server.Close()

	_, err := newTestAdapter(server.URL).FetchEvents(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %v", err)
	}
}

func TestFetchEventOdds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/sports/basketball_nba/events/e1/odds" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("regions") != "us,us2" {
			t.Errorf("regions = %q", q.Get("regions"))
		}
		if q.Get("markets") != "h2h,totals" {
			t.Errorf("markets = %q", q.Get("markets"))
		}
		if q.Get("oddsFormat") != "decimal" {
			t.Errorf("oddsFormat = %q", q.Get("oddsFormat"))
		}
		_, _ = w.Write([]byte(`{"id":"e1","bookmakers":[
			{"key":"draftkings","title":"DraftKings","last_update":"t0","markets":[
				{"key":"totals","last_update":"t1","outcomes":[{"name":"Over","price":1.91,"point":220.5}]}
			]}
		]}`))
	}))
	defer server.Close()

	books, err := newTestAdapter(server.URL).FetchEventOdds(context.Background(), "e1")
	if err != nil {
		t.Fatalf("FetchEventOdds: %v", err)
	}
	if len(books) != 1 || books[0].Key != "draftkings" {
		t.Fatalf("books = %+v", books)
	}
	outcome := books[0].Markets[0].Outcomes[0]
	if outcome.Price != 1.91 || outcome.Point == nil || *outcome.Point != 220.5 {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestFetchEventOdds_MalformedBookmakers(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"missing", `{"id":"e1"}`, false},
		{"not a list", `{"bookmakers":"nope"}`, false},
		{"array body", `[]`, false},
		{"not json", `<html>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			books, err := newTestAdapter(server.URL).FetchEventOdds(context.Background(), "e1")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if books == nil || len(books) != 0 {
				t.Errorf("books = %v, want empty", books)
			}
		})
	}
}

func TestFetchEventOdds_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	if _, err := newTestAdapter(server.URL).FetchEventOdds(context.Background(), "e1"); err == nil {
		t.Fatal("expected error on 429")
	}
}
