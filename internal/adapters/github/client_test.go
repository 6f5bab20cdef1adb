package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/config"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		RepoOwner:      "daytonaio",
		RepoName:       "docs",
		APIBaseURL:     baseURL,
		GithubToken:    "test-token",
		HTTPTimeout:    5 * time.Second,
		PerPage:        100,
		RateLimitFloor: 10,
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	return c, srv
}

// quotaOK answers the guard's lookup with plenty of remaining quota.
func quotaOK(w http.ResponseWriter) {
	fmt.Fprintf(w, `{"resources":{"core":{"remaining":5000,"reset":%d}}}`, time.Now().Add(time.Hour).Unix())
}

func TestIssuesPaginatesAndFiltersPullRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) { quotaOK(w) })
	mux.HandleFunc("/repos/daytonaio/docs/issues", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("state"); got != "all" {
			t.Errorf("state = %q, want all", got)
		}
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", `<`+r.Host+`?page=2>; rel="next", <`+r.Host+`?page=5>; rel="last"`)
			fmt.Fprint(w, `[
				{"number":1,"state":"open","created_at":"2024-01-01T10:00:00Z","closed_at":null},
				{"number":2,"state":"closed","created_at":"2024-01-02T10:00:00Z","closed_at":"2024-01-05T10:00:00Z"},
				{"number":3,"state":"open","created_at":"2024-01-03T10:00:00Z","closed_at":null,"pull_request":{"url":"x"}}
			]`)
		case "2":
			fmt.Fprint(w, `[{"number":4,"state":"open","created_at":"2024-01-09T10:00:00Z","closed_at":null}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
			fmt.Fprint(w, `[]`)
		}
	})
	c, _ := newTestClient(t, mux)

	issues := c.Issues(context.Background(), "all", time.Time{})
	if len(issues) != 3 {
		t.Fatalf("got %d issues, want 3 (pull request must be excluded): %+v", len(issues), issues)
	}
	for _, is := range issues {
		if is.Number == 3 {
			t.Fatalf("pull request leaked into results: %+v", is)
		}
	}
	if issues[1].ClosedAt == nil || !issues[1].Closed() {
		t.Fatalf("issue 2 should be closed: %+v", issues[1])
	}
}

func TestIssuesSendsSinceCursor(t *testing.T) {
	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) { quotaOK(w) })
	mux.HandleFunc("/repos/daytonaio/docs/issues", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("since"); got != "2024-06-01T00:00:00Z" {
			t.Errorf("since = %q", got)
		}
		fmt.Fprint(w, `[]`)
	})
	c, _ := newTestClient(t, mux)

	if issues := c.Issues(context.Background(), "open", since); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestIssuesReturnsPartialResultsOnPageFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) { quotaOK(w) })
	mux.HandleFunc("/repos/daytonaio/docs/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Header().Set("Link", `<next>; rel="next"`)
		fmt.Fprint(w, `[{"number":1,"state":"open","created_at":"2024-01-01T10:00:00Z","closed_at":null}]`)
	})
	c, _ := newTestClient(t, mux)

	issues := c.Issues(context.Background(), "all", time.Time{})
	if len(issues) != 1 {
		t.Fatalf("expected the first page as partial result, got %+v", issues)
	}
}

func TestCheckQuotaWaitsForReset(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"resources":{"core":{"remaining":5,"reset":%d}}}`, now.Add(30*time.Second).Unix())
	})
	c, _ := newTestClient(t, mux)

	var slept time.Duration
	c.now = func() time.Time { return now }
	c.sleep = func(d time.Duration) { slept = d }

	c.checkQuota(context.Background())
	if slept != 31*time.Second {
		t.Fatalf("slept %v, want 31s", slept)
	}
}

func TestCheckQuotaFailsOpen(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	c, _ := newTestClient(t, mux)
	c.sleep = func(d time.Duration) { t.Fatalf("guard must not sleep when the quota check fails, slept %v", d) }

	c.checkQuota(context.Background())
}

func TestForksCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) { quotaOK(w) })
	mux.HandleFunc("/repos/daytonaio/docs", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"forks_count":42}`)
	})
	c, _ := newTestClient(t, mux)

	if got := c.ForksCount(context.Background()); got != 42 {
		t.Fatalf("ForksCount = %d, want 42", got)
	}
	// two requests: quota check + metadata
	if got := c.Requests(); got != 2 {
		t.Fatalf("Requests = %d, want 2", got)
	}
}

func TestForksCountDefaultsToZeroOnFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) { quotaOK(w) })
	mux.HandleFunc("/repos/daytonaio/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c, _ := newTestClient(t, mux)

	if got := c.ForksCount(context.Background()); got != 0 {
		t.Fatalf("ForksCount = %d, want 0 on failure", got)
	}
}
