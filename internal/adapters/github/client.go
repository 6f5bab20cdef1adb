// Package github is the tracker API adapter: paginated issue listing,
// repository metadata and the rate-limit guard that runs before every call.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/config"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/domain"
)

type Client struct {
	baseURL string
	token   string
	owner   string
	repo    string
	perPage int
	floor   int
	http    *http.Client
	log     zerolog.Logger

	requests int

	// test seams for the rate-limit wait
	sleep func(time.Duration)
	now   func() time.Time
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.APIBaseURL,
		token:   cfg.GithubToken,
		owner:   cfg.RepoOwner,
		repo:    cfg.RepoName,
		perPage: cfg.PerPage,
		floor:   cfg.RateLimitFloor,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     log,
		sleep:   time.Sleep,
		now:     time.Now,
	}
}

// Requests reports how many HTTP requests the client has issued so far,
// including quota checks. The counter is a plain int: pagination is strictly
// sequential and the service serializes whole runs, so the client is never
// driven from more than one goroutine.
func (c *Client) Requests() int { return c.requests }

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	c.requests++
	return c.http.Do(req)
}

func (c *Client) repoURL(path string, q url.Values) string {
	u := c.baseURL + "/repos/" + url.PathEscape(c.owner) + "/" + url.PathEscape(c.repo) + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

type rateLimitResponse struct {
	Resources struct {
		Core struct {
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"core"`
	} `json:"resources"`
}

// RateLimit queries the quota endpoint.
func (c *Client) RateLimit(ctx context.Context) (domain.RateLimitStatus, error) {
	resp, err := c.get(ctx, c.baseURL+"/rate_limit")
	if err != nil {
		return domain.RateLimitStatus{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return domain.RateLimitStatus{}, fmt.Errorf("github api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out rateLimitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.RateLimitStatus{}, err
	}
	return domain.RateLimitStatus{
		Remaining: out.Resources.Core.Remaining,
		Reset:     time.Unix(out.Resources.Core.Reset, 0),
	}, nil
}

// checkQuota blocks until the quota window resets when the remaining quota
// is below the configured floor. A failed quota lookup is non-fatal: the
// guard logs a warning and lets the caller proceed.
func (c *Client) checkQuota(ctx context.Context) {
	status, err := c.RateLimit(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("rate limit check failed")
		return
	}
	if status.Remaining >= c.floor {
		return
	}
	wait := status.Reset.Sub(c.now()) + time.Second
	if wait <= 0 {
		return
	}
	c.log.Info().Dur("wait", wait).Int("remaining", status.Remaining).Msg("rate limit almost exceeded, waiting for reset")
	c.sleep(wait)
}

// issueRecord is the wire shape of one listing entry. The pull_request
// field is only present on pull requests; its presence is the marker used
// to exclude them.
type issueRecord struct {
	Number      int64           `json:"number"`
	State       string          `json:"state"`
	CreatedAt   time.Time       `json:"created_at"`
	ClosedAt    *time.Time      `json:"closed_at"`
	PullRequest json.RawMessage `json:"pull_request"`
}

// Issues pages through the repository's issue listing. state is one of
// "open", "closed" or "all"; a non-zero since restricts results to issues
// updated at or after that time.
//
// A page-level failure stops pagination early and returns whatever has been
// accumulated; partial results are acceptable for a reporting run.
func (c *Client) Issues(ctx context.Context, state string, since time.Time) []domain.Issue {
	c.log.Info().Str("state", state).Str("repo", c.owner+"/"+c.repo).Msg("fetching issues")

	var issues []domain.Issue
	page := 1
	for {
		c.checkQuota(ctx)

		q := url.Values{}
		q.Set("state", state)
		q.Set("per_page", strconv.Itoa(c.perPage))
		if !since.IsZero() {
			q.Set("since", since.UTC().Format(time.RFC3339))
		}
		if page > 1 {
			q.Set("page", strconv.Itoa(page))
		}

		c.log.Debug().Int("page", page).Msg("requesting issues page")
		records, linkNext, err := c.issuesPage(ctx, c.repoURL("/issues", q))
		if err != nil {
			c.log.Warn().Err(err).Int("page", page).Msg("fetching issues page failed, returning partial results")
			break
		}
		if len(records) == 0 {
			break
		}
		for _, r := range records {
			if r.PullRequest != nil {
				continue
			}
			issues = append(issues, domain.Issue{
				Number:    r.Number,
				State:     r.State,
				CreatedAt: r.CreatedAt,
				ClosedAt:  r.ClosedAt,
			})
		}
		if !linkNext {
			break
		}
		page++
	}

	c.log.Info().Int("count", len(issues)).Str("state", state).Msg("issues fetched")
	return issues
}

func (c *Client) issuesPage(ctx context.Context, u string) ([]issueRecord, bool, error) {
	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("github api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var records []issueRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, false, err
	}
	return records, hasNextLink(resp.Header.Get("Link")), nil
}

// hasNextLink reports whether a Link response header advertises a next page.
func hasNextLink(header string) bool {
	for _, part := range strings.Split(header, ",") {
		if strings.Contains(part, `rel="next"`) {
			return true
		}
	}
	return false
}

// ForksCount fetches the repository fork count. Any failure is logged and
// reported as zero; the fork count is informational and must not fail a run.
func (c *Client) ForksCount(ctx context.Context) int {
	c.checkQuota(ctx)

	resp, err := c.get(ctx, c.repoURL("", nil))
	if err != nil {
		c.log.Warn().Err(err).Msg("fetching forks count failed")
		return 0
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		c.log.Warn().Int("status", resp.StatusCode).Str("body", strings.TrimSpace(string(b))).Msg("fetching forks count failed")
		return 0
	}
	var meta struct {
		ForksCount int `json:"forks_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		c.log.Warn().Err(err).Msg("decoding repository metadata failed")
		return 0
	}
	return meta.ForksCount
}
