package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Fetch modes. FetchFresh always refetches from the API; FetchSnapshot
// reloads the snapshot file when present and fetches only when it is not.
const (
	ModeFresh    = "fresh"
	ModeSnapshot = "snapshot"
)

type Config struct {
	AppEnv string

	RepoOwner string
	RepoName  string

	APIBaseURL  string
	GithubToken string
	HTTPTimeout time.Duration
	PerPage     int

	// RateLimitFloor is the remaining-quota threshold below which the
	// rate-limit guard waits for the quota window to reset.
	RateLimitFloor int

	ArtifactDir  string
	SnapshotFile string
	FetchMode    string
	ChartPNG     bool

	ReportCron string
	HTTPAddr   string

	TelegramToken   string
	TelegramChatIDs []int64
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoi(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func boolenv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func parseInt64s(csv string) []int64 {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

// Load reads configuration from the environment. There are no flags; the
// process is driven entirely by environment variables and the current date.
func Load() Config {
	cfg := Config{
		AppEnv: getenv("APP_ENV", "dev"),

		RepoOwner: getenv("REPO_OWNER", "daytonaio"),
		RepoName:  getenv("REPO_NAME", "docs"),

		APIBaseURL:  strings.TrimRight(getenv("GITHUB_API_URL", "https://api.github.com"), "/"),
		GithubToken: getenv("GITHUB_TOKEN", ""),
		HTTPTimeout: dur("HTTP_TIMEOUT", 15*time.Second),
		PerPage:     atoi("PER_PAGE", 100),

		RateLimitFloor: atoi("RATE_LIMIT_FLOOR", 10),

		ArtifactDir:  getenv("ARTIFACT_DIR", "artifact"),
		SnapshotFile: getenv("SNAPSHOT_FILE", "github_data.json"),
		FetchMode:    getenv("FETCH_MODE", ModeFresh),
		ChartPNG:     boolenv("CHART_PNG", false),

		ReportCron: getenv("REPORT_CRON", ""),
		HTTPAddr:   getenv("HTTP_ADDR", ":8080"),

		TelegramToken:   getenv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatIDs: parseInt64s(getenv("TELEGRAM_CHAT_IDS", "")),
	}

	if cfg.FetchMode != ModeFresh && cfg.FetchMode != ModeSnapshot {
		cfg.FetchMode = ModeFresh
	}
	if cfg.PerPage <= 0 || cfg.PerPage > 100 {
		cfg.PerPage = 100
	}
	return cfg
}
