// Package version holds the build version and checks GitHub for newer
// releases.
package version

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Current is overridden at build time via -ldflags.
var Current = "0.1.0"

// GitHubRelease represents the relevant fields from GitHub's releases API
type GitHubRelease struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
}

// ReleaseInfo contains version comparison results
type ReleaseInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	UpdateAvailable bool      `json:"update_available"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	PublishedAt     time.Time `json:"published_at,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
}

// Checker handles version checking with caching
type Checker struct {
	currentVersion string
	owner          string
	repo           string
	httpClient     *http.Client

	mu          sync.RWMutex
	cachedInfo  *ReleaseInfo
	cacheExpiry time.Time
	cacheTTL    time.Duration
}

const (
	defaultCacheTTL    = 1 * time.Hour
	defaultHTTPTimeout = 10 * time.Second
	githubAPIURL       = "https://api.github.com/repos/%s/%s/releases/latest"
)

// NewChecker creates a new version checker
func NewChecker(currentVersion, owner, repo string) *Checker {
	return &Checker{
		currentVersion: Normalize(currentVersion),
		owner:          owner,
		repo:           repo,
		httpClient:     &http.Client{Timeout: defaultHTTPTimeout},
		cacheTTL:       defaultCacheTTL,
	}
}

// Check fetches the latest release info, using cache if available
func (c *Checker) Check() (*ReleaseInfo, error) {
	c.mu.RLock()
	if c.cachedInfo != nil && time.Now().Before(c.cacheExpiry) {
		info := *c.cachedInfo
		c.mu.RUnlock()
		return &info, nil
	}
	c.mu.RUnlock()

	info, err := c.fetchLatestRelease()
	if err != nil {
		// Serve stale cache over an error
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.cachedInfo != nil {
			stale := *c.cachedInfo
			stale.CheckedAt = time.Now()
			return &stale, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.cachedInfo = info
	c.cacheExpiry = time.Now().Add(c.cacheTTL)
	c.mu.Unlock()

	return info, nil
}

// fetchLatestRelease makes the actual API call to GitHub
func (c *Checker) fetchLatestRelease() (*ReleaseInfo, error) {
	url := fmt.Sprintf(githubAPIURL, c.owner, c.repo)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", fmt.Sprintf("Hunter/%s", c.currentVersion))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release info: %w", err)
	}
	defer resp.Body.Close()

	current := &ReleaseInfo{
		CurrentVersion:  c.currentVersion,
		LatestVersion:   c.currentVersion,
		UpdateAvailable: false,
		CheckedAt:       time.Now(),
	}

	// No releases yet is not an error
	if resp.StatusCode == http.StatusNotFound {
		return current, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release info: %w", err)
	}
	if release.Draft || release.Prerelease {
		return current, nil
	}

	latest := Normalize(release.TagName)
	return &ReleaseInfo{
		CurrentVersion:  c.currentVersion,
		LatestVersion:   latest,
		UpdateAvailable: Compare(c.currentVersion, latest) < 0,
		ReleaseURL:      release.HTMLURL,
		PublishedAt:     release.PublishedAt,
		CheckedAt:       time.Now(),
	}, nil
}

// CurrentVersion returns the version string the checker was built with.
func (c *Checker) CurrentVersion() string {
	return c.currentVersion
}

// Compare compares two semantic versions.
// Returns -1 if v1 < v2, 0 if equal, 1 if v1 > v2.
func Compare(v1, v2 string) int {
	a := parse(Normalize(v1))
	b := parse(Normalize(v2))
	for i := 0; i < 3; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// Normalize strips the leading 'v' and surrounding whitespace.
func Normalize(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "v")
	v = strings.TrimPrefix(v, "V")
	return v
}

// parse extracts major, minor and patch. Prerelease suffixes are ignored.
func parse(v string) [3]int {
	var out [3]int
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}
	parts := strings.Split(v, ".")
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}
