// Package updatecheck looks up the latest published release on GitHub.
package updatecheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/go-resty/resty/v2"
)

const DefaultAPIURL = "https://api.github.com"

// Release is a published version newer than the running one.
type Release struct {
	Version string
	URL     string
}

// Checker queries the latest release of one repository.
type Checker struct {
	Client  *resty.Client
	Repo    string // "owner/name"
	Current string
}

func NewChecker(repo, current string) *Checker {
	client := resty.New().
		SetBaseURL(DefaultAPIURL).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/vnd.github+json")
	return &Checker{Client: client, Repo: repo, Current: current}
}

// first unwraps jsonpath results that come back as a one-element list.
func first(v any) any {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

func getString(path string, doc any) string {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return ""
	}
	s, _ := first(v).(string)
	return s
}

func zipAsset(doc any) string {
	v, err := jsonpath.Get("$.assets[*]", doc)
	if err != nil {
		return ""
	}
	assets, _ := v.([]any)
	for _, a := range assets {
		if strings.HasSuffix(getString("$.name", a), ".zip") {
			return getString("$.browser_download_url", a)
		}
	}
	return ""
}

// Latest fetches the latest release. The download URL prefers a .zip asset
// and falls back to the release page.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	resp, err := c.Client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/repos/%s/releases/latest", c.Repo))
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch latest release: status %d", resp.StatusCode())
	}

	var doc any
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	tag := getString("$.tag_name", doc)
	if tag == "" {
		return nil, fmt.Errorf("release has no tag_name")
	}

	url := zipAsset(doc)
	if url == "" {
		url = getString("$.html_url", doc)
	}
	return &Release{Version: strings.TrimPrefix(tag, "v"), URL: url}, nil
}

// Check returns the latest release when it is newer than Current and not
// the dismissed version, otherwise nil.
func (c *Checker) Check(ctx context.Context, dismissed string) (*Release, error) {
	rel, err := c.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if rel.Version == strings.TrimPrefix(dismissed, "v") {
		return nil, nil
	}
	if !IsNewer(rel.Version, c.Current) {
		return nil, nil
	}
	return rel, nil
}

// IsNewer compares dotted numeric versions. Missing components count as 0
// and non-numeric components are skipped.
func IsNewer(remote, current string) bool {
	r, c := parts(remote), parts(current)
	for i := 0; i < max(len(r), len(c)); i++ {
		var rv, cv int
		if i < len(r) {
			rv = r[i]
		}
		if i < len(c) {
			cv = c[i]
		}
		if rv != cv {
			return rv > cv
		}
	}
	return false
}

func parts(v string) []int {
	var out []int
	for _, p := range strings.Split(strings.TrimPrefix(v, "v"), ".") {
		if n, err := strconv.Atoi(p); err == nil {
			out = append(out, n)
		}
	}
	return out
}
