// Package inat provides a client for the iNaturalist computer vision API.
package inat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const (
	// DefaultBaseURL is the public iNaturalist API root.
	DefaultBaseURL = "https://api.inaturalist.org/v1"
	// DefaultUserAgent identifies the sorter to iNaturalist.
	DefaultUserAgent = "FrogSorterBot/1.0 (discord frog photo organiser)"
	// AnuraTaxonID restricts vision results to frogs and toads.
	AnuraTaxonID = 20979

	scoreImagePath = "/computervision/score_image"
)

// Client defines the iNaturalist vision operations.
type Client interface {
	// ScoreImage uploads an image and returns the ranked taxon suggestions.
	ScoreImage(ctx context.Context, imagePath string) (*ScoreResponse, error)
}

// ScoreResponse is the parsed score_image response.
type ScoreResponse struct {
	TotalResults int      `json:"total_results"`
	Results      []Result `json:"results"`
}

// Result is a single taxon suggestion. Results are ordered by descending
// confidence.
type Result struct {
	CombinedScore *float64 `json:"combined_score,omitempty"`
	Score         *float64 `json:"score,omitempty"`
	VisionScore   *float64 `json:"vision_score,omitempty"`
	Taxon         Taxon    `json:"taxon"`
}

// EffectiveScore returns combined_score, falling back to score, else 0.
func (r Result) EffectiveScore() float64 {
	switch {
	case r.CombinedScore != nil:
		return *r.CombinedScore
	case r.Score != nil:
		return *r.Score
	default:
		return 0
	}
}

// Taxon identifies the suggested biological category.
type Taxon struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	Rank                string `json:"rank,omitempty"`
	PreferredCommonName string `json:"preferred_common_name,omitempty"`
	EnglishCommonName   string `json:"english_common_name,omitempty"`
}

// Option configures the iNaturalist client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithTaxonID overrides the taxon filter sent with every request.
func WithTaxonID(id int) Option {
	return func(c *httpClient) {
		c.taxonID = id
	}
}

type httpClient struct {
	token     string
	baseURL   string
	userAgent string
	taxonID   int
	http      *http.Client
}

// NewClient creates a new iNaturalist client authenticated with token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:     token,
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		taxonID:   AnuraTaxonID,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ScoreImage(ctx context.Context, imagePath string) (*ScoreResponse, error) {
	body, contentType, err := multipartImage(imagePath)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("taxon_id", strconv.Itoa(c.taxonID))
	reqURL := c.baseURL + scoreImagePath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, eris.Wrap(err, "inat: create request")
	}

	// iNaturalist expects the raw API token, without a Bearer prefix.
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "inat: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "inat: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 200)}
	}

	var result ScoreResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, eris.Wrap(err, "inat: unmarshal response")
	}

	return &result, nil
}

func multipartImage(imagePath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, "", eris.Wrapf(err, "inat: open image %s", imagePath)
	}
	defer f.Close() //nolint:errcheck

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := filepath.Base(imagePath)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	h.Set("Content-Type", imageContentType(name))

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", eris.Wrap(err, "inat: create multipart part")
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", eris.Wrapf(err, "inat: read image %s", imagePath)
	}
	if err := w.Close(); err != nil {
		return nil, "", eris.Wrap(err, "inat: close multipart writer")
	}
	return &buf, w.FormDataContentType(), nil
}

func imageContentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "image/jpeg"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
