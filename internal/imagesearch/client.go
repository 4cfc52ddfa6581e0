package imagesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"slidegen/internal/imagegen"
	"slidegen/pkg/httputil"
)

const (
	baseURL        = "https://www.googleapis.com/customsearch/v1"
	defaultTimeout = 15 * time.Second
	maxResults     = 5
	maxImageBytes  = 20 << 20
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var ErrNoResults = errors.New("image search returned no usable image")

type Config struct {
	APIKey          string
	EngineID        string
	Timeout         time.Duration
	DownloadRetries int
}

// Client finds a stock photo for a slide through Google Custom Search.
type Client struct {
	apiKey     string
	engineID   string
	httpClient *http.Client
	downloader *httputil.RetryClient
	baseURL    string
}

type SearchResult struct {
	Title    string
	ImageURL string
	ThumbURL string
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title string    `json:"title"`
	Link  string    `json:"link"`
	Image imageInfo `json:"image"`
}

type imageInfo struct {
	ThumbnailLink string `json:"thumbnailLink"`
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}

	retry := httputil.DefaultRetryConfig()
	retry.MaxRetries = cfg.DownloadRetries

	return &Client{
		apiKey:     cfg.APIKey,
		engineID:   cfg.EngineID,
		httpClient: httpClient,
		downloader: httputil.NewRetryClient(&http.Client{Timeout: timeout, Transport: userAgentTransport{}}, retry),
		baseURL:    baseURL,
	}
}

func (c *Client) Search(ctx context.Context, query string, count int) ([]SearchResult, error) {
	count = min(count, 10)

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("searchType", "image")
	params.Set("num", strconv.Itoa(count))
	params.Set("safe", "active")
	params.Set("imgSize", "large")
	params.Set("imgType", "photo")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search api error: %s, body: %s", resp.Status, string(body))
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]SearchResult, 0, len(searchResp.Items))
	for _, item := range searchResp.Items {
		results = append(results, SearchResult{
			Title:    item.Title,
			ImageURL: item.Link,
			ThumbURL: item.Image.ThumbnailLink,
		})
	}
	return results, nil
}

// Generate searches for the slide title and stores the first result that
// downloads as a valid image at <dir>/slide_<n>.png.
func (c *Client) Generate(ctx context.Context, dir string, n int, title, description string) (string, error) {
	query := strings.TrimSpace(title)
	if query == "" {
		query = strings.TrimSpace(description)
	}
	if query == "" {
		return "", ErrNoResults
	}

	results, err := c.Search(ctx, query, maxResults)
	if err != nil {
		return "", err
	}

	for _, r := range results {
		data, err := c.download(ctx, r)
		if err != nil {
			slog.Debug("Skipping search result", "url", r.ImageURL, "error", err)
			continue
		}

		path := imagegen.Path(dir, n)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", fmt.Errorf("write image: %w", err)
		}
		slog.Debug("Image found", "slide", n, "query", query, "url", r.ImageURL)
		return path, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNoResults, query)
}

// download tries the full image first and falls back to the thumbnail.
func (c *Client) download(ctx context.Context, r SearchResult) ([]byte, error) {
	var errs []error
	for _, u := range []string{r.ImageURL, r.ThumbURL} {
		if u == "" {
			continue
		}
		data, err := c.downloader.Fetch(ctx, u, maxImageBytes)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !imagegen.ValidImage(data) {
			errs = append(errs, imagegen.ErrInvalidImage)
			continue
		}
		return data, nil
	}
	if len(errs) == 0 {
		return nil, imagegen.ErrNoImage
	}
	return nil, errors.Join(errs...)
}

// userAgentTransport sends a browser User-Agent with every download.
type userAgentTransport struct{}

func (userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	return http.DefaultTransport.RoundTrip(req)
}
