package youtube

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"channel-metrics/pkg/httpclient"
	"channel-metrics/pkg/resource"
	"channel-metrics/pkg/telemetry"

	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"
)

const (
	// DefaultBaseURL is the Data API v3 root.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// MaxResults is the largest page the playlistItems endpoint returns and the
	// largest id list the videos endpoint accepts.
	MaxResults = 50

	// UploadStatusProcessed marks a video whose upload has finished processing.
	UploadStatusProcessed = "processed"
)

// API is the request contract the pipeline consumes.
type API interface {
	// Channel looks up one channel by id, or by handle when ref starts with "@".
	// found is false when the API returned no item.
	Channel(ctx context.Context, ref string) (res resource.Resource, found bool, err error)

	// PlaylistItems returns one page of a playlist. An empty pageToken requests the first page.
	PlaylistItems(ctx context.Context, playlistID, pageToken string, maxResults int) (Page, error)

	// Videos returns the videos matching ids (at most MaxResults per call).
	Videos(ctx context.Context, ids []string) ([]resource.Resource, error)

	// UploadStatus returns status.uploadStatus of one video.
	UploadStatus(ctx context.Context, videoID string) (string, error)
}

// Page is one page of a playlistItems listing.
type Page struct {
	Items         []resource.Resource
	NextPageToken string
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// HTTPClient implements API over the REST endpoints.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *httpclient.HTTPClient
	metrics *telemetry.Metrics
}

// Config configures the client.
type Config struct {
	BaseURL string

	// APIKey is appended as the key query parameter. Leave empty when the
	// underlying http.Client already authenticates requests (see Dial).
	APIKey string

	Metrics *telemetry.Metrics
}

// NewHTTPClient builds a client over an existing transport.
func NewHTTPClient(hc *httpclient.HTTPClient, cfg Config) *HTTPClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    hc,
		metrics: cfg.Metrics,
	}
}

// Dial builds an authenticated client: the google transport attaches the API key
// to each request, and the result is paced by httpclient.
func Dial(ctx context.Context, apiKey, baseURL string, pacing httpclient.Config, metrics *telemetry.Metrics) (*HTTPClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube API key is required")
	}
	authed, _, err := htransport.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube transport: %w", err)
	}
	return NewHTTPClient(httpclient.NewClient(authed, pacing), Config{
		BaseURL: baseURL,
		Metrics: metrics,
	}), nil
}

func (c *HTTPClient) Channel(ctx context.Context, ref string) (resource.Resource, bool, error) {
	params := url.Values{}
	params.Set("part", "contentDetails,statistics,snippet")
	if handle, ok := strings.CutPrefix(ref, "@"); ok {
		params.Set("forHandle", handle)
	} else {
		params.Set("id", ref)
	}

	resp, err := c.list(ctx, "channels", params)
	if err != nil {
		return nil, false, err
	}
	items := resp.Items()
	if len(items) == 0 {
		return nil, false, nil
	}
	return items[0], true, nil
}

func (c *HTTPClient) PlaylistItems(ctx context.Context, playlistID, pageToken string, maxResults int) (Page, error) {
	if maxResults <= 0 || maxResults > MaxResults {
		maxResults = MaxResults
	}
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("playlistId", playlistID)
	params.Set("maxResults", strconv.Itoa(maxResults))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	resp, err := c.list(ctx, "playlistItems", params)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: resp.Items(), NextPageToken: resp.NextPageToken()}, nil
}

func (c *HTTPClient) Videos(ctx context.Context, ids []string) ([]resource.Resource, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxResults {
		return nil, fmt.Errorf("youtube videos: %d ids exceeds the limit of %d", len(ids), MaxResults)
	}
	params := url.Values{}
	params.Set("part", "contentDetails,statistics,snippet")
	params.Set("id", strings.Join(ids, ","))

	resp, err := c.list(ctx, "videos", params)
	if err != nil {
		return nil, err
	}
	return resp.Items(), nil
}

func (c *HTTPClient) UploadStatus(ctx context.Context, videoID string) (string, error) {
	params := url.Values{}
	params.Set("part", "status")
	params.Set("id", videoID)

	resp, err := c.list(ctx, "videos", params)
	if err != nil {
		return "", err
	}
	items := resp.Items()
	if len(items) == 0 {
		return "", nil
	}
	if s := items[0].String("status", "uploadStatus"); s != nil {
		return *s, nil
	}
	return "", nil
}

// list issues one GET against endpoint and decodes the response tree.
func (c *HTTPClient) list(ctx context.Context, endpoint string, params url.Values) (resource.Resource, error) {
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	c.metrics.ObserveRequest(endpoint)

	resp, err := c.http.Get(ctx, c.baseURL+"/"+endpoint+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("youtube %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	res, err := resource.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("youtube %s: %w", endpoint, err)
	}
	return res, nil
}

var _ API = (*HTTPClient)(nil)
