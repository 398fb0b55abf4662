// Package lsky implements a narrow HTTP client for the Lsky Pro image host API.
package lsky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/chenhe/lskyctl/internal/mediatype"
	"github.com/chenhe/lskyctl/internal/multipartext"
)

// envelope is the uniform response wrapper of the Lsky Pro API.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// UploadResponse represents the response as is returned by a successful upload.
type UploadResponse struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	OriginName string  `json:"origin_name"`
	Extension  string  `json:"extension"`
	SHA1       string  `json:"sha1"`
	Size       float64 `json:"size"` // in KB
	Mimetype   string  `json:"mimetype"`
	Links      Links   `json:"links"`
}

// Links holds the public URLs of an uploaded image.
type Links struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// APIError is a classified failure reported by the Lsky Pro API. StatusCode is the HTTP status
// of the response; logical failures inside a 2xx body carry status 200.
type APIError struct {
	StatusCode int
	Msg        string
}

func (e *APIError) Error() string {
	return e.Msg
}

// UploadOptions are the optional parameters of Client.Upload.
type UploadOptions struct {
	// ContentType of the file part. Inferred from the filename extension when empty, falling
	// back to application/octet-stream.
	ContentType string

	// StrategyID selects a server-side storage strategy.
	StrategyID *int

	// AlbumID places the upload into a server-side album.
	AlbumID *int
}

// Client is a stateless client for a single Lsky Pro server.
type Client struct {
	HTTPClient *retryablehttp.Client
	URL        string // api base, e.g. https://img.example.com/api/v1
	Token      string
}

// NewClient returns a client for the Lsky Pro server at serverURL. The URL may or may not
// carry the api path suffix. An empty token means anonymous access.
func NewClient(serverURL, token string, timeout time.Duration) *Client {
	return &Client{
		HTTPClient: newHTTPClient(timeout),
		URL:        NormalizeURL(serverURL) + apiSuffix,
		Token:      NormalizeToken(token),
	}
}

// newHTTPClient returns a new pre-configured instance of retryablehttp.Client.
// Uploads are not idempotent on the Lsky Pro side, hence a single attempt per call.
func newHTTPClient(timeout time.Duration) *retryablehttp.Client {
	return &retryablehttp.Client{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
		RetryMax:     0,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
}

// Upload stores the contents of body under the given filename on the remote server.
func (c *Client) Upload(ctx context.Context, body io.Reader, filename string, opts UploadOptions) (UploadResponse, error) {
	contentType := opts.ContentType
	if contentType == "" {
		contentType = mediatype.ByName(filename)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	fields := map[string]string{}
	if opts.StrategyID != nil {
		fields["strategy_id"] = strconv.Itoa(*opts.StrategyID)
	}
	if opts.AlbumID != nil {
		fields["album_id"] = strconv.Itoa(*opts.AlbumID)
	}

	multipartReader, formContentType, err := multipartext.NewFormReader(filename, contentType, body, fields)
	if err != nil {
		return UploadResponse{}, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.URL+"/upload", multipartReader)
	if err != nil {
		return UploadResponse{}, err
	}
	req.Header.Set("Content-Type", formContentType)
	c.setDefaultHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return UploadResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UploadResponse{}, c.newAPIError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return UploadResponse{}, fmt.Errorf("failed to parse upload response: %w", err)
	}
	// Logical failures are reported inside a 2xx body.
	if !env.Status {
		return UploadResponse{}, &APIError{StatusCode: http.StatusOK, Msg: "status=false: " + env.Message}
	}

	var ur UploadResponse
	if err := json.Unmarshal(env.Data, &ur); err != nil {
		return UploadResponse{}, fmt.Errorf("failed to parse upload response: %w", err)
	}
	if ur.Links.URL == "" {
		return UploadResponse{}, &APIError{StatusCode: http.StatusOK, Msg: "links or url is empty"}
	}

	return ur, nil
}

// Delete removes the image with the given key from the remote server.
//
// The envelope's status flag is informational only: the server reports false for images it no
// longer knows, so conditioning success on it would break delete idempotency.
func (c *Client) Delete(ctx context.Context, key string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodDelete, c.URL+"/images/"+url.PathEscape(key), nil)
	if err != nil {
		return err
	}
	c.setDefaultHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.newAPIError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && !env.Status {
		log.Debug().Str("key", key).Msgf("Server reported delete failure: %s", env.Message)
	}
	return nil
}

func (c *Client) setDefaultHeaders(req *retryablehttp.Request) {
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

// newAPIError classifies a non-2xx response. A 5xx carries the raw body as message, anything
// else carries the envelope's message field.
func (c *Client) newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 500 {
		return &APIError{StatusCode: resp.StatusCode, Msg: string(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Msg: string(body)}
	}
	return &APIError{StatusCode: resp.StatusCode, Msg: env.Message}
}
