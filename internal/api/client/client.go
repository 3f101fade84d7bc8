// Package client talks to the mock service endpoint over HTTP
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/onboardkit/harness/internal/api/routes"
)

// DefaultTimeout is the default timeout for requests
const DefaultTimeout = 30 * time.Second

// Options contains configuration options for the client
type Options struct {
	// BaseURL is the base URL of the mock endpoint
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// Client calls the mock storage, PDF and auth endpoints
type Client struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a client with the given options
func NewClient(opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{baseURL: opts.BaseURL, timeout: timeout}, nil
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *Client) createAgent(ctx context.Context, method, endpoint string) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	case http.MethodDelete:
		agent = fiber.Delete(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}
	agent.Set("Accept", "application/json")
	return agent, nil
}

// doRequest sends the request and decodes a JSON body into v when v is not nil
func (c *Client) doRequest(agent *fiber.Agent, v interface{}) error {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}
	if err := checkStatus(statusCode, body); err != nil {
		return err
	}

	if v != nil && len(body) > 0 {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}
	return nil
}

func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &Error{Status: statusCode, Code: errResp.Code, Message: errResp.Error}
	}
	return &Error{Status: statusCode, Message: "unknown error"}
}

// HealthCheck checks the endpoint is up
func (c *Client) HealthCheck(ctx context.Context) (map[string]string, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, routes.HealthPath)
	if err != nil {
		return nil, err
	}
	var response map[string]string
	if err := c.doRequest(agent, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// Upload stores data at bucket/path
func (c *Client) Upload(ctx context.Context, bucket, p string, data []byte, opts UploadOptions) (*UploadResponse, error) {
	agent, err := c.createAgent(ctx, http.MethodPost, routes.ObjectURL(bucket, p))
	if err != nil {
		return nil, err
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	agent.ContentType(contentType)
	if opts.CacheControl != "" {
		agent.Set(fiber.HeaderCacheControl, opts.CacheControl)
	}
	if opts.Upsert {
		agent.Set("x-upsert", "true")
	}
	agent.Body(data)

	var response UploadResponse
	if err := c.doRequest(agent, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Download fetches a public object and returns its bytes and content type
func (c *Client) Download(ctx context.Context, bucket, p string) ([]byte, string, error) {
	return c.download(ctx, routes.PublicObjectURL(bucket, p))
}

// DownloadSigned fetches an object through a signed URL minted by the storage mock.
// Only the path and query of signedURL are used.
func (c *Client) DownloadSigned(ctx context.Context, signedURL string) ([]byte, string, error) {
	u, err := url.Parse(signedURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid signed URL: %w", err)
	}
	return c.download(ctx, u.RequestURI())
}

func (c *Client) download(ctx context.Context, endpoint string) ([]byte, string, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, "", err
	}
	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)
	agent.SetResponse(resp)

	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, "", fmt.Errorf("error sending request: %w", errs[0])
	}
	if err := checkStatus(statusCode, body); err != nil {
		return nil, "", err
	}
	data := make([]byte, len(body))
	copy(data, body)
	return data, string(resp.Header.ContentType()), nil
}

// Delete removes an object and reports whether it existed
func (c *Client) Delete(ctx context.Context, bucket, p string) (bool, error) {
	agent, err := c.createAgent(ctx, http.MethodDelete, routes.ObjectURL(bucket, p))
	if err != nil {
		return false, err
	}
	var response DeleteResponse
	if err := c.doRequest(agent, &response); err != nil {
		return false, err
	}
	return response.Removed, nil
}

// GeneratePDF renders a document. On failure the decoded response is returned with the error.
func (c *Client) GeneratePDF(ctx context.Context, req GeneratePDFRequest) (*GeneratePDFResponse, error) {
	agent, err := c.createAgent(ctx, http.MethodPost, routes.GeneratePDFPath)
	if err != nil {
		return nil, err
	}
	agent.JSON(req)

	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("error sending request: %w", errs[0])
	}
	var response GeneratePDFResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, fmt.Errorf("error decoding response: %w", err)
		}
	}
	if err := checkStatus(statusCode, body); err != nil {
		return &response, err
	}
	return &response, nil
}

// PDFMetadata looks up a generated document by URL
func (c *Client) PDFMetadata(ctx context.Context, pdfURL string) (*PDFMetadataResponse, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, routes.PDFMetadataURL(pdfURL))
	if err != nil {
		return nil, err
	}
	var response PDFMetadataResponse
	if err := c.doRequest(agent, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// User resolves an access token to its user
func (c *Client) User(ctx context.Context, accessToken string) (*UserResponse, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, routes.UserPath)
	if err != nil {
		return nil, err
	}
	agent.Set(fiber.HeaderAuthorization, "Bearer "+accessToken)

	var response UserResponse
	if err := c.doRequest(agent, &response); err != nil {
		return nil, err
	}
	return &response, nil
}
