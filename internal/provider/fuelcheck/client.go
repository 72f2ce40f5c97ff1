package fuelcheck

import (
	"net/http"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=fuelcheck_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultBaseURL = "https://api.onegov.nsw.gov.au/FuelPriceCheck/v1"

// Client talks to the government fuel-price API. Every request carries the
// caller identity and a fresh transaction id; the API rejects replays.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// apiKey authenticates the caller.
	apiKey string
	// consumer is the registered caller identity sent with each request.
	consumer string
	// header contains additional headers to be sent with each request.
	header http.Header
}

// ClientOption is a configuration option for the fuel API client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithConsumer sets the caller identity header value.
func WithConsumer(consumer string) ClientOption {
	return func(c *Client) {
		c.consumer = consumer
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new fuel API client.
func NewClient(apiKey string, options ...ClientOption) (*Client, error) {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		apiKey:     apiKey,
		header:     http.Header{},
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}
