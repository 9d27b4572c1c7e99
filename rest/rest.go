// Package rest provides core functions for
// network requests to Hyperliquid API endpoints
package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/banky/go-hyperliquid-agent/internal/logger"
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/go-resty/resty/v2"
	"github.com/samber/mo"
)

type Client struct {
	http    *resty.Client
	baseUrl string
	network types.Network
	timeout mo.Option[time.Duration]
	log     *slog.Logger
}

// ClientInterface defines the contract for REST API calls
type ClientInterface interface {
	Post(ctx context.Context, path string, body any, result any) error
}

type Config struct {
	// BaseUrl is the base URL for the Hyperliquid API
	// If none is provided, the url of Network will be used
	BaseUrl string
	// Network defaults to mainnet
	Network types.Network
	// Timeout is the timeout for network requests
	// If none is provided, no timeout will be enforced
	Timeout time.Duration
	Logger  *slog.Logger
}

// New creates a new client instance with the
// provided configuration.
func New(c Config) *Client {
	network := c.Network
	if network == "" {
		network = types.Mainnet
	}

	baseUrl := c.BaseUrl
	if baseUrl == "" {
		baseUrl = network.APIURL()
	}

	var timeout mo.Option[time.Duration]
	if c.Timeout > 0 {
		timeout = mo.Some(c.Timeout)
	}

	http := resty.
		New().
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:    http,
		baseUrl: baseUrl,
		network: network,
		timeout: timeout,
		log:     logger.OrNop(c.Logger),
	}
}

func (c *Client) BaseUrl() string {
	return c.baseUrl
}

func (c *Client) Network() types.Network {
	return c.network
}

func (c *Client) IsMainnet() bool {
	return c.network.IsMainnet()
}

// Post sends a POST request to the specified path with the provided body
// and decodes the JSON response into result (when non-nil).
func (c *Client) Post(
	ctx context.Context,
	path string,
	body any,
	result any,
) error {
	url := c.baseUrl + path

	// Apply timeout to context if specified
	if timeout, ok := c.timeout.Get(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(url)

	if err != nil {
		c.log.Debug("request failed", "path", path, "error", err)
		return err
	}

	c.log.Debug("request done",
		"path", path,
		"status", resp.StatusCode(),
		"took", time.Since(start),
	)

	if err := handleException(resp); err != nil {
		return err
	}

	if result == nil {
		return nil
	}
	return json.Unmarshal(resp.Body(), result)
}

// PostResult is Post with the result type as a type parameter.
func PostResult[T any](
	ctx context.Context,
	c ClientInterface,
	path string,
	body any,
) (T, error) {
	var result T
	err := c.Post(ctx, path, body, &result)
	return result, err
}
