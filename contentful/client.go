// Package contentful is a small read-only client for the Contentful
// Content Delivery and Content Preview APIs.
package contentful

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	// DeliveryHost serves published content.
	DeliveryHost = "cdn.contentful.com"
	// PreviewHost serves draft and published content; it needs a preview token.
	PreviewHost = "preview.contentful.com"

	defaultEnvironment = "master"
	defaultTimeout     = 10 * time.Second
)

// Config holds the credentials and endpoint of a space.
type Config struct {
	SpaceID     string
	AccessToken string
	Environment string // default "master"
	Host        string // default DeliveryHost
	Scheme      string // default "https"
	HTTPClient  *http.Client
}

// Client queries a single Contentful space. It is safe for concurrent use.
type Client struct {
	space   string
	token   string
	env     string
	baseURL string
	http    *http.Client
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.SpaceID == "" {
		return nil, errors.New("contentful: space ID is required")
	}
	if cfg.AccessToken == "" {
		return nil, errors.New("contentful: access token is required")
	}
	if cfg.Environment == "" {
		cfg.Environment = defaultEnvironment
	}
	if cfg.Host == "" {
		cfg.Host = DeliveryHost
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "https"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		space:   cfg.SpaceID,
		token:   cfg.AccessToken,
		env:     cfg.Environment,
		baseURL: cfg.Scheme + "://" + strings.TrimSuffix(cfg.Host, "/"),
		http:    cfg.HTTPClient,
	}, nil
}

// Query filters an entries request. Zero values are omitted.
type Query struct {
	ContentType string
	Fields      map[string]string // fields.<name>=<value> exact matches
	Limit       int
	Skip        int
	Include     int // link resolution depth, server default when 0
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.ContentType != "" {
		v.Set("content_type", q.ContentType)
	}
	for name, val := range q.Fields {
		v.Set("fields."+name, val)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Include > 0 {
		v.Set("include", strconv.Itoa(q.Include))
	}
	return v
}

// GetEntries fetches the entries matching q.
func (c *Client) GetEntries(ctx context.Context, q Query) (*EntryCollection, error) {
	endpoint := fmt.Sprintf("%s/spaces/%s/environments/%s/entries",
		c.baseURL, url.PathEscape(c.space), url.PathEscape(c.env))
	if enc := q.values().Encode(); enc != "" {
		endpoint += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("contentful: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.contentful.delivery.v1+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contentful: get entries: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("contentful: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp, body)
	}

	var col EntryCollection
	if err := json.Unmarshal(body, &col); err != nil {
		return nil, fmt.Errorf("contentful: decode entries: %w", err)
	}
	return &col, nil
}
