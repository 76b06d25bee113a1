// Package geo looks up a visitor's country over a JSON geolocation API.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default endpoints. VisitorEndpoint takes the IP address as its only verb.
const (
	DefaultEndpoint        = "https://ipapi.co/json/"
	DefaultVisitorEndpoint = "https://ipapi.co/%s/json/"
	DefaultTimeout         = 5 * time.Second
)

// maxBody bounds how much of a response is read.
const maxBody = 64 << 10

// ErrUnavailable wraps every lookup failure.
var ErrUnavailable = errors.New("location unavailable")

// Location is the subset of the ipapi.co payload the homepage uses.
type Location struct {
	IP          string `json:"ip" yaml:"ip"`
	City        string `json:"city,omitempty" yaml:"city,omitempty"`
	Region      string `json:"region,omitempty" yaml:"region,omitempty"`
	CountryCode string `json:"country_code" yaml:"country_code"`
	CountryName string `json:"country_name,omitempty" yaml:"country_name,omitempty"`
	Timezone    string `json:"timezone,omitempty" yaml:"timezone,omitempty"`

	Error  bool   `json:"error,omitempty" yaml:"-"`
	Reason string `json:"reason,omitempty" yaml:"-"`
}

// Options configures a Client.
type Options struct {
	Endpoint        string
	VisitorEndpoint string
	Timeout         time.Duration
	HTTP            *http.Client
	Logger          *slog.Logger
	UserAgent       string
}

// Client issues single, unretried lookups.
type Client struct {
	endpoint        string
	visitorEndpoint string
	http            *http.Client
	logger          *slog.Logger
	userAgent       string
}

// NewClient creates a client, filling defaults for empty options.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.VisitorEndpoint == "" {
		opts.VisitorEndpoint = DefaultVisitorEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTP == nil {
		opts.HTTP = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "homepage"
	}
	return &Client{
		endpoint:        opts.Endpoint,
		visitorEndpoint: opts.VisitorEndpoint,
		http:            opts.HTTP,
		logger:          opts.Logger,
		userAgent:       opts.UserAgent,
	}
}

// URL returns the lookup URL for ip, or for the caller when ip is empty.
func (c *Client) URL(ip string) string {
	if ip == "" {
		return c.endpoint
	}
	return fmt.Sprintf(c.visitorEndpoint, url.PathEscape(ip))
}

// Lookup resolves ip, or the caller's own address when ip is empty.
func (c *Client) Lookup(ctx context.Context, ip string) (*Location, error) {
	target := c.URL(ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}

	var loc Location
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&loc); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if loc.Error {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, loc.Reason)
	}
	loc.CountryCode = strings.ToUpper(strings.TrimSpace(loc.CountryCode))
	if loc.CountryCode == "" {
		return nil, fmt.Errorf("%w: response has no country code", ErrUnavailable)
	}

	c.logger.Debug("location resolved",
		"ip", loc.IP,
		"country", loc.CountryCode,
		"took", time.Since(start))
	return &loc, nil
}

// ForIP returns a locale.Geolocator bound to one address.
func (c *Client) ForIP(ip string) *IPLocator {
	return &IPLocator{client: c, ip: ip}
}

// IPLocator resolves a fixed address.
type IPLocator struct {
	client *Client
	ip     string
}

// CountryCode implements locale.Geolocator.
func (l *IPLocator) CountryCode(ctx context.Context) (string, error) {
	loc, err := l.client.Lookup(ctx, l.ip)
	if err != nil {
		return "", err
	}
	return loc.CountryCode, nil
}
