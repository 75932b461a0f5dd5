// Package engine is a client for the Docker Engine API. Every failure it
// returns is an *Error identifying the layer that failed.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
)

// DefaultHost is the daemon address used when none is configured.
const DefaultHost = "unix:///var/run/docker.sock"

// unixBaseURL stands in for the host part of request URLs sent over a unix
// socket. The dialer ignores it.
const unixBaseURL = "http://docker"

// Client talks to the Docker Engine API. Every error it returns is an *Error.
type Client struct {
	baseURL   string
	version   string
	userAgent string
	timeout   time.Duration
	http      *http.Client
}

// NewClient creates a Client for the daemon at host, which may be a
// unix:// socket path, a tcp:// address or an http(s):// URL.
func NewClient(host string, opts ...Option) (*Client, error) {
	baseURL, transport, err := parseHost(host)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:   baseURL,
		userAgent: "docker-engine-exporter",
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Transport: transport}
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}

	return c, nil
}

func parseHost(host string) (string, http.RoundTripper, error) {
	if host == "" {
		return "", nil, errors.New("docker host must not be empty")
	}

	u, err := url.Parse(host)
	if err != nil {
		return "", nil, fmt.Errorf("parsing docker host %q: %w", host, err)
	}

	switch u.Scheme {
	case "unix":
		socket := socketPath(u)
		if socket == "" {
			return "", nil, fmt.Errorf("docker host %q has no socket path", host)
		}
		transport := &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socket)
			},
		}
		return unixBaseURL, transport, nil
	case "tcp":
		if u.Host == "" {
			return "", nil, fmt.Errorf("docker host %q has no address", host)
		}
		return "http://" + u.Host, http.DefaultTransport, nil
	case "http", "https":
		return strings.TrimSuffix(host, "/"), http.DefaultTransport, nil
	default:
		return "", nil, fmt.Errorf("unsupported docker host scheme %q", u.Scheme)
	}
}

// socketPath returns everything after "unix://", so unix://var/run/x.sock
// names the relative path var/run/x.sock rather than losing "var" as a host.
func socketPath(u *url.URL) string {
	return u.Host + u.Path
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL
	if c.version != "" {
		u += "/v" + c.version
	}
	u += path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends a request with in, if non-nil, as its JSON body. Responses with a
// status outside 200-399 are consumed and returned as a fault. Otherwise the
// caller owns the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in interface{}) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, WrapEncoding(err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
	if err != nil {
		return nil, WrapTransport(err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, WrapTransport(err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, WrapIO(err)
		}
		return nil, NewFault(resp.StatusCode, faultMessage(resp.StatusCode, data))
	}

	return resp, nil
}

// call performs a request and decodes the response body into out. A nil out
// discards the body.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	resp, err := c.do(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return WrapIO(err)
	}

	if out == nil {
		return nil
	}
	return decodeJSON(data, out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.call(ctx, http.MethodGet, path, query, nil, out)
}

// decodeJSON parses data and decodes it into out. Malformed input is a parse
// error; well-formed input of the wrong shape is a decoding error.
func decodeJSON(data []byte, out interface{}) error {
	return From(json.Unmarshal(data, out))
}

// faultMessage extracts the daemon's explanation from an error response. The
// engine answers with {"message": "..."}; anything else falls back to the raw
// body and then to the status text.
func faultMessage(code int, body []byte) string {
	if msg, err := jsonparser.GetString(body, "message"); err == nil && msg != "" {
		return msg
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(code)
}
