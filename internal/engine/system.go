package engine

import (
	"context"
	"io"
	"net/http"
)

// Ping checks that the daemon is reachable and returns the API version it
// advertises.
func (c *Client) Ping(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/_ping", nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return "", WrapIO(err)
	}

	return resp.Header.Get("Api-Version"), nil
}

// Version returns the daemon's version information.
func (c *Client) Version(ctx context.Context) (Version, error) {
	var v Version
	err := c.get(ctx, "/version", nil, &v)
	return v, err
}

// Info returns system-wide information about the daemon.
func (c *Client) Info(ctx context.Context) (Info, error) {
	var info Info
	err := c.get(ctx, "/info", nil, &info)
	return info, err
}
