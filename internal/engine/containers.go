package engine

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

func containerPath(id, action string) string {
	return "/containers/" + url.PathEscape(id) + "/" + action
}

// ContainerList lists containers. Stopped containers are included when all
// is set.
func (c *Client) ContainerList(ctx context.Context, all bool) ([]Container, error) {
	query := url.Values{}
	if all {
		query.Set("all", "1")
	}

	var containers []Container
	err := c.get(ctx, "/containers/json", query, &containers)
	return containers, err
}

// ContainerInspect returns low-level information about a container.
func (c *Client) ContainerInspect(ctx context.Context, id string) (ContainerJSON, error) {
	var info ContainerJSON
	err := c.get(ctx, containerPath(id, "json"), nil, &info)
	return info, err
}

// ContainerCreate creates a container from cfg. An empty name lets the daemon
// pick one.
func (c *Client) ContainerCreate(ctx context.Context, name string, cfg ContainerConfig) (CreateResponse, error) {
	query := url.Values{}
	if name != "" {
		query.Set("name", name)
	}

	var created CreateResponse
	err := c.call(ctx, http.MethodPost, "/containers/create", query, cfg, &created)
	return created, err
}

// ContainerStart starts a container. Starting a running container succeeds.
func (c *Client) ContainerStart(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, containerPath(id, "start"), nil, nil, nil)
}

// ContainerStop stops a container, killing it after timeout. Stopping a
// stopped container succeeds.
func (c *Client) ContainerStop(ctx context.Context, id string, timeout time.Duration) error {
	query := url.Values{}
	query.Set("t", strconv.Itoa(int(timeout.Seconds())))
	return c.call(ctx, http.MethodPost, containerPath(id, "stop"), query, nil, nil)
}

// ContainerRemove removes a container. A running container is only removed
// when force is set.
func (c *Client) ContainerRemove(ctx context.Context, id string, force bool) error {
	query := url.Values{}
	if force {
		query.Set("force", "1")
	}
	return c.call(ctx, http.MethodDelete, "/containers/"+url.PathEscape(id), query, nil, nil)
}
