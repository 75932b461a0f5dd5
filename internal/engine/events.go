package engine

import (
	"bufio"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// maxEventSize bounds a single line of the event stream.
const maxEventSize = 1 << 20

// Events requests the daemon's events between since and until. Each event is
// decoded and passed to fn in order. A zero until streams until ctx is done.
// An error returned by fn stops the stream and is returned as-is; every other
// failure is an *Error.
func (c *Client) Events(ctx context.Context, since, until time.Time, fn func(Event) error) error {
	query := url.Values{}
	if !since.IsZero() {
		query.Set("since", strconv.FormatInt(since.Unix(), 10))
	}
	if !until.IsZero() {
		query.Set("until", strconv.FormatInt(until.Unix(), 10))
	}

	resp, err := c.do(ctx, http.MethodGet, "/events", query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	scanner.Split(bufio.ScanLines)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := decodeJSON(line, &event); err != nil {
			return err
		}
		if err := fn(event); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return WrapIO(err)
	}
	return nil
}
