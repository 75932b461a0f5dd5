package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitgo/docker-engine-exporter/internal/engine"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var scrapeTime = time.Date(2021, time.January, 1, 12, 0, 0, 0, time.UTC)

// fakeEngine serves canned responses and records the event window it was
// asked for.
type fakeEngine struct {
	containers []engine.Container
	events     []engine.Event
	listErr    error
	eventsErr  error

	since, until time.Time
}

func (f *fakeEngine) ContainerList(ctx context.Context, all bool) ([]engine.Container, error) {
	return f.containers, f.listErr
}

func (f *fakeEngine) Events(ctx context.Context, since, until time.Time, fn func(engine.Event) error) error {
	f.since, f.until = since, until
	if f.eventsErr != nil {
		return f.eventsErr
	}
	for _, e := range f.events {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func newTestCollector(api engineAPI) *engineCollector {
	c := newEngineCollector(api, time.Second)
	c.now = func() time.Time { return scrapeTime }
	return c
}

func TestCollect(t *testing.T) {
	api := &fakeEngine{
		containers: []engine.Container{
			{ID: "a", State: "running"},
			{ID: "b", State: "running"},
			{ID: "c", State: "exited"},
		},
		events: []engine.Event{
			{Type: "container", Action: "start"},
			{Type: "container", Action: "start"},
			{Type: "network", Action: "connect"},
		},
	}
	c := newTestCollector(api)

	expected := `
# HELP docker_engine_containers Number of containers known to the Docker Engine, by state
# TYPE docker_engine_containers gauge
docker_engine_containers{state="exited"} 1
docker_engine_containers{state="running"} 2
# HELP docker_engine_events Docker Engine events, obtained via the events API
# TYPE docker_engine_events gauge
docker_engine_events{action="connect",period="1m",type="network"} 1
docker_engine_events{action="start",period="1m",type="container"} 2
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"docker_engine_containers", "docker_engine_events", "docker_engine_api_errors_total")
	require.NoError(t, err)

	require.Equal(t, scrapeTime.Add(-1*eventPeriod), api.since)
	require.Equal(t, scrapeTime, api.until)
}

func TestCollectCountsErrorsByKind(t *testing.T) {
	api := &fakeEngine{
		listErr:   engine.NewFault(http.StatusInternalServerError, "the daemon's on fire"),
		eventsErr: engine.WrapIO(io.ErrUnexpectedEOF),
	}
	c := newTestCollector(api)

	expected := `
# HELP docker_engine_api_errors_total The total number of failed Docker Engine API calls
# TYPE docker_engine_api_errors_total counter
docker_engine_api_errors_total{kind="fault",operation="containerList"} 1
docker_engine_api_errors_total{kind="io",operation="events"} 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"docker_engine_containers", "docker_engine_events", "docker_engine_api_errors_total")
	require.NoError(t, err)

	// A second scrape keeps counting.
	_ = testutil.CollectAndCount(c)
	require.Equal(t, float64(2), testutil.ToFloat64(c.apiErrors.WithLabelValues("containerList", "fault")))
}

func TestCollectWithEngineClient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/containers/json":
			_, _ = w.Write([]byte(`[{"Id":"a","State":"running"}]`))
		case "/events":
			_, _ = w.Write([]byte(`{"Type":"container",`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	api, err := engine.NewClient(ts.URL, engine.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	c := newTestCollector(api)

	expected := `
# HELP docker_engine_api_errors_total The total number of failed Docker Engine API calls
# TYPE docker_engine_api_errors_total counter
docker_engine_api_errors_total{kind="parse",operation="events"} 1
# HELP docker_engine_containers Number of containers known to the Docker Engine, by state
# TYPE docker_engine_containers gauge
docker_engine_containers{state="running"} 1
`
	err = testutil.CollectAndCompare(c, strings.NewReader(expected),
		"docker_engine_containers", "docker_engine_events", "docker_engine_api_errors_total")
	require.NoError(t, err)
}

func TestPromDurationString(t *testing.T) {
	testCases := []struct {
		duration time.Duration
		expected string
	}{
		{time.Minute, "1m"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 500*time.Millisecond, "2h500ms"},
		{1500 * time.Millisecond, "1s500ms"},
		{25 * time.Hour, "25h"},
	}

	for _, c := range testCases {
		t.Run(c.expected, func(t *testing.T) {
			require.Equal(t, c.expected, promDurationString(c.duration))
		})
	}
}

func TestRootCmdFlagsFromEnvironment(t *testing.T) {
	t.Setenv("EXPORTER_LISTEN_ADDR", ":9999")
	t.Setenv("DOCKER_HOST", "tcp://127.0.0.1:2375")
	t.Setenv("DOCKER_API_VERSION", "1.41")
	t.Setenv("DOCKER_TIMEOUT", "3s")

	flags := newRootCmd().Flags()

	addr, err := flags.GetString("listen-addr")
	require.NoError(t, err)
	require.Equal(t, ":9999", addr)

	host, err := flags.GetString("docker-host")
	require.NoError(t, err)
	require.Equal(t, "tcp://127.0.0.1:2375", host)

	apiVersion, err := flags.GetString("api-version")
	require.NoError(t, err)
	require.Equal(t, "1.41", apiVersion)

	timeout, err := flags.GetString("timeout")
	require.NoError(t, err)
	require.Equal(t, "3s", timeout)
}

func TestRootCmdDefaults(t *testing.T) {
	t.Setenv("EXPORTER_LISTEN_ADDR", "")
	t.Setenv("DOCKER_HOST", "")
	t.Setenv("DOCKER_TIMEOUT", "")

	flags := newRootCmd().Flags()

	addr, err := flags.GetString("listen-addr")
	require.NoError(t, err)
	require.Equal(t, ":9323", addr)

	host, err := flags.GetString("docker-host")
	require.NoError(t, err)
	require.Equal(t, engine.DefaultHost, host)

	timeout, err := flags.GetString("timeout")
	require.NoError(t, err)
	require.Equal(t, "10s", timeout)
}

func TestRootCmdRejectsBadTimeout(t *testing.T) {
	t.Setenv("DOCKER_TIMEOUT", "soon")

	cmd := newRootCmd()
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), `parsing timeout "soon"`)
}
