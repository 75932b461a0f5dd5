package main

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bitgo/docker-engine-exporter/internal/engine"
	"github.com/prometheus/client_golang/prometheus"
)

// eventPeriod is the window of time, ending at the moment of the scrape, for
// which daemon events are counted.
const eventPeriod = 1 * time.Minute

var (
	eventsDesc = prometheus.NewDesc(
		"docker_engine_events",
		"Docker Engine events, obtained via the events API",
		[]string{"type", "action"},
		prometheus.Labels{
			"period": promDurationString(eventPeriod),
		},
	)

	containersDesc = prometheus.NewDesc(
		"docker_engine_containers",
		"Number of containers known to the Docker Engine, by state",
		[]string{"state"},
		nil,
	)
)

// newAPIErrorsCounter creates the counter of failed engine API calls. Every
// failure is counted. Whether one is worth retrying is left to whoever reads
// the metric.
func newAPIErrorsCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docker_engine_api_errors_total",
			Help: "The total number of failed Docker Engine API calls",
		},
		[]string{"operation", "kind"},
	)
}

// engineAPI is the part of *engine.Client the collector uses.
type engineAPI interface {
	ContainerList(ctx context.Context, all bool) ([]engine.Container, error)
	Events(ctx context.Context, since, until time.Time, fn func(engine.Event) error) error
}

type eventKey struct {
	eventType string
	action    string
}

// engineCollector is an implementation of prometheus.Collector which reads
// from the Docker Engine API and produces aggregated metrics.
type engineCollector struct {
	api       engineAPI
	timeout   time.Duration
	apiErrors *prometheus.CounterVec
	now       func() time.Time
}

// newEngineCollector creates a new engineCollector based on the provided
// engineAPI. Each scrape is bounded by timeout.
func newEngineCollector(api engineAPI, timeout time.Duration) *engineCollector {
	return &engineCollector{
		api:       api,
		timeout:   timeout,
		apiErrors: newAPIErrorsCounter(),
		now:       time.Now,
	}
}

// Describe sends the descriptors of every metric the collector can emit,
// including the error counter.
func (c *engineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- eventsDesc
	ch <- containersDesc
	c.apiErrors.Describe(ch)
}

// Collect queries the events window and the container list side by side,
// sharing one deadline per scrape, and emits whatever succeeded followed by
// the error counter. A failed query is logged and counted under its operation
// and the kind of failure; its metric is simply absent from this scrape.
func (c *engineCollector) Collect(ch chan<- prometheus.Metric) {
	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	end := c.now()
	start := end.Add(-1 * eventPeriod)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		c.collectEvents(ctx, ch, start, end)
	}()

	go func() {
		defer wg.Done()
		c.collectContainers(ctx, ch)
	}()

	wg.Wait()

	c.apiErrors.Collect(ch)
}

func (c *engineCollector) collectEvents(ctx context.Context, ch chan<- prometheus.Metric, start, end time.Time) {
	events := make(map[eventKey]float64)

	err := c.api.Events(ctx, start, end, func(e engine.Event) error {
		events[eventKey{e.Type, e.Action}]++
		return nil
	})
	if err != nil {
		c.recordError("events", err)
		return
	}

	for key, count := range events {
		ch <- prometheus.MustNewConstMetric(
			eventsDesc,
			prometheus.GaugeValue,
			count,
			key.eventType,
			key.action,
		)
	}
}

func (c *engineCollector) collectContainers(ctx context.Context, ch chan<- prometheus.Metric) {
	containers, err := c.api.ContainerList(ctx, true)
	if err != nil {
		c.recordError("containerList", err)
		return
	}

	states := make(map[string]float64)
	for _, container := range containers {
		states[container.State]++
	}

	for state, count := range states {
		ch <- prometheus.MustNewConstMetric(
			containersDesc,
			prometheus.GaugeValue,
			count,
			state,
		)
	}
}

func (c *engineCollector) recordError(operation string, err error) {
	labels := prometheus.Labels{
		"operation": operation,
		"kind":      engine.KindOf(err).String(),
	}
	c.apiErrors.With(labels).Inc()

	// The rendering of a fault leaves out the daemon's message.
	var e *engine.Error
	if errors.As(err, &e) && e.Kind() == engine.KindFault && e.Message() != "" {
		log.Printf("%s: %s: %s", operation, err, e.Message())
		return
	}
	log.Printf("%s: %s", operation, err)
}

// durationUnits lists the units of a Prometheus duration, largest first.
var durationUnits = []struct {
	suffix string
	size   time.Duration
}{
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
	{"ms", time.Millisecond},
}

// promDurationString formats d as Prometheus writes durations, such as "1m"
// or "1s500ms". Zero units are left out and anything below a millisecond is
// dropped.
func promDurationString(d time.Duration) string {
	var b strings.Builder
	for _, unit := range durationUnits {
		if n := d / unit.size; n > 0 {
			b.WriteString(strconv.FormatInt(int64(n), 10))
			b.WriteString(unit.suffix)
			d -= n * unit.size
		}
	}
	return b.String()
}
