package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/bitgo/docker-engine-exporter/internal/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"github.com/spf13/cobra"
)

const programName = "docker_engine_exporter"

type config struct {
	listenAddr  string
	dockerHost  string
	apiVersion  string
	timeoutFlag string
	timeout     time.Duration
	showVersion bool
}

// envOr returns the value of the environment variable key, or def if it is
// unset or empty.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	var cfg config

	cmd := &cobra.Command{
		Use:           "docker-engine-exporter",
		Short:         "Prometheus exporter for the Docker Engine API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.showVersion {
				fmt.Println(version.Print(programName))
				return nil
			}

			timeout, err := time.ParseDuration(cfg.timeoutFlag)
			if err != nil {
				return fmt.Errorf("parsing timeout %q: %w", cfg.timeoutFlag, err)
			}
			cfg.timeout = timeout

			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.listenAddr, "listen-addr", envOr("EXPORTER_LISTEN_ADDR", ":9323"), "address to serve metrics on")
	flags.StringVar(&cfg.dockerHost, "docker-host", envOr("DOCKER_HOST", engine.DefaultHost), "Docker daemon address")
	flags.StringVar(&cfg.apiVersion, "api-version", os.Getenv("DOCKER_API_VERSION"), "Docker Engine API version to pin requests to")
	flags.StringVar(&cfg.timeoutFlag, "timeout", envOr("DOCKER_TIMEOUT", "10s"), "timeout for each Docker Engine API request")
	flags.BoolVar(&cfg.showVersion, "version", false, "print version information and exit")

	return cmd
}

func run(cfg config) error {
	opts := []engine.Option{engine.WithTimeout(cfg.timeout)}
	if cfg.apiVersion != "" {
		opts = append(opts, engine.WithAPIVersion(cfg.apiVersion))
	}

	api, err := engine.NewClient(cfg.dockerHost, opts...)
	if err != nil {
		return fmt.Errorf("creating Docker Engine client: %w", err)
	}

	apiVersion, err := api.Ping(context.Background())
	if err != nil {
		return fmt.Errorf("pinging Docker daemon at %s: %w", cfg.dockerHost, err)
	}
	log.Printf("Connected to Docker daemon at %s (API %s)", cfg.dockerHost, apiVersion)

	prometheus.MustRegister(version.NewCollector(programName))
	prometheus.MustRegister(newEngineCollector(api, cfg.timeout))

	http.Handle("/metrics", promhttp.Handler())
	log.Printf("Listening on %s", cfg.listenAddr)
	return http.ListenAndServe(cfg.listenAddr, nil)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
