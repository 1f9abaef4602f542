package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	metrics "github.com/hashicorp/go-metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	log "github.com/CefBoud/minikafka/logging"
	"github.com/CefBoud/minikafka/protocol"
	"github.com/CefBoud/minikafka/types"
)

// Version information set at build time.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "minikafka",
		Short:         "A Kafka wire-protocol endpoint answering ApiVersions and DescribeTopicPartitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	config := types.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the broker",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// flags given on the command line win over the environment
			fromEnv := types.DefaultConfig()
			if err := fromEnv.ApplyEnv(os.LookupEnv); err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				config.BrokerPort = fromEnv.BrokerPort
			}
			if !cmd.Flags().Changed("log-level") {
				config.LogLevel = fromEnv.LogLevel
			}
			return config.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), &config)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&config.BrokerHost, "host", config.BrokerHost, "address to bind")
	flags.Uint32Var(&config.BrokerPort, "port", config.BrokerPort, "port to listen on")
	flags.Int32Var(&config.MaxMessageSize, "max-message-size", config.MaxMessageSize, "largest accepted request frame in bytes")
	flags.StringVar(&config.LogLevel, "log-level", config.LogLevel, "DEBUG, INFO, WARN or ERROR")
	flags.StringVar(&config.MetricsAddr, "metrics-addr", config.MetricsAddr, "address of the Prometheus /metrics endpoint, disabled when empty")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "minikafka %s\n", version)
		},
	}
}

func serve(parent context.Context, config *types.Configuration) error {
	if err := log.SetLogLevel(config.LogLevel); err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink metrics.MetricSink
	if config.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		promSink, err := protocol.NewPrometheusSink(registry)
		if err != nil {
			return err
		}
		sink = promSink

		mux := http.NewServeMux()
		mux.Handle("/metrics", protocol.MetricsHandler(registry))
		server := &http.Server{Addr: config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info("metrics endpoint listening on %s", config.MetricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics endpoint failed: %v", err)
			}
		}()
		defer server.Close()
	}

	broker, err := protocol.NewBroker(config, sink)
	if err != nil {
		return err
	}
	return broker.ListenAndServe(ctx)
}
