package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/haledesignstudio/Pollen/internal/config"
	"github.com/haledesignstudio/Pollen/internal/logger"
	"github.com/haledesignstudio/Pollen/internal/proxy"
)

var (
	flagServeAddr   string
	flagServeLambda bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monthly-performance proxy",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running proxy",
	RunE:  runServeStatus,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().BoolVar(&flagServeLambda, "lambda", false, "Serve AWS Lambda API Gateway events instead of HTTP")

	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr() string {
	if flagServeAddr != "" {
		return flagServeAddr
	}
	return cfg.Server.Addr
}

func runServe(_ *cobra.Command, _ []string) error {
	if err := initLogging(""); err != nil {
		return err
	}
	log := logger.Log

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Missing upstream settings are reported per request, not at startup.
	url, err := config.GetUpstreamURL(cfg)
	if err != nil {
		log.Warn("upstream url not configured", zap.Error(err))
	}
	token, err := config.GetUpstreamToken(ctx, cfg, nil)
	if err != nil {
		log.Warn("upstream token not configured", zap.Error(err))
	}

	srv := proxy.New(proxy.Config{
		Addr:           serveAddr(),
		UpstreamURL:    url,
		UpstreamToken:  token,
		Timeout:        cfg.UpstreamTimeout(),
		RequestsPerSec: cfg.Server.RequestsPerSec,
		Burst:          cfg.Server.Burst,
		AllowOrigins:   cfg.Server.AllowOrigins,
		Logger:         log,
	})

	if flagServeLambda {
		log.Info("starting lambda handler")
		proxy.StartLambda(srv)
		return nil
	}

	fmt.Printf("  pollen proxy listening on http://%s\n", serveAddr())
	fmt.Printf("  Route: %s\n", proxy.PerformancePath)
	fmt.Printf("  Status: http://%s%s\n", serveAddr(), proxy.StatusPath)

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(_ *cobra.Command, _ []string) error {
	addr := serveAddr()
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + proxy.StatusPath) //nolint:noctx // short status probe
	if err != nil {
		fmt.Printf("  Proxy: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  Proxy: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st proxy.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  Proxy: malformed response (%v)\n", err)
		return nil
	}

	fmt.Printf("  Started: %s\n", st.StartedAt.Local().Format(time.RFC3339))
	fmt.Printf("  Upstream configured: %v\n", st.UpstreamConfigured)
	fmt.Printf("  Requests: %d\n", st.Requests)
	fmt.Printf("  Upstream failures: %d\n", st.UpstreamFailures)
	if st.LastSuccessAt.IsZero() {
		fmt.Printf("  Last success: never\n")
	} else {
		fmt.Printf("  Last success: %s\n", st.LastSuccessAt.Local().Format(time.RFC3339))
	}
	if st.LastUpstreamStatus != 0 {
		fmt.Printf("  Last upstream status: %d\n", st.LastUpstreamStatus)
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}
