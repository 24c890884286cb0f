package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wagnerlima/promptmux/internal/server"
)

var (
	serveTransport string
	servePort      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server (stdio or streamable HTTP)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "stdio", "Transport mode: stdio or http")
	serveCmd.Flags().StringVar(&servePort, "port", "8081", "HTTP port (only used with --transport http)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(dataDir, settingsPath, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.deps())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go a.settings.Run(ctx)

	switch serveTransport {
	case "stdio":
		logger.Info("promptmux MCP server starting (stdio)", zap.String("data_dir", dataDir))
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case "http":
		addr := ":" + servePort
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		httpSrv := &http.Server{Addr: addr, Handler: handler}
		go func() {
			<-ctx.Done()
			_ = httpSrv.Shutdown(context.Background())
		}()
		logger.Info("promptmux MCP server listening", zap.String("addr", addr), zap.String("data_dir", dataDir))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (use stdio or http)", serveTransport)
	}
}
