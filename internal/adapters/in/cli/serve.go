// internal/adapters/in/cli/serve.go
package cli

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpin "github.com/shnoopysol/gif-portal/internal/adapters/in/http"
	appcfg "github.com/shnoopysol/gif-portal/internal/infra/config"
)

const shutdownGrace = 25 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		host    string
		port    string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the portal page on HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
				if err != nil {
					log.Printf("[boot] WARN: could not open %s: %v", logFile, err)
				} else {
					defer f.Close()
					log.SetOutput(io.MultiWriter(os.Stdout, f))
					log.Printf("[boot] log output = stdout + %s", logFile)
				}
			}
			return a.serve(cmd.Context(), host, port)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen address (overrides http.host; use 0.0.0.0 to expose)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides http.port)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "also append logs to this file")
	return cmd
}

func (a *app) serve(ctx context.Context, host, port string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}

	// /healthz は DI が失敗しても返す
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cont, err := a.container(ctx); err != nil {
		log.Printf("[boot] WARN: di init failed: %v (serving /healthz only)", err)
	} else {
		mux.Handle("/", httpin.NewRouter(cont.RouterDeps()))
	}

	addr := listenAddr(cfg, host, port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// 送信と確認待ちを含むので書き込みは長めに取る
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	idleConnsClosed := make(chan struct{})
	go func() {
		<-sigCtx.Done()
		log.Printf("[boot] shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[boot] server shutdown error: %v", err)
		}
		close(idleConnsClosed)
	}()

	log.Printf("[boot] listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-idleConnsClosed
	log.Printf("[boot] server stopped")
	return nil
}

// listenAddr joins host and port, flags first, then http.host / http.port.
func listenAddr(cfg *appcfg.Config, host, port string) string {
	if host == "" {
		host = cfg.HTTP.Host
	}
	if port == "" {
		port = cfg.HTTP.Port
	}
	if port == "" {
		port = "8080"
	}
	return net.JoinHostPort(host, port)
}
