package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/riskpad/riskpad/internal/obs"
)

var metricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Hold the session open and keep the access token fresh",
	Long: `Recovers the stored session, then runs the refresh scheduler until
interrupted. Flow metrics are served on the metrics address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		user := app.manager.CheckSession(cmd.Context())
		if user == nil {
			return fmt.Errorf("not signed in; run \"riskpad login\" first")
		}
		fmt.Printf("Watching session for %s\n", user.Email)

		app.manager.Scheduler().Start()
		defer app.manager.Scheduler().Stop()

		obs.Init()
		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})
		r.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              metricsAddr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("metrics server failed: %w", err)
				return
			}
			done <- nil
		}()

		// Session changes worth reporting while we wait.
		changes, unsubscribe := app.manager.Store().Subscribe()
		defer unsubscribe()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		for {
			select {
			case sig := <-quit:
				fmt.Printf("\nReceived %s, shutting down...\n", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					return fmt.Errorf("metrics server shutdown failed: %w", err)
				}
				return nil
			case err := <-done:
				return err
			case <-changes:
				if app.manager.Store().State().User == nil {
					return fmt.Errorf("session ended by the server; run \"riskpad login\" again")
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "127.0.0.1:9185", "Address for the health/metrics endpoint")
}
