package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var configPath string

func processError(err error) {
	fmt.Println(err.Error())
	os.Exit(2)
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		processError(err)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dogimages",
		Short:         "Browse dog breed images from the dog.ceo API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+defaultConfigFile+")")
	root.AddCommand(serveCmd(), breedsCmd(), imagesCmd(), userAddCmd())
	return root
}

type App struct {
	Config   Config
	Store    *Store
	Registry *prometheus.Registry
	Metrics  *Metrics
	Api      *DogApi
	Cache    *ReqCache
}

func openApp() (*App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(&cfg)
	if err != nil {
		return nil, err
	}
	registry := prometheus.NewRegistry()
	metrics, err := NewMetrics(registry)
	if err != nil {
		store.Close()
		return nil, err
	}
	reqCache := NewReqCache(store, metrics)
	return &App{
		Config:   cfg,
		Store:    store,
		Registry: registry,
		Metrics:  metrics,
		Api:      NewDogApi(&cfg, reqCache, metrics),
		Cache:    reqCache,
	}, nil
}

func (app *App) Close() error {
	return app.Store.Close()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			sessions := NewSessions(time.Duration(app.Config.Server.SessionTTL)*time.Second, 1024, func() *Form {
				return NewForm(app.Api, app.Metrics)
			})
			if app.Config.Server.RequireAuth && !app.Store.HasUsers() {
				return errors.New("server.requireAuth is set but no users exist; add one with `dogimages useradd`")
			}
			srv := NewServer(&app.Config, sessions, app.Store, app.Registry)
			return serve(cmd.Context(), app, srv.Handler())
		},
	}
}

func serve(ctx context.Context, app *App, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              app.Config.Server.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Println("Starting Server on", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return app.Cache.purgeExpired(ctx, time.Hour)
	})
	return g.Wait()
}
