package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samels-litmus/i3X-Explorer/internal/api"
	"github.com/samels-litmus/i3X-Explorer/internal/archive"
	"github.com/samels-litmus/i3X-Explorer/internal/config"
	"github.com/samels-litmus/i3X-Explorer/internal/feed"
	"github.com/samels-litmus/i3X-Explorer/internal/metrics"
	"github.com/samels-litmus/i3X-Explorer/internal/models"
	"github.com/samels-litmus/i3X-Explorer/internal/session"
	"github.com/samels-litmus/i3X-Explorer/internal/store"
)

// Command i3x-explorer browses an i3X industrial-data server and watches
// live values over a push stream or a poll loop.
//
// Usage:
//
//	i3x-explorer [flags] <command> [args]
//
// The commands are:
//
//	namespaces             list namespaces
//	types [namespaceUri]   list object types
//	objects <typeId>       list objects of a type
//	value <elementId>...   fetch the last value per element
//	history <elementId>    fetch the past hour of values
//	subscriptions          list server-side subscriptions
//	watch <elementId>...   subscribe and render live values (default)
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
//	-mode string
//	      override the feed mode ("stream" or "poll")
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	modeOverride := flag.String("mode", "", `override the feed mode ("stream" or "poll")`)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *modeOverride != "" {
		cfg.Feed.Mode = *modeOverride
	}

	logger := newLogger(cfg.Logging)

	m := metrics.New()
	if cfg.Metrics.Enabled {
		go func() {
			addr := fmt.Sprintf("127.0.0.1:%d", cfg.Metrics.Port)
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			logger.WithField("addr", addr).Info("metrics listener started")
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.WithError(err).Warn("metrics listener stopped")
			}
		}()
	}

	clientCfg := api.DefaultClientConfig(cfg.Server.BaseURL, credentials(cfg.Server))
	clientCfg.Logger = logger
	clientCfg.Metrics = m
	client, err := api.NewClient(clientCfg)
	if err != nil {
		logger.Fatalf("Failed to create client: %v", err)
	}

	command, args := "watch", flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	ctx := context.Background()
	switch command {
	case "namespaces":
		err = listNamespaces(ctx, client)
	case "types":
		err = listTypes(ctx, client, args)
	case "objects":
		err = listObjects(ctx, client, args)
	case "value":
		err = showValues(ctx, client, args, cfg.Feed.MaxDepth)
	case "history":
		err = showHistory(ctx, client, args, cfg.Feed.MaxDepth)
	case "subscriptions":
		err = listSubscriptions(ctx, client)
	case "watch":
		err = watch(client, cfg, logger, m, args)
	default:
		err = fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		logger.Fatalf("%s failed: %v", command, err)
	}
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

func credentials(cfg config.ServerConfig) api.Credentials {
	return api.Credentials{
		Kind:     api.CredentialKind(cfg.AuthKind),
		Username: cfg.Username,
		Password: cfg.Password,
		Token:    cfg.Token,
	}
}

func listNamespaces(ctx context.Context, client *api.Client) error {
	namespaces, err := client.Namespaces(ctx)
	if err != nil {
		return err
	}
	for _, ns := range namespaces {
		fmt.Printf("%-40s %s\n", ns.URI, ns.DisplayName)
	}
	return nil
}

func listTypes(ctx context.Context, client *api.Client, args []string) error {
	namespaceURI := ""
	if len(args) > 0 {
		namespaceURI = args[0]
	}
	types, err := client.ObjectTypes(ctx, namespaceURI)
	if err != nil {
		return err
	}
	for _, t := range types {
		fmt.Printf("%-30s %-30s %s\n", t.ElementID, t.DisplayName, t.NamespaceURI)
	}
	return nil
}

func listObjects(ctx context.Context, client *api.Client, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: objects <typeId>")
	}
	objects, err := client.Objects(ctx, args[0], false)
	if err != nil {
		return err
	}
	for _, o := range objects {
		fmt.Printf("%-30s %s\n", o.ElementID, o.DisplayName)
	}
	return nil
}

func showValues(ctx context.Context, client *api.Client, elementIDs []string, maxDepth int) error {
	if len(elementIDs) == 0 {
		return fmt.Errorf("usage: value <elementId>...")
	}
	values, err := client.LastValues(ctx, elementIDs, maxDepth)
	if err != nil {
		return err
	}
	for _, elementID := range elementIDs {
		vqt, ok := values[elementID]
		if !ok {
			fmt.Printf("%-30s <no value>\n", elementID)
			continue
		}
		fmt.Printf("%-30s %v  [%s]  %s\n", elementID, vqt.Value, vqt.Quality, vqt.Timestamp)
	}
	return nil
}

func showHistory(ctx context.Context, client *api.Client, args []string, maxDepth int) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: history <elementId>")
	}
	end := time.Now()
	history, err := client.History(ctx, models.HistoryRequest{
		ElementIDs: args[:1],
		StartTime:  end.Add(-time.Hour),
		EndTime:    end,
		MaxDepth:   maxDepth,
	})
	if err != nil {
		return err
	}
	for _, vqt := range history[args[0]] {
		fmt.Printf("%-28s %v  [%s]\n", vqt.Timestamp, vqt.Value, vqt.Quality)
	}
	return nil
}

func listSubscriptions(ctx context.Context, client *api.Client) error {
	subs, err := client.Subscriptions(ctx)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		fmt.Printf("%-36s %s\n", sub.ID, sub.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func watch(client *api.Client, cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics, elementIDs []string) error {
	if len(elementIDs) == 0 {
		return fmt.Errorf("usage: watch <elementId>...")
	}

	liveStore := store.NewLiveStore(logger)

	sessionCfg := session.Config{
		API:   client,
		Store: liveStore,
		Factory: session.NewTransportFactory(client, feed.Options{
			PollInterval:  cfg.Feed.PollInterval,
			ReconnectBase: cfg.Feed.ReconnectBase,
			MaxReconnects: cfg.Feed.MaxReconnectAttempts,
		}, logger, m),
		MaxDepth: cfg.Feed.MaxDepth,
		Logger:   logger,
		Metrics:  m,
	}
	if cfg.Archive.Enabled {
		pg, err := archive.NewPostgresArchive(cfg.Archive.ConnString(), logger)
		if err != nil {
			return fmt.Errorf("failed to open trend archive: %w", err)
		}
		defer pg.Close()
		sessionCfg.Archive = pg
	}

	s, err := session.NewSession(sessionCfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	sub, err := s.Create(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Delete(context.Background(), sub.ID); err != nil {
			logger.WithError(err).Warn("failed to delete subscription")
		}
	}()

	if err := s.Register(ctx, sub.ID, elementIDs); err != nil {
		return err
	}
	resolveDisplayNames(ctx, client, liveStore, elementIDs)

	if err := s.StartFeed(ctx, sub.ID, feed.Mode(cfg.Feed.Mode)); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			render(liveStore, elementIDs)
		case <-sig:
			fmt.Println()
			return nil
		}
	}
}

// resolveDisplayNames is best effort: elements without a browsable object
// simply render under their raw identity.
func resolveDisplayNames(ctx context.Context, client *api.Client, liveStore *store.LiveStore, elementIDs []string) {
	for _, elementID := range elementIDs {
		obj, err := client.Object(ctx, elementID, false)
		if err != nil || obj.DisplayName == "" {
			continue
		}
		liveStore.SetDisplayName(elementID, obj.DisplayName)
	}
}

func render(liveStore *store.LiveStore, elementIDs []string) {
	var b strings.Builder
	for _, elementID := range elementIDs {
		lv, ok := liveStore.Value(elementID)
		if !ok {
			fmt.Fprintf(&b, "%-30s <waiting>\n", elementID)
			continue
		}
		trend := liveStore.Trend(elementID)
		fmt.Fprintf(&b, "%-30s %v  [%s]  %s  (%d trend pts)\n",
			lv.DisplayName, lv.VQT.Value, lv.VQT.Quality,
			lv.LastUpdated.Format("15:04:05"), len(trend))
	}
	fmt.Print(b.String())
}
