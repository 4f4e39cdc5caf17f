package cmd

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rubiojr/hayao/pkg/api"
	"github.com/rubiojr/hayao/pkg/config"
	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/highlight"
	"github.com/rubiojr/hayao/pkg/log"
	"github.com/rubiojr/hayao/pkg/query"
	"github.com/rubiojr/hayao/pkg/search"
	"github.com/rubiojr/hayao/pkg/version"
	"github.com/rubiojr/hayao/pkg/warehouse"
	"github.com/urfave/cli/v3"
)

//go:embed web/templates/index.html
var indexTemplate string

// WebCommand creates the web command with both API and UI
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start web server with both API endpoints and HTML interface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on",
				Value: "8080",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to",
				Value: "localhost",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Rebuild the index when a local source file changes",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Read remote sources from the download cache instead of the network",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.Bool("watch") {
				cfg.Watch = true
			}
			return startWebServer(ctx, cfg, c.Bool("offline"), c.String("host"), c.String("port"))
		},
	}
}

// WebServer serves the search page on top of the JSON API.
type WebServer struct {
	warehouse     *warehouse.Warehouse
	searchService *search.Service
	apiServer     *api.Server
	template      *template.Template
	logger        *log.Logger
}

// NewWebServer wires the HTML interface and the API to wh.
func NewWebServer(wh *warehouse.Warehouse, maxResults int) (*WebServer, error) {
	tmpl, err := template.New("index").Funcs(template.FuncMap{
		// Highlighted values are escaped by highlight.HTML before markers
		// are inserted.
		"marked": func(s string) template.HTML { return template.HTML(s) },
	}).Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	return &WebServer{
		warehouse:     wh,
		searchService: search.NewSearchService(wh, highlight.HTML, maxResults),
		apiServer:     api.NewServer(wh, maxResults),
		template:      tmpl,
		logger:        log.ForService("web"),
	}, nil
}

// Handler returns the routes of the page and the API.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.apiServer.RegisterRoutes(mux)
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	return api.CorsMiddleware(mux)
}

func startWebServer(ctx context.Context, cfg *config.Config, offline bool, host, port string) error {
	logger := log.ForService("web")

	src, err := createSourceFromConfig(cfg, offline)
	if err != nil {
		return err
	}
	wh := newWarehouse(cfg, src)
	defer closeWarehouse(wh)

	// A missing index is built now so the first search does not wait. A
	// failure is not fatal: the page reports it and the next search retries.
	if err := wh.EnsureReady(ctx); err != nil {
		logger.Warnf("index not ready: %v", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Watch {
		if w, ok := src.(core.Watchable); ok {
			if err := wh.Watch(ctx, w.WatchPath(), warehouse.DefaultDebounce); err != nil {
				return fmt.Errorf("watching source: %w", err)
			}
		} else {
			logger.Warnf("%s sources cannot be watched, ignoring watch", src.Type())
		}
	}

	if cfg.RefreshAt != "" {
		stop, err := wh.Schedule(cfg.RefreshAt)
		if err != nil {
			return err
		}
		defer stop()
	}

	webServer, err := NewWebServer(wh, cfg.MaxResults)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", host, port),
		Handler: webServer.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting web server on http://%s:%s", host, port)
		logger.Infof("Available endpoints:")
		logger.Infof("  GET  /             - Search page")
		logger.Infof("  POST /refresh      - Rebuild the index and return to the page")
		logger.Infof("  GET  /api/search   - Search (q, limit)")
		logger.Infof("  POST /api/refresh  - Rebuild the index")
		logger.Infof("  GET  /api/status   - Index status")
		logger.Infof("  GET  /api/events   - Lifecycle events (websocket)")
		logger.Infof("  GET  /health       - Health check")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Infof("Shutting down web server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

type pageData struct {
	Query   string
	Results *search.SearchResults
	Error   string
	Status  warehouse.Status
	Version string
}

func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	data := pageData{Query: r.URL.Query().Get("q")}
	status := http.StatusOK

	res, err := s.searchService.Search(r.Context(), search.SearchParams{Query: data.Query})
	switch {
	case err == nil:
		data.Results = res
		data.Query = res.Query
	case errors.Is(err, search.ErrEmptyQuery):
	default:
		status, data.Error = pageError(err)
		if status == http.StatusInternalServerError {
			s.logger.Errorf("search %q failed: %v", data.Query, err)
		}
	}

	s.render(w, status, data)
}

func (s *WebServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	q := r.FormValue("q")
	if err := s.warehouse.Refresh(r.Context(), warehouse.ReasonRefresh); err != nil {
		s.logger.Errorf("refresh failed: %v", err)
		s.render(w, http.StatusServiceUnavailable, pageData{
			Query: q,
			Error: fmt.Sprintf("Refresh failed: %v", err),
		})
		return
	}

	target := "/"
	if q != "" {
		target = "/?q=" + url.QueryEscape(q)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *WebServer) render(w http.ResponseWriter, status int, data pageData) {
	data.Status = s.warehouse.Status()
	data.Version = version.BuildVersion()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.template.Execute(w, data); err != nil {
		s.logger.Errorf("rendering page: %v", err)
	}
}

// pageError maps a search error to a status code and the banner text.
func pageError(err error) (int, string) {
	var (
		parseErr    *query.ParseError
		unavailable *core.SourceUnavailableError
	)
	switch {
	case errors.As(err, &parseErr):
		return http.StatusBadRequest, parseErr.Error()
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable, fmt.Sprintf("The data source is unavailable: %v", unavailable.Err)
	case errors.Is(err, warehouse.ErrNotReady):
		return http.StatusServiceUnavailable, "The index is not ready yet. Try again shortly."
	default:
		return http.StatusInternalServerError, fmt.Sprintf("Search failed: %v", err)
	}
}
