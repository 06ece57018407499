package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vitalvas/restdoc/openapi"
)

// ServeConfig holds the inputs of the serve command.
type ServeConfig struct {
	Manifest string
	Addr     string
	BasePath string
	UI       string
	Verbose  bool
}

var docsUIs = map[string]openapi.DocsUI{
	"swagger": openapi.DocsSwaggerUI,
	"rapidoc": openapi.DocsRapiDoc,
	"redoc":   openapi.DocsRedoc,
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the OpenAPI document and an interactive docs UI",
		Example: strings.TrimSpace(`  restdoc serve -f api.yaml
  restdoc serve -f api.yaml --addr :9000 --base /docs --ui redoc`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveServeConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringP("file", "f", "", "Manifest file")
	flags.String("addr", ":8080", "Listen address")
	flags.String("base", "/docs", "Base path of the docs endpoints")
	flags.String("ui", "swagger", "Docs UI: swagger, rapidoc or redoc")

	return cmd
}

func resolveServeConfig(flags *pflag.FlagSet) (*ServeConfig, error) {
	var cfg ServeConfig
	var err error

	if cfg.Manifest, err = flags.GetString("file"); err != nil {
		return nil, err
	}
	if cfg.Addr, err = flags.GetString("addr"); err != nil {
		return nil, err
	}
	if cfg.BasePath, err = flags.GetString("base"); err != nil {
		return nil, err
	}
	if cfg.UI, err = flags.GetString("ui"); err != nil {
		return nil, err
	}
	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return nil, err
	}

	cfg.Manifest = strings.TrimSpace(cfg.Manifest)
	cfg.UI = strings.ToLower(strings.TrimSpace(cfg.UI))

	if cfg.Manifest == "" {
		return nil, newUsageError("serve: --file is required")
	}
	if _, ok := docsUIs[cfg.UI]; !ok {
		return nil, newUsageError(fmt.Sprintf("serve: unsupported --ui %q (allowed: swagger, rapidoc, redoc)", cfg.UI))
	}
	return &cfg, nil
}

// newServeHandler builds the document and the mux serving it.
func newServeHandler(cfg *ServeConfig, logOut io.Writer) (http.Handler, error) {
	doc, err := loadDocument(cfg.Manifest, logOut, cfg.Verbose)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	openapi.Handle(mux, cfg.BasePath, doc, &openapi.HandleConfig{UI: docsUIs[cfg.UI]})
	return openapi.RequestID(mux), nil
}

func runServe(ctx context.Context, cfg *ServeConfig, logOut io.Writer) error {
	handler, err := newServeHandler(cfg, logOut)
	if err != nil {
		return err
	}

	logger := newLogger(logOut, cfg.Verbose)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("serving docs", "addr", cfg.Addr, "base", cfg.BasePath)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
