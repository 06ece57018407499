package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vitalvas/restdoc/manifest"
	"github.com/vitalvas/restdoc/openapi"
	"github.com/vitalvas/restdoc/resource"
)

// BuildConfig holds the inputs of the build command.
type BuildConfig struct {
	Manifest string
	Output   string
	Format   string
	Verbose  bool
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the OpenAPI document for a manifest",
		Example: strings.TrimSpace(`  restdoc build -f api.yaml
  restdoc build -f api.yaml -o openapi.yaml`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveBuildConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runBuild(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringP("file", "f", "", "Manifest file")
	flags.StringP("output", "o", "", "Output file (default: stdout)")
	flags.String("format", "", "Output format: json or yaml (default: from output extension, else json)")

	return cmd
}

func resolveBuildConfig(flags *pflag.FlagSet) (*BuildConfig, error) {
	var cfg BuildConfig
	var err error

	if cfg.Manifest, err = flags.GetString("file"); err != nil {
		return nil, err
	}
	if cfg.Output, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *BuildConfig) normalize() {
	c.Manifest = strings.TrimSpace(c.Manifest)
	c.Output = strings.TrimSpace(c.Output)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))

	if c.Format == "" {
		switch strings.ToLower(filepath.Ext(c.Output)) {
		case ".yaml", ".yml":
			c.Format = "yaml"
		default:
			c.Format = "json"
		}
	}
}

func (c *BuildConfig) validate() error {
	if c.Manifest == "" {
		return newUsageError("build: --file is required")
	}
	switch c.Format {
	case "json", "yaml":
	default:
		return newUsageError(fmt.Sprintf("build: unsupported --format %q (allowed: json, yaml)", c.Format))
	}
	return nil
}

// loadDocument loads the manifest and reads its root classes.
func loadDocument(path string, logger io.Writer, verbose bool) (*openapi.Document, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	return m.Build(resource.WithLogger(newLogger(logger, verbose)))
}

func runBuild(cfg *BuildConfig, stdout, stderr io.Writer) error {
	doc, err := loadDocument(cfg.Manifest, stderr, cfg.Verbose)
	if err != nil {
		return err
	}

	var data []byte
	switch cfg.Format {
	case "yaml":
		data, err = openapi.MarshalYAML(doc)
	default:
		data, err = openapi.MarshalJSON(doc)
	}
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}

	if cfg.Output == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(cfg.Output, data, 0o644)
}
