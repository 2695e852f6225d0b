// Command slidetag extracts tagged slide text from PPTX files and serves
// extraction over HTTP and MCP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsawler/slidetag/internal/config"
	"github.com/tsawler/slidetag/tags"
)

var version = "dev"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	tagsFile   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "slidetag",
		Short:         "Extract semantically tagged text from PowerPoint presentations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./config.yaml if present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.tagsFile, "tags", "", "YAML tag mapping file (overrides extraction.tags_file)")

	root.AddCommand(
		newExtractCmd(opts),
		newTagsCmd(opts),
		newServeCmd(opts),
		newMCPCmd(opts),
	)
	return root
}

// load reads configuration, applies flag overrides and installs the
// process logger.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Application.LogLevel = o.logLevel
	}
	if o.tagsFile != "" {
		cfg.Extraction.TagsFile = o.tagsFile
	}

	// stdout carries command output and the MCP protocol, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Application.SlogLevel(),
	}))
	slog.SetDefault(logger)

	return cfg, nil
}

// resolver builds the resolver from the configured mapping file, or the
// default mapping when none is configured.
func resolver(cfg *config.Config) (*tags.Resolver, error) {
	if cfg.Extraction.TagsFile == "" {
		return tags.Default(), nil
	}
	m, err := tags.LoadMappingFile(cfg.Extraction.TagsFile)
	if err != nil {
		return nil, err
	}
	slog.Debug("tag mapping loaded", "file", cfg.Extraction.TagsFile, "entries", len(m))
	return tags.NewResolver(m), nil
}
