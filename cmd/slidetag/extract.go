package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tsawler/slidetag"
	"github.com/tsawler/slidetag/render"
)

func newExtractCmd(g *globalOptions) *cobra.Command {
	var (
		outFormat string
		normalize bool
		maxSize   int64
	)

	cmd := &cobra.Command{
		Use:   "extract <file.pptx>",
		Short: "Print the tagged slides of a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			f, err := render.ParseFormat(outFormat)
			if err != nil {
				return err
			}
			r, err := resolver(cfg)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("max-size") {
				maxSize = cfg.Extraction.MaxDocumentBytes
			}
			ext := slidetag.Open(args[0]).Tags(r).MaxSize(maxSize)
			if normalize || cfg.Extraction.NormalizeUnicode {
				ext = ext.NormalizeUnicode()
			}

			slides, warnings, err := ext.Records()
			if err != nil {
				return err
			}
			for _, w := range warnings {
				slog.Warn("extraction warning", "slide", w.Slide, "message", w.Message)
			}
			return render.Write(cmd.OutOrStdout(), f, slides)
		},
	}

	cmd.Flags().StringVarP(&outFormat, "format", "f", "json", "output format: json, markdown or html")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "apply Unicode NFC normalisation to shape text")
	cmd.Flags().Int64Var(&maxSize, "max-size", 0, "reject documents larger than this many bytes (0 = no limit)")
	return cmd
}

func newTagsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "Print the tag mapping in effect as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			r, err := resolver(cfg)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(r.Mapping()); err != nil {
				return fmt.Errorf("encoding mapping: %w", err)
			}
			return enc.Close()
		},
	}
}
