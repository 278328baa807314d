package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"github.com/gompdf/smartprint/internal/state"
	"github.com/gompdf/smartprint/pkg/api"
)

var errNoSource = errors.New("no SOURCE specified")

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// destination resolves the output file for source. An empty dst or an
// existing directory receives a derived file name.
func destination(dst, title, source, ext string) string {
	if dst == "" {
		dst = "."
	}
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		return filepath.Join(dst, api.OutputName(title, source, ext))
	}
	return dst
}

// readSource returns the markup of source and the converter resolving its
// relative references
func readSource(ctx context.Context, conv *api.Converter, source string) (string, *api.Converter, error) {
	conv = conv.WithBase(source)
	if isURL(source) {
		r, err := conv.LoadHTML(ctx, source)
		if err != nil {
			return "", nil, fmt.Errorf("unable to load '%s': %w", source, err)
		}
		return r, conv, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", nil, fmt.Errorf("unable to read '%s': %w", source, err)
	}
	return string(data), conv, nil
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	source := cmd.Args().Get(0)
	if source == "" {
		return errNoSource
	}
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	markup, conv, err := readSource(ctx, env.Converter(), source)
	if err != nil {
		return err
	}

	pages, err := conv.Paginate(ctx, markup)
	if err != nil {
		return fmt.Errorf("unable to paginate '%s': %w", source, err)
	}
	out := destination(cmd.Args().Get(1), conv.Options().Title, source, ".pdf")
	if err := conv.WritePagesToFile(ctx, pages, out); err != nil {
		return err
	}
	env.Log.Info("Converted", zap.String("source", source), zap.String("destination", out), zap.Int("pages", len(pages)))

	if dir := cmd.String("preview"); dir != "" {
		thumbnail := int(cmd.Int("thumbnail"))
		if !cmd.IsSet("thumbnail") && env.Cfg != nil {
			thumbnail = env.Cfg.Document.Preview.Thumbnail
		}
		paths, err := conv.Preview(ctx, markup, dir, thumbnail)
		if err != nil {
			return fmt.Errorf("unable to write preview: %w", err)
		}
		env.Log.Info("Preview written", zap.String("dir", dir), zap.Int("pages", len(paths)))
	}
	return nil
}

func runPages(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	source := cmd.Args().Get(0)
	if source == "" {
		return errNoSource
	}
	markup, conv, err := readSource(ctx, env.Converter(), source)
	if err != nil {
		return err
	}
	pages, err := conv.Paginate(ctx, markup)
	if err != nil {
		return fmt.Errorf("unable to paginate '%s': %w", source, err)
	}

	var data []byte
	switch format := strings.ToLower(cmd.String("format")); format {
	case "json":
		data, err = json.MarshalIndent(pages, "", "  ")
	case "yaml", "yml":
		data, err = yaml.Marshal(pages)
	default:
		return fmt.Errorf("unknown output format '%s'", format)
	}
	if err != nil {
		return fmt.Errorf("unable to encode pages: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}
