package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"github.com/gompdf/smartprint/pkg/api"
)

// AppName names the logger and temporary files
const AppName = "smartprint"

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	MarginConfig struct {
		Top    float64 `yaml:"top" validate:"gte=0"`
		Right  float64 `yaml:"right" validate:"gte=0"`
		Bottom float64 `yaml:"bottom" validate:"gte=0"`
		Left   float64 `yaml:"left" validate:"gte=0"`
	}

	PreviewConfig struct {
		DPI       float64 `yaml:"dpi" validate:"gt=0"`
		Thumbnail int     `yaml:"thumbnail" validate:"gte=0"`
	}

	DocumentConfig struct {
		Paper            string        `yaml:"paper" validate:"omitempty,oneof=a4 letter legal"`
		Width            float64       `yaml:"width" validate:"gte=0"`
		Height           float64       `yaml:"height" validate:"gte=0"`
		Orientation      string        `yaml:"orientation" validate:"oneof=portrait landscape"`
		Margins          string        `yaml:"margins" validate:"omitempty,oneof=normal narrow wide"`
		Margin           *MarginConfig `yaml:"margin,omitempty"`
		ParagraphSpacing float64       `yaml:"paragraph_spacing" validate:"gte=0"`
		ImageTimeout     time.Duration `yaml:"image_timeout" validate:"gte=0"`
		Debounce         time.Duration `yaml:"debounce" validate:"gte=0"`
		ResourcePaths    []string      `yaml:"resource_paths" validate:"dive,required"`
		FontDirs         []string      `yaml:"font_dirs" validate:"dive,required"`
		Header           string        `yaml:"header"`
		Footer           string        `yaml:"footer"`
		Cover            string        `yaml:"cover"`
		Title            string        `yaml:"title"`
		Author           string        `yaml:"author"`
		Preview          PreviewConfig `yaml:"preview"`
	}

	Config struct {
		Version  int            `yaml:"version" validate:"eq=1"`
		Document DocumentConfig `yaml:"document"`
		Logging  LoggingConfig  `yaml:"logging"`
	}
)

const (
	// NOTE: must match yaml field names above, page templates use their own
	// placeholders and are never expanded
	HeaderFieldName TemplateFieldName = "header"
	FooterFieldName TemplateFieldName = "footer"
	CoverFieldName  TemplateFieldName = "cover"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(HeaderFieldName)),
	gencfg.WithDoNotExpandField(string(FooterFieldName)),
	gencfg.WithDoNotExpandField(string(CoverFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are accepted
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of the expanded configuration template and
// performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates the default configuration from the template
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// Options converts the document section into converter options. Explicit
// sizes and margins win over presets.
func (c *Config) Options() []api.Option {
	d := c.Document
	opts := []api.Option{
		api.WithPaper(d.Paper),
		api.WithPageOrientation(api.PageOrientation(d.Orientation)),
		api.WithMarginPreset(d.Margins),
		api.WithParagraphSpacing(d.ParagraphSpacing),
		api.WithImageTimeout(d.ImageTimeout),
		api.WithDebounce(d.Debounce),
		api.WithDPI(d.Preview.DPI),
		api.WithHeader(d.Header),
		api.WithFooter(d.Footer),
		api.WithCover(d.Cover),
		api.WithTitle(d.Title),
		api.WithAuthor(d.Author),
	}
	if d.Width > 0 && d.Height > 0 {
		opts = append(opts, api.WithPageSize(d.Width, d.Height))
	}
	if m := d.Margin; m != nil {
		opts = append(opts, api.WithMargins(m.Top, m.Right, m.Bottom, m.Left))
	}
	for _, p := range d.ResourcePaths {
		opts = append(opts, api.WithResourcePath(p))
	}
	for _, dir := range d.FontDirs {
		opts = append(opts, api.WithFontDirectory(dir))
	}
	return opts
}
