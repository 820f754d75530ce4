package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"go-hybrid/pkg/blur"
	"go-hybrid/pkg/common"
	"go-hybrid/pkg/gray"
	"go-hybrid/pkg/hybrid"
)

const envPrefix = "HYBRID_"

// Config holds the entry point settings, keyed by HYBRID_* variables.
type Config struct {
	HighPath   string  `mapstructure:"HYBRID_HIGH"`
	LowPath    string  `mapstructure:"HYBRID_LOW"`
	OutputPath string  `mapstructure:"HYBRID_OUTPUT"`
	KernelSize int     `mapstructure:"HYBRID_KERNEL_SIZE"`
	Sigma      float64 `mapstructure:"HYBRID_SIGMA"`
	Method     string  `mapstructure:"HYBRID_METHOD"`
	Border     string  `mapstructure:"HYBRID_BORDER"`
	Detail     string  `mapstructure:"HYBRID_DETAIL"`
	RejectGray bool    `mapstructure:"HYBRID_REJECT_GRAY"`
	ResizeBase bool    `mapstructure:"HYBRID_RESIZE_BASE"`
	Workers    int     `mapstructure:"HYBRID_WORKERS"`
	TileRows   int     `mapstructure:"HYBRID_TILE_ROWS"`
	LogLevel   string  `mapstructure:"HYBRID_LOG_LEVEL"`
	StatsDir   string  `mapstructure:"HYBRID_STATS_DIR"`
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	return &Config{
		HighPath:   "image_high.png",
		LowPath:    "image_low.png",
		OutputPath: "image_hybrid.png",
		KernelSize: hybrid.DefaultKernelSize,
		Sigma:      hybrid.DefaultSigma,
		Method:     blur.Separable.String(),
		Border:     blur.Replicate.String(),
		Detail:     hybrid.DetailFromHigh.String(),
		Workers:    1,
		TileRows:   common.TILE_ROWS,
		LogLevel:   logrus.InfoLevel.String(),
	}
}

// LoadConfig reads the given .env files (".env" when none are named) and the
// process environment, the latter taking precedence. A missing .env file is
// only a warning.
func LoadConfig(filenames ...string) (*Config, error) {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	values := map[string]string{}
	for _, name := range filenames {
		fileValues, err := godotenv.Read(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logrus.Warnf("No %s file, using environment only", name)
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, envPrefix) {
			values[k] = v
		}
	}

	return Decode(values)
}

// Decode overlays values onto Default(). Unknown keys are ignored.
func Decode(values map[string]string) (*Config, error) {
	cfg := Default()
	input := make(map[string]any, len(values))
	for k, v := range values {
		if strings.HasPrefix(k, envPrefix) && v != "" {
			input[k] = v
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(input); err != nil {
		return nil, fmt.Errorf("%w: invalid configuration: %w", common.ErrValue, err)
	}
	if _, err := cfg.Options(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Options turns the configuration into pipeline options.
func (c *Config) Options() (hybrid.Options, error) {
	opts := hybrid.DefaultOptions()
	opts.KernelSize = c.KernelSize
	opts.Sigma = c.Sigma
	opts.ResizeBase = c.ResizeBase
	opts.Workers = c.Workers
	opts.TileRows = c.TileRows
	if c.RejectGray {
		opts.GrayInput = gray.Reject
	}

	var err error
	if opts.Method, err = blur.ParseMethod(c.Method); err != nil {
		return opts, err
	}
	if opts.Border, err = blur.ParseBorder(c.Border); err != nil {
		return opts, err
	}
	if opts.Detail, err = hybrid.ParseDetail(c.Detail); err != nil {
		return opts, err
	}
	if _, err = c.Level(); err != nil {
		return opts, err
	}
	return opts, nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrValue, err)
	}
	return level, nil
}
