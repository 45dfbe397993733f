package jitter

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	MinDelayMs     uint32        `yaml:"min_delay_ms"`
	MaxDelayMs     uint32        `yaml:"max_delay_ms"`
	Capacity       int           `yaml:"capacity"`
	SampleRate     uint32        `yaml:"sample_rate"`
	Mode           Mode          `yaml:"mode"`
	PutTimeout     time.Duration `yaml:"put_timeout"`
	LatenessWindow time.Duration `yaml:"lateness_window"`
}

func DefaultConfig() Config {
	return Config{
		MinDelayMs:     20,
		MaxDelayMs:     200,
		Capacity:       50,
		SampleRate:     8000,
		Mode:           Fixed,
		PutTimeout:     DefaultPutTimeout,
		LatenessWindow: DefaultLatenessWindow,
	}
}

func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidArgument)
	}
	if c.MinDelayMs > c.MaxDelayMs {
		return fmt.Errorf("%w: min_delay_ms above max_delay_ms", ErrInvalidArgument)
	}
	if c.SampleRate != 0 && c.SampleRate < 1000 {
		return fmt.Errorf("%w: sample_rate %d below 1000", ErrInvalidArgument, c.SampleRate)
	}
	if c.PutTimeout < 0 || c.LatenessWindow < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidArgument)
	}
	return nil
}

// LoadConfig reads a YAML config; omitted fields keep their defaults.
func LoadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode jitter buffer config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return Fixed, nil
	case "adaptive":
		return Adaptive, nil
	}
	return Fixed, fmt.Errorf("%w: mode %q", ErrInvalidArgument, s)
}

func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

type Factory struct {
	config Config
	opts   []Option
}

func NewFactory(config Config, opts ...Option) *Factory {
	return &Factory{
		config: config,
		opts:   opts,
	}
}

func (f *Factory) CreateBuffer() (*Buffer, error) {
	if err := f.config.Validate(); err != nil {
		return nil, err
	}

	opts := []Option{
		WithMode(f.config.Mode),
		WithSampleRate(f.config.SampleRate),
	}
	if f.config.PutTimeout > 0 {
		opts = append(opts, WithPutTimeout(f.config.PutTimeout))
	}
	if f.config.LatenessWindow > 0 {
		opts = append(opts, WithLatenessWindow(f.config.LatenessWindow))
	}
	opts = append(opts, f.opts...)

	return New(f.config.MinDelayMs, f.config.MaxDelayMs, f.config.Capacity, opts...)
}

var _ BufferFactory = (*Factory)(nil)
