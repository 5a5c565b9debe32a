package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver layers defaults < loaded config < runtime overrides.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	processor := map[string]any{}
	if includeZero || cfg.Processor.MaxRetries != 0 {
		processor["max_retries"] = cfg.Processor.MaxRetries
	}
	if includeZero || cfg.Processor.DispatchTimeout != 0 {
		processor["dispatch_timeout"] = cfg.Processor.DispatchTimeout
	}
	if includeZero || cfg.Processor.ErrorBackoff != 0 {
		processor["error_backoff"] = cfg.Processor.ErrorBackoff
	}
	if len(processor) > 0 {
		layer["processor"] = processor
	}
	queue := map[string]any{}
	if includeZero || cfg.Queue.PollInterval != 0 {
		queue["poll_interval"] = cfg.Queue.PollInterval
	}
	if len(queue) > 0 {
		layer["queue"] = queue
	}
	return layer
}

// ProcessorOptions converts the resolved processor settings into the option
// list NewProcessor consumes. Zero values are skipped so the processor
// defaults still apply for anything the config left unset.
func (c Config) ProcessorOptions() []ProcessorOption {
	options := []ProcessorOption{}
	if c.Processor.MaxRetries > 0 {
		options = append(options, WithMaxRetries(c.Processor.MaxRetries))
	}
	if c.Processor.DispatchTimeout > 0 {
		options = append(options, WithDispatchTimeout(c.Processor.DispatchTimeout))
	}
	if c.Processor.ErrorBackoff > 0 {
		options = append(options, WithErrorBackoff(c.Processor.ErrorBackoff))
	}
	return options
}

// ProcessorOption customizes a Processor beyond its required collaborators.
type ProcessorOption func(*Processor)

func WithLogger(logger Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) ProcessorOption {
	return func(p *Processor) {
		p.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) ProcessorOption {
	return func(p *Processor) {
		p.metrics = recorder
	}
}

func WithMaxRetries(max int) ProcessorOption {
	return func(p *Processor) {
		p.maxRetries = max
	}
}

func WithDispatchTimeout(timeout time.Duration) ProcessorOption {
	return func(p *Processor) {
		p.dispatchTimeout = timeout
	}
}

func WithErrorBackoff(backoff time.Duration) ProcessorOption {
	return func(p *Processor) {
		p.errorBackoff = backoff
	}
}

func WithQueueNames(main string, deadLetter string) ProcessorOption {
	return func(p *Processor) {
		if trimmed := strings.TrimSpace(main); trimmed != "" {
			p.queueName = trimmed
		}
		if trimmed := strings.TrimSpace(deadLetter); trimmed != "" {
			p.deadLetterName = trimmed
		}
	}
}

func WithClock(clock Clock) ProcessorOption {
	return func(p *Processor) {
		if clock != nil {
			p.now = clock
		}
	}
}
