package core

import (
	"fmt"
	"strings"
	"time"
)

type ProcessorSettings struct {
	MaxRetries      int           `koanf:"max_retries" mapstructure:"max_retries"`
	DispatchTimeout time.Duration `koanf:"dispatch_timeout" mapstructure:"dispatch_timeout"`
	ErrorBackoff    time.Duration `koanf:"error_backoff" mapstructure:"error_backoff"`
}

type QueueSettings struct {
	PollInterval time.Duration `koanf:"poll_interval" mapstructure:"poll_interval"`
}

type Config struct {
	ServiceName string            `koanf:"service_name" mapstructure:"service_name"`
	Processor   ProcessorSettings `koanf:"processor" mapstructure:"processor"`
	Queue       QueueSettings     `koanf:"queue" mapstructure:"queue"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "payments",
		Processor: ProcessorSettings{
			MaxRetries:      3,
			DispatchTimeout: 30 * time.Second,
			ErrorBackoff:    5 * time.Second,
		},
		Queue: QueueSettings{
			PollInterval: time.Second,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Processor.MaxRetries < 0 {
		return fmt.Errorf("core: processor.max_retries must not be negative")
	}
	if c.Processor.ErrorBackoff < 0 {
		return fmt.Errorf("core: processor.error_backoff must not be negative")
	}
	if c.Queue.PollInterval < 0 {
		return fmt.Errorf("core: queue.poll_interval must not be negative")
	}
	return nil
}
