package invoke

import (
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Defaults for Config.
const (
	DefaultExecutable  = "pixel-sorter"
	DefaultTimeout     = 10 * time.Minute
	DefaultGracePeriod = 5 * time.Second
)

// Environment variables read by WithEnvConfig.
const (
	EnvExecutable  = "SORTLAUNCH_EXECUTABLE"
	EnvTimeout     = "SORTLAUNCH_TIMEOUT"
	EnvGracePeriod = "SORTLAUNCH_GRACE_PERIOD"
)

// Config holds controller settings.
type Config struct {
	// Executable is the sorter binary, looked up on PATH unless absolute.
	Executable string

	// Timeout bounds a single run. Zero disables the bound.
	Timeout time.Duration

	// GracePeriod is how long the sorter may take to exit after being
	// asked to terminate. Zero or less selects DefaultGracePeriod.
	GracePeriod time.Duration
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Executable:  DefaultExecutable,
		Timeout:     DefaultTimeout,
		GracePeriod: DefaultGracePeriod,
	}
}

// Builder constructs a Controller.
type Builder struct {
	config    Config
	runner    ProcessRunner
	logger    hclog.Logger
	useEnv    bool
	overrides []func(*Config)
}

// NewBuilder creates a new Controller builder with default settings.
func NewBuilder() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig sets the configuration for the controller.
func (b *Builder) WithConfig(config Config) *Builder {
	b.config = config
	return b
}

// WithEnvConfig loads configuration from environment variables.
// Reads SORTLAUNCH_EXECUTABLE, SORTLAUNCH_TIMEOUT and SORTLAUNCH_GRACE_PERIOD.
func (b *Builder) WithEnvConfig() *Builder {
	b.useEnv = true
	return b
}

// WithOverride registers fn to adjust the configuration after environment
// values are applied, so explicit command-line settings win.
func (b *Builder) WithOverride(fn func(*Config)) *Builder {
	b.overrides = append(b.overrides, fn)
	return b
}

// WithRunner overrides the process runner (useful for testing).
func (b *Builder) WithRunner(runner ProcessRunner) *Builder {
	b.runner = runner
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(logger hclog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build constructs the Controller with the configured settings.
// Environment values override WithConfig; invalid durations are ignored.
func (b *Builder) Build() *Controller {
	config := b.config

	if b.useEnv {
		if exe := os.Getenv(EnvExecutable); exe != "" {
			config.Executable = exe
		}
		if d, ok := envDuration(EnvTimeout); ok {
			config.Timeout = d
		}
		if d, ok := envDuration(EnvGracePeriod); ok {
			config.GracePeriod = d
		}
	}
	for _, fn := range b.overrides {
		fn(&config)
	}
	if config.Executable == "" {
		config.Executable = DefaultExecutable
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = DefaultGracePeriod
	}

	logger := b.logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	runner := b.runner
	if runner == nil {
		runner = NewRealProcessRunner(config.GracePeriod)
	}

	return &Controller{
		config: config,
		runner: runner,
		logger: logger.Named("invoke"),
	}
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}
