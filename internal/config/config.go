// Package config turns command-line flags, MTCOLLATZ_ environment
// variables and an optional config file into validated settings.
//
// Precedence, highest first: positional arguments, flags set on the command
// line, environment variables, the config file, flag defaults.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kolkov/mtcollatz/internal/histogram"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "mtcollatz"

var (
	// ErrUsage is returned for malformed positional arguments.
	ErrUsage = errors.New("invalid usage")

	// ErrInvalidConfig is returned when the merged settings fail validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfigFile is returned when the config file cannot be read.
	ErrConfigFile = errors.New("cannot read config file")
)

// Log holds the logger settings shared by all subcommands.
type Log struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
	Color  string `mapstructure:"color" validate:"omitempty,oneof=auto always never"`
	Theme  string `mapstructure:"theme" validate:"omitempty,oneof=light dark"`
}

// Audit holds the hazard auditor settings.
type Audit struct {
	Enabled    bool   `mapstructure:"enabled"`
	SampleRate uint64 `mapstructure:"sample_rate"`
	Stacks     bool   `mapstructure:"stacks"`
}

// Run is the configuration of the run subcommand.
type Run struct {
	MaxValue uint64 `mapstructure:"max_value" validate:"min=2"`
	Threads  int    `mapstructure:"threads" validate:"min=1"`
	NoLock   bool   `mapstructure:"nolock"`
	Bound    uint32 `mapstructure:"bound" validate:"min=1"`
	Ledger   bool   `mapstructure:"ledger"`
	Metrics  bool   `mapstructure:"metrics"`
	Audit    Audit  `mapstructure:"audit"`
	Log      Log    `mapstructure:"log"`
}

// Bench is the configuration of the bench subcommand.
type Bench struct {
	MaxValue uint64 `mapstructure:"max_value" validate:"min=2"`
	Threads  []int  `mapstructure:"threads" validate:"required,min=1,dive,min=1"`
	Trials   int    `mapstructure:"trials" validate:"min=1"`
	NoLock   bool   `mapstructure:"nolock"`
	Bound    uint32 `mapstructure:"bound" validate:"min=1"`
	Metrics  bool   `mapstructure:"metrics"`
	Log      Log    `mapstructure:"log"`
}

// binding maps a configuration key to the flag that sets it.
type binding struct {
	key  string
	flag string
}

var commonBindings = []binding{
	{"nolock", "nolock"},
	{"bound", "bound"},
	{"metrics", "metrics"},
	{"log.level", "log-level"},
	{"log.format", "log-format"},
	{"log.color", "log-color"},
	{"log.theme", "log-theme"},
}

func addCommonFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.Bool("nolock", false, "claim values without the cursor mutex (racy mode)")
	fs.Uint32("bound", histogram.DefaultBound, "largest recorded stopping time")
	fs.Bool("metrics", false, "dump Prometheus metrics to stderr after the run")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")
	fs.String("log-format", "text", "log format: text or json")
	fs.String("log-color", "auto", "color log lines: auto, always or never")
	fs.String("log-theme", "light", "log color theme: light or dark")
}

// NewRunFlags returns the flag set of the run subcommand.
func NewRunFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	addCommonFlags(fs)
	fs.Bool("audit", false, "track happens-before and report unsynchronized accesses")
	fs.Uint64("audit-sample-rate", 0, "audit one in N memory accesses (0 or 1 audits all)")
	fs.Bool("audit-stacks", false, "capture stack traces in hazard reports")
	fs.Bool("ledger", false, "record claims and verify they partition the range")

	return fs
}

// NewBenchFlags returns the flag set of the bench subcommand.
func NewBenchFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("bench", pflag.ContinueOnError)
	addCommonFlags(fs)
	fs.IntSlice("threads", []int{1, 2, 4, 8}, "thread counts to benchmark")
	fs.Int("trials", 5, "runs per thread count")

	return fs
}

// LoadRun parses args as "[flags] <max> <threads>" and returns the merged,
// validated configuration.
func LoadRun(fs *pflag.FlagSet, args []string) (*Run, error) {
	v, err := load(fs, args, append(commonBindings,
		binding{"audit.enabled", "audit"},
		binding{"audit.sample_rate", "audit-sample-rate"},
		binding{"audit.stacks", "audit-stacks"},
		binding{"ledger", "ledger"},
	))
	if err != nil {
		return nil, err
	}

	pos := fs.Args()
	if len(pos) != 0 && len(pos) != 2 {
		return nil, fmt.Errorf("%w: expected <max> <threads>, got %d arguments", ErrUsage, len(pos))
	}

	if len(pos) == 2 {
		maxValue, err := parseUint(pos[0], "max")
		if err != nil {
			return nil, err
		}

		threads, err := parseUint(pos[1], "threads")
		if err != nil {
			return nil, err
		}

		v.Set("max_value", maxValue)
		v.Set("threads", threads)
	}

	cfg := &Run{}
	if err := decode(v, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadBench parses args as "[flags] <max>" and returns the merged,
// validated configuration.
func LoadBench(fs *pflag.FlagSet, args []string) (*Bench, error) {
	v, err := load(fs, args, append(commonBindings,
		binding{"threads", "threads"},
		binding{"trials", "trials"},
	))
	if err != nil {
		return nil, err
	}

	pos := fs.Args()
	if len(pos) > 1 {
		return nil, fmt.Errorf("%w: expected <max>, got %d arguments", ErrUsage, len(pos))
	}

	if len(pos) == 1 {
		maxValue, err := parseUint(pos[0], "max")
		if err != nil {
			return nil, err
		}

		v.Set("max_value", maxValue)
	}

	cfg := &Bench{}
	if err := decode(v, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func load(fs *pflag.FlagSet, args []string, bindings []binding) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, b := range bindings {
		if err := v.BindPFlag(b.key, fs.Lookup(b.flag)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", b.flag, err)
		}
	}

	// Positional values may also come from the environment or the file.
	for _, key := range []string{"max_value", "threads"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfigFile, err)
		}
	}

	return v, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func decode(v *viper.Viper, out any) error {
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, describe(verrs))
		}

		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// describe renders validation errors as "key: rule" pairs.
func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))

	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}

		parts = append(parts, fmt.Sprintf("%s: must satisfy %s (got %v)", fieldKey(fe.Namespace()), rule, fe.Value()))
	}

	return strings.Join(parts, "; ")
}

// fieldKey turns "Run.Audit.SampleRate" into "Audit.SampleRate".
func fieldKey(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}

	return ns
}

func parseUint(s, name string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrUsage, name, s)
	}

	return n, nil
}
