// Package config loads the synthesizer configuration from flags, the
// environment and an optional config file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. UBSYNTH_PARALLEL.
const EnvPrefix = "UBSYNTH"

// Keys.
const (
	KeyConfig      = "config"
	KeyCategory    = "ub"
	KeyOut         = "out"
	KeyReports     = "reports"
	KeyParallel    = "parallel"
	KeyIncremental = "incremental"
	KeyVerify      = "verify"
	KeyHeapProb    = "heap_prob"
	KeySelectProb  = "select_prob"
	KeyRNGSeed     = "rng_seed"
	KeyExclude     = "exclude"
	KeyShard       = "shard"

	KeyToolsDir    = "tools.dir"
	KeyCompiler    = "tools.cc"
	KeyCompileArgs = "tools.compile_args"
	KeyCsmithHome  = "csmith.home"
	KeyCsmithBin   = "csmith.bin"
	KeyCsmithArgs  = "csmith.args"

	KeyMinProgramSize = "generate.min_size"
	KeyMaxAttempts    = "generate.max_attempts"
	KeyCheckArgs      = "generate.check_args"

	KeyCompileTimeout  = "timeouts.compile"
	KeyRunTimeout      = "timeouts.run"
	KeyGenerateTimeout = "timeouts.generate"

	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"
)

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"config":      KeyConfig,
	"ub":          KeyCategory,
	"out":         KeyOut,
	"reports":     KeyReports,
	"parallel":    KeyParallel,
	"incremental": KeyIncremental,
	"verify":      KeyVerify,
	"heap-prob":   KeyHeapProb,
	"seed":        KeyRNGSeed,
	"exclude":     KeyExclude,
	"shard":       KeyShard,
	"tools-dir":   KeyToolsDir,
	"cc":          KeyCompiler,
	"log-level":   KeyLogLevel,
	"log-format":  KeyLogFormat,
}

// Tools locates the external programs.
type Tools struct {
	AddBraces     string
	AddInteger    string
	AddArrayIndex string
	Instrumenter  string
	StackToHeap   string
	Compiler      string
	Csmith        string
}

// Timeouts bounds every external process.
type Timeouts struct {
	Compile  time.Duration
	Run      time.Duration
	Generate time.Duration
}

// Generate configures csmith seed generation.
type Generate struct {
	MinProgramSize int64
	MaxAttempts    int
	// CheckArgs are the compile flags of the sanity build a generated seed
	// must pass before it is used.
	CheckArgs []string
}

// Config is the resolved, validated configuration. It is built once by Load
// and passed by value.
type Config struct {
	Category    m.Category
	Out         m.Path
	Reports     m.Path
	Parallel    int
	Incremental bool
	Verify      bool
	HeapProb    int
	// SelectProb is validated but reserved for sampling a subset of plans.
	SelectProb  int
	RNGSeed     uint64
	Exclude     []string
	Shard       string

	Tools       Tools
	CompileArgs []string
	CsmithArgs  []string
	Generate    Generate
	Timeouts    Timeouts

	LogLevel  string
	LogFormat string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyParallel, 1)
	v.SetDefault(KeyVerify, false)
	v.SetDefault(KeyHeapProb, 0)
	v.SetDefault(KeySelectProb, 100)
	v.SetDefault(KeyRNGSeed, 0)
	v.SetDefault(KeyCompiler, "clang")
	v.SetDefault(KeyCsmithArgs, []string{"--no-packed-struct", "--ccomp", "--no-volatiles", "--no-volatile-pointers", "--no-safe-math"})
	v.SetDefault(KeyMinProgramSize, 8000)
	v.SetDefault(KeyMaxAttempts, 20)
	v.SetDefault(KeyCheckArgs, []string{"-fsanitize=address,undefined", "-fno-sanitize-recover=all"})
	v.SetDefault(KeyCompileTimeout, 10*time.Second)
	v.SetDefault(KeyRunTimeout, 2*time.Second)
	v.SetDefault(KeyGenerateTimeout, 10*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// Bind wires defaults, UBSYNTH_* environment variables, CSMITH_HOME and the
// flags present in flags into v.
func Bind(v *viper.Viper, flags *pflag.FlagSet) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(KeyCsmithHome, "CSMITH_HOME", EnvPrefix+"_CSMITH_HOME"); err != nil {
		return err
	}

	if flags == nil {
		return nil
	}

	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}

		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	return nil
}

// Load reads the config file named by the "config" key, if any, and decodes
// v into a validated Config.
func Load(v *viper.Viper) (Config, error) {
	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)

		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Config{
		Out:         m.Path(v.GetString(KeyOut)),
		Reports:     m.Path(v.GetString(KeyReports)),
		Parallel:    v.GetInt(KeyParallel),
		Incremental: v.GetBool(KeyIncremental),
		Verify:      v.GetBool(KeyVerify),
		HeapProb:    v.GetInt(KeyHeapProb),
		SelectProb:  v.GetInt(KeySelectProb),
		RNGSeed:     v.GetUint64(KeyRNGSeed),
		Exclude:     v.GetStringSlice(KeyExclude),
		Shard:       v.GetString(KeyShard),
		CsmithArgs:  v.GetStringSlice(KeyCsmithArgs),
		Generate: Generate{
			MinProgramSize: v.GetInt64(KeyMinProgramSize),
			MaxAttempts:    v.GetInt(KeyMaxAttempts),
			CheckArgs:      v.GetStringSlice(KeyCheckArgs),
		},
		Timeouts: Timeouts{
			Compile:  v.GetDuration(KeyCompileTimeout),
			Run:      v.GetDuration(KeyRunTimeout),
			Generate: v.GetDuration(KeyGenerateTimeout),
		},
		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: v.GetString(KeyLogFormat),
	}

	if raw := v.GetString(KeyCategory); raw != "" {
		category, err := m.ParseCategory(raw)
		if err != nil {
			return Config{}, err
		}

		cfg.Category = category
	}

	if cfg.Reports == "" && cfg.Out != "" {
		cfg.Reports = m.Path(filepath.Join(string(cfg.Out), ".ubsynth-reports"))
	}

	cfg.Tools, cfg.CompileArgs = resolveTools(v)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks ranges that do not depend on the command being run.
func (c Config) Validate() error {
	var errs []error

	if c.Parallel <= 0 {
		errs = append(errs, &m.ConfigError{Key: KeyParallel, Reason: "must be positive"})
	}

	if c.HeapProb < 0 || c.HeapProb > 100 {
		errs = append(errs, &m.ConfigError{Key: KeyHeapProb, Reason: "must be within [0, 100]"})
	}

	if c.SelectProb <= 0 || c.SelectProb > 100 {
		errs = append(errs, &m.ConfigError{Key: KeySelectProb, Reason: "must be within (0, 100]"})
	}

	for key, d := range map[string]time.Duration{
		KeyCompileTimeout:  c.Timeouts.Compile,
		KeyRunTimeout:      c.Timeouts.Run,
		KeyGenerateTimeout: c.Timeouts.Generate,
	} {
		if d <= 0 {
			errs = append(errs, &m.ConfigError{Key: key, Reason: "must be positive"})
		}
	}

	if c.Generate.MaxAttempts <= 0 {
		errs = append(errs, &m.ConfigError{Key: KeyMaxAttempts, Reason: "must be positive"})
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, &m.ConfigError{Key: KeyLogFormat, Reason: "must be text or json"})
	}

	return errors.Join(errs...)
}

// RequireCategory fails when no target category was configured.
func (c Config) RequireCategory() error {
	if c.Category == "" {
		return &m.ConfigError{Key: KeyCategory, Reason: "a target category is required (--ub)"}
	}

	return nil
}

func resolveTools(v *viper.Viper) (Tools, []string) {
	dir := v.GetString(KeyToolsDir)
	tool := func(key, name string) string {
		if explicit := v.GetString("tools." + key); explicit != "" {
			return explicit
		}

		if dir == "" {
			return name
		}

		return filepath.Join(dir, name)
	}

	tools := Tools{
		AddBraces:     tool("add_braces", "tool-addbraces"),
		AddInteger:    tool("add_integer", "tool-addinteger"),
		AddArrayIndex: tool("add_array_index", "tool-addarrayindex"),
		Instrumenter:  tool("instrumenter", "tool-instrumenter"),
		StackToHeap:   tool("stack_to_heap", "tool-stacktoheap"),
		Compiler:      v.GetString(KeyCompiler),
		Csmith:        v.GetString(KeyCsmithBin),
	}

	compileArgs := v.GetStringSlice(KeyCompileArgs)

	if home := v.GetString(KeyCsmithHome); home != "" {
		if tools.Csmith == "" {
			tools.Csmith = filepath.Join(home, "bin", "csmith")
		}

		if len(compileArgs) == 0 {
			compileArgs = []string{"-I" + filepath.Join(home, "include")}
		}
	}

	if tools.Csmith == "" {
		tools.Csmith = "csmith"
	}

	return tools, compileArgs
}
