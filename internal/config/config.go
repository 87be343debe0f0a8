package config

import (
	"bytes"
	stdlibErrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueErrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration, loaded from csvs-convert.yml.
// Every section is closed against config_schema.cue: a field that isn't
// listed there fails validation as ErrUnknownField rather than being
// silently ignored.
type Config struct {
	Describe DescribeConfig `yaml:"describe"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DescribeConfig is the describer's closed option set: the only
// six knobs an operator can turn without editing code.
type DescribeConfig struct {
	Threads     int    `yaml:"threads" cue:"threads"`
	Delimiter   string `yaml:"delimiter" cue:"delimiter"`
	Quote       string `yaml:"quote" cue:"quote"`
	Stats       bool   `yaml:"stats" cue:"stats"`
	ForceString bool   `yaml:"force_string" cue:"force_string"`
	SampleSize  int    `yaml:"sample_size" cue:"sample_size"`
}

// OutputConfig controls where and how the descriptor (and any convert
// emitter) writes its result.
type OutputConfig struct {
	Format string `yaml:"format" cue:"format"`
	Path   string `yaml:"path" cue:"path"`
}

// LoggingConfig controls the verbosity of the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level" cue:"level"`
}

// ErrUnknownField is returned by Load when csvs-convert.yml contains a field
// outside the closed schema.
type ErrUnknownField struct {
	Err error
}

func (e *ErrUnknownField) Error() string {
	return fmt.Sprintf("unknown field in configuration: %v", e.Err)
}

func (e *ErrUnknownField) Unwrap() error {
	return e.Err
}

// DefaultConfigPath is the default path for the configuration file.
const DefaultConfigPath = "csvs-convert.yml"

// expandWithDefault expands a string like "${VAR:=default_value}" or "$VAR".
// If VAR is set, its value is used, otherwise the default. Plain $VAR is
// replaced by its environment value (empty when unset); ${VAR} with no
// default is not matched and is left as written.
var envVarWithDefaultRegex = regexp.MustCompile(`\$\{([^:}]+):=([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return path
}

func expandWithDefault(s string) string {
	result := envVarWithDefaultRegex.ReplaceAllStringFunc(s, func(match string) string {
		expandedSimple := os.ExpandEnv(match)
		if expandedSimple != match && expandedSimple != "" && !strings.Contains(expandedSimple, ":=") {
			return expandPath(expandedSimple)
		}

		parts := envVarWithDefaultRegex.FindStringSubmatch(match)
		var varName, defaultValue string

		if len(parts) > 2 && parts[1] != "" && parts[2] != "" { // ${VAR:=default} form
			varName = parts[1]
			defaultValue = parts[2]
		} else if len(parts) > 3 && parts[3] != "" { // $VAR or ${VAR} form
			varName = parts[3]
			val, _ := os.LookupEnv(varName)
			return expandPath(val)
		} else {
			return expandPath(match)
		}

		value, exists := os.LookupEnv(varName)
		if exists {
			return expandPath(value)
		}

		return expandPath(expandWithDefault(defaultValue))
	})
	return result
}

// Load reads configPath (or DefaultConfigPath) as YAML and validates it
// against the embedded CUE schema. Fields the schema doesn't recognize
// surface as *ErrUnknownField, matching this project's exit(78) convention
// for misconfiguration.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	yamlData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(yamlData))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stdlibErrors.Is(err, io.EOF) {
		if strings.Contains(err.Error(), "not found in type") {
			return nil, &ErrUnknownField{Err: err}
		}
		return nil, fmt.Errorf("failed to unmarshal YAML data from %s: %w", configPath, err)
	}

	ctx := cuecontext.New()
	schemaVal := ctx.CompileBytes(embeddedCueSchema, cue.Filename("config_schema.cue"))
	if err := schemaVal.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile embedded CUE schema: %w", err)
	}

	cueVal := ctx.Encode(cfg)
	if err := cueVal.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode config struct to CUE value: %w", err)
	}

	configDef := schemaVal.LookupPath(cue.ParsePath("#Config"))
	if !configDef.Exists() {
		return nil, fmt.Errorf("#Config definition not found in embedded CUE schema")
	}

	instanceVal := configDef.Unify(cueVal)
	if err := checkUnknownField(instanceVal.Err()); err != nil {
		return nil, err
	}

	if err := instanceVal.Validate(cue.Concrete(true)); err != nil {
		if uerr := checkUnknownField(err); uerr != nil {
			return nil, uerr
		}
		return nil, fmt.Errorf("CUE validation failed for %s (def #Config): %w", configPath, err)
	}

	cfg.Output.Path = expandWithDefault(cfg.Output.Path)

	return &cfg, nil
}

// checkUnknownField inspects a CUE error for a "field not allowed" /
// "is not a field in" detail, the signature of a value outside the closed
// schema, and wraps it as *ErrUnknownField when found. It returns nil for a
// nil err and the original err, wrapped, for any other CUE failure.
func checkUnknownField(err error) error {
	if err == nil {
		return nil
	}
	var cueErrList cueErrors.Error
	if stdlibErrors.As(err, &cueErrList) {
		for _, single := range cueErrors.Errors(cueErrList) {
			detail := cueErrors.Details(single, nil)
			if strings.Contains(detail, "field not allowed") || strings.Contains(detail, "is not a field in") {
				return &ErrUnknownField{Err: err}
			}
		}
	}
	return fmt.Errorf("configuration validation failed: %w", err)
}

// GetDefaultConfig returns a Config populated with the describer's defaults.
func GetDefaultConfig() *Config {
	return &Config{
		Describe: DescribeConfig{
			Threads:     4,
			Delimiter:   "",
			Quote:       `"`,
			Stats:       true,
			ForceString: false,
			SampleSize:  0,
		},
		Output: OutputConfig{
			Format: "json",
			Path:   "",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// WriteDefaultConfig writes the default configuration to configPath (or
// DefaultConfigPath).
func WriteDefaultConfig(configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	cfg := GetDefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory for config file %s: %w", configPath, err)
			}
		}
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write default config to %s: %w", configPath, err)
	}
	return nil
}
