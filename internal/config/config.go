// ABOUTME: Configuration loader for the securevault client
// ABOUTME: Layers defaults, a YAML file, .env, and SECUREVAULT_* environment variables

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// EnvPrefix is the prefix for environment overrides, e.g. SECUREVAULT_API_URL.
const EnvPrefix = "SECUREVAULT_"

const (
	defaultAPIURL         = "http://localhost:4000"
	defaultRequestTimeout = 20 * time.Second
	defaultProfileTimeout = 8 * time.Second
	appDirName            = "securevault"
)

type Config struct {
	// Backend
	APIURL                string        `yaml:"apiUrl"`
	RequestTimeout        time.Duration `yaml:"requestTimeout"`
	ProfileTimeout        time.Duration `yaml:"profileTimeout"` // bounds GetUser only
	SendLegacyTokenHeader bool          `yaml:"sendLegacyTokenHeader"`

	// Local state
	ConfigDir string `yaml:"configDir"`
	TokenFile string `yaml:"tokenFile"`

	// Logging
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dir := DefaultConfigDir()
	return &Config{
		APIURL:                defaultAPIURL,
		RequestTimeout:        defaultRequestTimeout,
		ProfileTimeout:        defaultProfileTimeout,
		SendLegacyTokenHeader: true,
		ConfigDir:             dir,
		TokenFile:             filepath.Join(dir, "session.json"),
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

// DefaultConfigDir returns the config directory following the XDG spec.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName)
}

// Load builds the configuration. path may be empty, in which case
// ConfigDir/config.yaml is used when it exists. A .env file in the working
// directory is loaded into the process environment first; variables that are
// already set win over .env values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrap(err, "load .env")
	}

	cfg := Default()
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.ConfigDir, "config.yaml")
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	} else if explicit {
		return nil, errors.Errorf("config file %s not found", path)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			name := normalizeKey(strings.TrimPrefix(key, EnvPrefix))
			if canonical, ok := keyIndex[name]; ok {
				return canonical, value
			}
			return name, value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "yaml",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			MatchName: func(mapKey, fieldName string) bool {
				return normalizeKey(mapKey) == normalizeKey(fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	// A config dir override moves the token file with it unless one was given.
	if !k.Exists("tokenFile") {
		cfg.TokenFile = filepath.Join(cfg.ConfigDir, "session.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalises the API URL and rejects unusable values.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(ensureScheme(strings.TrimSpace(c.APIURL)), "/")
	if c.APIURL == "" {
		return errors.New("api url is required")
	}
	if c.RequestTimeout <= 0 {
		return errors.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.ProfileTimeout <= 0 {
		return errors.Errorf("profile timeout must be positive, got %s", c.ProfileTimeout)
	}
	if c.ConfigDir == "" {
		return errors.New("config dir could not be determined; set SECUREVAULT_CONFIG_DIR")
	}
	return nil
}

// ensureScheme adds http:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "http://" + url
	}
	return url
}

// keyIndex maps the normalised form of every yaml key to the key itself so
// SECUREVAULT_API_URL lands on the same koanf path as apiUrl and overrides it.
var keyIndex = func() map[string]string {
	t := reflect.TypeOf(Config{})
	idx := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		if tag != "" {
			idx[normalizeKey(tag)] = tag
		}
	}
	return idx
}()

func normalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
