package config

import (
	_ "embed"
	"errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	rpmerrors "github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/logging"
	"github.com/mkulik-rh/rpm/pkg/paths"
)

// EnvPrefix prefixes configuration environment variables
const EnvPrefix = "RPMTE_"

//go:embed embedded/defaults.toml
var defaultConfig []byte

var log = logging.GetLogger("config")

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Load reads the configuration. An empty path selects the default user
// config file, which may be absent. An explicit path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, rpmerrors.Wrap(err, rpmerrors.ErrConfigParse, "failed to load defaults")
	}

	// 2. User file
	explicit := path != ""
	if !explicit {
		path = paths.ConfigFile()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, rpmerrors.Wrapf(err, rpmerrors.ErrConfigParse, "failed to load config from %s", path).
				WithDetail("path", path)
		}
		log.Debug().Str("path", path).Msg("Loaded config file")
	} else if explicit {
		return nil, rpmerrors.Wrapf(err, rpmerrors.ErrConfigLoad, "config file %s not found", path).
			WithDetail("path", path)
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, rpmerrors.Wrap(err, rpmerrors.ErrConfigLoad, "failed to load env vars")
	}

	return decode(k)
}

// FromMap builds a configuration from defaults overlaid with values,
// keyed by dotted paths such as "transaction.test".
func FromMap(values map[string]interface{}) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, rpmerrors.Wrap(err, rpmerrors.ErrConfigParse, "failed to load defaults")
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return nil, rpmerrors.Wrap(err, rpmerrors.ErrConfigLoad, "failed to load values")
	}
	return decode(k)
}

func decode(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, rpmerrors.Wrap(err, rpmerrors.ErrConfigParse, "failed to unmarshal configuration")
	}

	postProcess(&cfg)
	return &cfg, nil
}

func postProcess(cfg *Config) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = paths.DBPath()
	}
	if cfg.Root == "" {
		cfg.Root = "/"
	}
	if cfg.Macros == nil {
		cfg.Macros = make(map[string]string)
	}
}
