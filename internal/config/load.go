// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/recyclehub/recyclehub/internal/xdg"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: RECYCLEHUB_AUTH__TOKEN_TTL sets auth.token_ttl.
const EnvPrefix = "RECYCLEHUB_"

// envAliases are unprefixed variables honored for deployment platforms that
// inject them by convention.
var envAliases = map[string]string{
	"DATABASE_URL": "database.url",
	"JWT_SECRET":   "auth.jwt_secret",
}

// FlagKeys maps command-line flag names to config keys. Flags absent from
// this map are ignored by the loader.
var FlagKeys = map[string]string{
	"http-addr":    "http.addr",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"store":        "store.driver",
	"database-url": "database.url",
	"notifier":     "notify.driver",
}

const redacted = "<redacted>"

// Options controls where Load looks for settings.
type Options struct {
	// Path is the YAML config file. When empty the XDG default is used and
	// a missing file is not an error.
	Path string

	// Flags supplies the highest-precedence layer. Only flags the user
	// changed override lower layers.
	Flags *pflag.FlagSet
}

// Load merges all layers, decodes them and validates the result.
func Load(opts Options) (*Config, error) {
	k, err := merge(opts)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").
			With("operation", "decode config").
			Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase merges all layers and returns only the database settings.
// Commands that never serve traffic use it so they do not need a signing
// secret.
func LoadDatabase(opts Options) (*DatabaseConfig, error) {
	k, err := merge(opts)
	if err != nil {
		return nil, err
	}

	db := &DatabaseConfig{}
	if err := k.Unmarshal("database", db); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").
			With("operation", "decode database config").
			Wrap(err)
	}
	if db.URL == "" {
		return nil, invalid("database.url", "database.url is required")
	}
	if db.ConnectTimeout <= 0 {
		return nil, invalid("database.connect_timeout", "database.connect_timeout must be positive")
	}
	return db, nil
}

// Dump renders the merged settings as YAML with secrets masked. It does not
// validate, so it can be used to debug a broken configuration.
func Dump(opts Options) ([]byte, error) {
	k, err := merge(opts)
	if err != nil {
		return nil, err
	}

	for _, key := range []string{"auth.jwt_secret", "database.url"} {
		if k.String(key) != "" {
			if err := k.Set(key, redacted); err != nil {
				return nil, oops.Code("CONFIG_DUMP_FAILED").With("key", key).Wrap(err)
			}
		}
	}

	out, err := yamlv3.Marshal(k.Raw())
	if err != nil {
		return nil, oops.Code("CONFIG_DUMP_FAILED").
			With("operation", "marshal config").
			Wrap(err)
	}
	return out, nil
}

func merge(opts Options) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "defaults").Wrap(err)
	}

	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		path = xdg.ConfigFile()
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !isNotExist(path) {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("layer", "file").
				With("path", path).
				Wrap(err)
		}
	}

	// Prefixed variables load after aliases so they win when both are set.
	if err := k.Load(env.ProviderWithValue("", ".", aliasValue), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "env").Wrap(err)
	}
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "env").Wrap(err)
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "flags").Wrap(err)
		}
	}
	return k, nil
}

func aliasValue(name, value string) (string, any) {
	key, ok := envAliases[name]
	if !ok || value == "" {
		return "", nil
	}
	return key, value
}

// envValue maps a prefixed environment variable to a config key, or "" to
// skip it.
func envValue(name, value string) (string, any) {
	rest, found := strings.CutPrefix(name, EnvPrefix)
	if !found || rest == "" {
		return "", nil
	}
	key := strings.ToLower(strings.ReplaceAll(rest, "__", "."))
	if key == "cors.allowed_origins" {
		return key, splitList(value)
	}
	return key, value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isNotExist(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}
