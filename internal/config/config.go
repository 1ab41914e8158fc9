// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

// FileName is the config file searched for in the standard locations.
const FileName = "gcpctl.yaml"

// Type is a loaded gcpctl.yaml. Namespace is normally the service command
// group (bigtable, storage, ...) and is tried before the global key on every
// lookup.
type Type struct {
	Source    string
	Namespace string
	Data      map[string]interface{}
}

var Config Type

func init() {
	_, _ = Load()
}

// Load reads the config file and makes it the package Config.
func Load(namespace ...string) (Type, error) {
	path, err := getConfigPath()
	if err != nil {
		return Type{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Type{}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Type{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	Config = Type{Source: path, Data: data}
	if len(namespace) > 0 {
		Config.Namespace = namespace[0]
	}

	return Config, nil
}

// candidates returns the keys tried for kspec, namespaced first.
func (cfg *Type) candidates(kspec string) []string {
	if cfg.Namespace == "" {
		return []string{kspec}
	}
	return []string{cfg.Namespace + "." + kspec, kspec}
}

// get traverses the map using a dotted key path
func (cfg *Type) get(kspec string) (any, error) {
	keys := cfg.candidates(kspec)
	for _, key := range keys {
		if v, ok := walk(cfg.Data, strings.Split(key, ".")); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("no valid path found among: %v", keys)
}

func walk(current any, path []string) (any, bool) {
	for _, seg := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if current, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return current, true
}

// lookup lazily loads the config and resolves key. found is false when the
// key is absent, in which case the caller falls back to its default.
func lookup(key string) (val any, err error) {
	if len(Config.Data) == 0 {
		_, _ = Load(Config.Namespace)
	}
	return Config.get(key)
}

// resolve runs conv over the value at key. A missing key returns the single
// default when one is given.
func resolve[T any](key string, conv func(any) (T, error), defaultValue []T) (T, error) {
	var zero T
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return zero, err
	}
	out, err := conv(val)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}

func GetString(key string, defaultValue ...string) (string, error) {
	return resolve(key, func(v any) (string, error) {
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("value is not a string")
		}
		return s, nil
	}, defaultValue)
}

func GetInt(key string, defaultValue ...int) (int, error) {
	return resolve(key, func(v any) (int, error) {
		// YAML numbers may be unmarshaled as int/float64 depending on content.
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			return int(n), nil
		}
		return 0, fmt.Errorf("value is not an int")
	}, defaultValue)
}

func GetBool(key string, defaultValue ...bool) (bool, error) {
	return resolve(key, func(v any) (bool, error) {
		b, ok := v.(bool)
		if !ok {
			return false, fmt.Errorf("value is not a bool")
		}
		return b, nil
	}, defaultValue)
}

// GetStringSlice returns the list at key. A scalar string is returned as a
// one element slice so arg-sets can be written either way.
func GetStringSlice(key string, defaultValue ...[]string) ([]string, error) {
	return resolve(key, func(v any) ([]string, error) {
		switch items := v.(type) {
		case string:
			return []string{items}, nil
		case []interface{}:
			out := make([]string, 0, len(items))
			for _, item := range items {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("contains a non-string: %v", item)
				}
				out = append(out, s)
			}
			return out, nil
		}
		return nil, fmt.Errorf("value is not a list of strings")
	}, defaultValue)
}

// getConfigPath honors GCPCTL_CFG, then looks for gcpctl.yaml under the XDG,
// APPDATA and HOME directories.
func getConfigPath() (string, error) {
	if p := os.Getenv("GCPCTL_CFG"); p != "" {
		fileInfo, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("config file not found: %s", p)
		}
		if fileInfo.IsDir() {
			return "", fmt.Errorf("GCPCTL_CFG points to a directory: %s", p)
		}
		log.Debugf("using config file: %s", p)
		return p, nil
	}

	for _, env := range []string{"XDG_CONFIG_HOME", "APPDATA", "HOME"} {
		dir := os.Getenv(env)
		if dir == "" {
			continue
		}
		file := filepath.Join(dir, FileName)
		if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
			log.Debugf("using config file: %s", file)
			return file, nil
		}
	}
	return "", fmt.Errorf("no config file found in standard locations")
}
