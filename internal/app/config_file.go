package app

import (
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
    URL    string `yaml:"url" json:"url"`
    Input  string `yaml:"input" json:"input"`
    Format string `yaml:"format" json:"format"`

    HTTP struct {
        UserAgent string   `yaml:"userAgent" json:"userAgent"`
        Timeout   Duration `yaml:"timeout" json:"timeout"`
        Retries   int      `yaml:"retries" json:"retries"`
    } `yaml:"http" json:"http"`

    Cache struct {
        Dir         string   `yaml:"dir" json:"dir"`
        MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
        Clear       bool     `yaml:"clear" json:"clear"`
        StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
    } `yaml:"cache" json:"cache"`

    Classes struct {
        Table string `yaml:"table" json:"table"`
        Hex   string `yaml:"hex" json:"hex"`
        Code  string `yaml:"code" json:"code"`
    } `yaml:"classes" json:"classes"`

    Verbose bool `yaml:"verbose" json:"verbose"`
}

// Duration accepts "30s"-style strings in YAML and JSON config files.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
    var s string
    if err := value.Decode(&s); err != nil {
        return err
    }
    return d.set(s)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        return err
    }
    return d.set(s)
}

func (d *Duration) set(s string) error {
    if s == "" {
        *d = 0
        return nil
    }
    v, err := time.ParseDuration(s)
    if err != nil {
        return fmt.Errorf("parse duration %q: %w", s, err)
    }
    *d = Duration(v)
    return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch filepath.Ext(path) {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for any fields that are
// still unset. Flags and environment have already been applied and win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    // A source from a higher layer blocks both source fields from the file.
    if trim(cfg.URL) == "" && trim(cfg.InputPath) == "" {
        cfg.URL = fc.URL
        cfg.InputPath = fc.Input
    }
    if cfg.Format == "" { cfg.Format = fc.Format }

    if cfg.UserAgent == "" { cfg.UserAgent = fc.HTTP.UserAgent }
    if cfg.Timeout == 0 && fc.HTTP.Timeout > 0 { cfg.Timeout = time.Duration(fc.HTTP.Timeout) }
    if cfg.MaxAttempts == 0 && fc.HTTP.Retries > 0 { cfg.MaxAttempts = fc.HTTP.Retries + 1 }

    if cfg.CacheDir == "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge) }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }

    if cfg.TableClass == "" { cfg.TableClass = fc.Classes.Table }
    if cfg.HexClass == "" { cfg.HexClass = fc.Classes.Hex }
    if cfg.CodeClass == "" { cfg.CodeClass = fc.Classes.Code }

    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
}
