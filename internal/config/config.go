// Package config loads and saves the switcher configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/bryanchriswhite/alttab/internal/display"
	"github.com/bryanchriswhite/alttab/internal/icon"
	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/registry"
	"github.com/bryanchriswhite/alttab/internal/window"
	"github.com/bryanchriswhite/alttab/internal/xconn"
)

// IconConfig controls where icons come from.
type IconConfig struct {
	Source      string   `json:"source" yaml:"source" mapstructure:"source"`
	Width       int      `json:"width" yaml:"width" mapstructure:"width"`
	Height      int      `json:"height" yaml:"height" mapstructure:"height"`
	Theme       string   `json:"theme" yaml:"theme" mapstructure:"theme"`
	PreferNewer bool     `json:"prefer_newer" yaml:"prefer_newer" mapstructure:"prefer_newer"`
	ExtraDirs   []string `json:"extra_dirs" yaml:"extra_dirs" mapstructure:"extra_dirs"`
}

// TileConfig sizes the popup tiles.
type TileConfig struct {
	Width  int `json:"width" yaml:"width" mapstructure:"width"`
	Height int `json:"height" yaml:"height" mapstructure:"height"`
}

// KeysConfig names the grabbed keys.
type KeysConfig struct {
	Main           string `json:"main" yaml:"main" mapstructure:"main"`
	ModifierKeysym string `json:"modifier_keysym" yaml:"modifier_keysym" mapstructure:"modifier_keysym"`
	Backward       string `json:"backward" yaml:"backward" mapstructure:"backward"`
}

// ColorsConfig holds "#rrggbb" colors.
type ColorsConfig struct {
	Background string `json:"background" yaml:"background" mapstructure:"background"`
	Foreground string `json:"foreground" yaml:"foreground" mapstructure:"foreground"`
	Frame      string `json:"frame" yaml:"frame" mapstructure:"frame"`
}

// Config is the whole configuration file.
type Config struct {
	WindowManager     string       `json:"window_manager" yaml:"window_manager" mapstructure:"window_manager"`
	Desktops          string       `json:"desktops" yaml:"desktops" mapstructure:"desktops"`
	Screens           string       `json:"screens" yaml:"screens" mapstructure:"screens"`
	Viewport          string       `json:"viewport" yaml:"viewport" mapstructure:"viewport"`
	IgnoreSkipTaskbar bool         `json:"ignore_skip_taskbar" yaml:"ignore_skip_taskbar" mapstructure:"ignore_skip_taskbar"`
	MaxDepth          int          `json:"max_depth" yaml:"max_depth" mapstructure:"max_depth"`
	Icon              IconConfig   `json:"icon" yaml:"icon" mapstructure:"icon"`
	Tile              TileConfig   `json:"tile" yaml:"tile" mapstructure:"tile"`
	Keys              KeysConfig   `json:"keys" yaml:"keys" mapstructure:"keys"`
	Colors            ColorsConfig `json:"colors" yaml:"colors" mapstructure:"colors"`
	StatusAddr        string       `json:"status_addr" yaml:"status_addr" mapstructure:"status_addr"`
	LogLevel          string       `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogPretty         bool         `json:"log_pretty" yaml:"log_pretty" mapstructure:"log_pretty"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		WindowManager: string(window.KindAuto),
		Desktops:      string(window.DesktopsCurrent),
		Screens:       string(window.ScreensCurrent),
		Viewport:      string(xconn.ViewportFocus),
		Icon: IconConfig{
			Source:    string(registry.IconsSize),
			Width:     32,
			Height:    32,
			Theme:     icon.DefaultTheme,
			ExtraDirs: []string{},
		},
		Tile: TileConfig{Width: 112, Height: 128},
		Keys: KeysConfig{
			Main:           "Mod1-Tab",
			ModifierKeysym: "Alt_L",
			Backward:       "Shift",
		},
		Colors: ColorsConfig{
			Background: "#000000",
			Foreground: "#bebebe",
			Frame:      "#a0abab",
		},
		LogLevel:  "info",
		LogPretty: true,
	}
}

// setDefaults registers every key so viper knows about values missing
// from the file.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("window_manager", d.WindowManager)
	v.SetDefault("desktops", d.Desktops)
	v.SetDefault("screens", d.Screens)
	v.SetDefault("viewport", d.Viewport)
	v.SetDefault("ignore_skip_taskbar", d.IgnoreSkipTaskbar)
	v.SetDefault("max_depth", d.MaxDepth)
	v.SetDefault("icon.source", d.Icon.Source)
	v.SetDefault("icon.width", d.Icon.Width)
	v.SetDefault("icon.height", d.Icon.Height)
	v.SetDefault("icon.theme", d.Icon.Theme)
	v.SetDefault("icon.prefer_newer", d.Icon.PreferNewer)
	v.SetDefault("icon.extra_dirs", d.Icon.ExtraDirs)
	v.SetDefault("tile.width", d.Tile.Width)
	v.SetDefault("tile.height", d.Tile.Height)
	v.SetDefault("keys.main", d.Keys.Main)
	v.SetDefault("keys.modifier_keysym", d.Keys.ModifierKeysym)
	v.SetDefault("keys.backward", d.Keys.Backward)
	v.SetDefault("colors.background", d.Colors.Background)
	v.SetDefault("colors.foreground", d.Colors.Foreground)
	v.SetDefault("colors.frame", d.Colors.Frame)
	v.SetDefault("status_addr", d.StatusAddr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)
}

// DefaultPath returns $XDG_CONFIG_HOME/alttab/config.yaml, falling back to
// ~/.config.
func DefaultPath(getenv func(string) string) (string, error) {
	if dir := getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "alttab", "config.yaml"), nil
	}
	home := getenv("HOME")
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
	}
	return filepath.Join(home, ".config", "alttab", "config.yaml"), nil
}

// Manager owns the viper instance backing the configuration file.
type Manager struct {
	fs   afero.Fs
	v    *viper.Viper
	path string
	mu   sync.RWMutex
}

// NewManager loads configFile, or the default path when empty, creating
// it with defaults on first use.
func NewManager(configFile string) (*Manager, error) {
	path := configFile
	if path == "" {
		var err error
		if path, err = DefaultPath(os.Getenv); err != nil {
			return nil, err
		}
	}
	return NewManagerFs(afero.NewOsFs(), path)
}

// NewManagerFs is NewManager on an explicit filesystem.
func NewManagerFs(fs afero.Fs, path string) (*Manager, error) {
	log := logger.WithComponent("config")

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	m := &Manager{fs: fs, v: v, path: path}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}
	if !exists {
		log.Info().Str("path", path).Msg("Config file not found, creating new config")
		if err := m.write(Defaults()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if _, err := m.Get(); err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Msg("Config loaded")
	return m, nil
}

// Viper exposes the underlying viper instance for flag binding.
func (m *Manager) Viper() *viper.Viper {
	return m.v
}

// Path returns the configuration file path.
func (m *Manager) Path() string {
	return m.path
}

// Get decodes and validates the current configuration.
func (m *Manager) Get() (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Icon.ExtraDirs == nil {
		cfg.Icon.ExtraDirs = []string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Lookup returns a single value.
func (m *Manager) Lookup(key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.v.IsSet(key) {
		return nil, false
	}
	return m.v.Get(key), true
}

// Set parses value for key, validates the result and saves the file.
func (m *Manager) Set(key, value string) error {
	parsed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := m.v.Get(key)
	m.v.Set(key, parsed)
	m.mu.Unlock()

	cfg, err := m.Get()
	if err != nil {
		m.mu.Lock()
		m.v.Set(key, old)
		m.mu.Unlock()
		return err
	}
	return m.write(cfg)
}

// Save writes the current configuration.
func (m *Manager) Save() error {
	cfg, err := m.Get()
	if err != nil {
		return err
	}
	return m.write(cfg)
}

func (m *Manager) write(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := afero.WriteFile(m.fs, m.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	logger.WithComponent("config").Debug().Str("path", m.path).Msg("Config saved")
	return nil
}

// Watch calls onChange with the reloaded configuration whenever the file
// changes. Invalid edits are logged and skipped.
func (m *Manager) Watch(onChange func(*Config)) {
	m.v.OnConfigChange(func(e fsnotify.Event) {
		log := logger.WithComponent("config")
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := m.Get()
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("Ignoring invalid config change")
			return
		}
		log.Info().Str("file", e.Name).Msg("Config reloaded")
		onChange(cfg)
	})
	m.v.WatchConfig()
}

// intKeys and boolKeys are parsed before they are stored.
var (
	intKeys = map[string]bool{
		"max_depth": true, "icon.width": true, "icon.height": true,
		"tile.width": true, "tile.height": true,
	}
	boolKeys = map[string]bool{
		"ignore_skip_taskbar": true, "icon.prefer_newer": true, "log_pretty": true,
	}
)

func parseValue(key, value string) (interface{}, error) {
	switch {
	case intKeys[key]:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid number for %s: %s", key, value)
		}
		return n, nil
	case boolKeys[key]:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean for %s: %s (use true or false)", key, value)
		}
		return b, nil
	case key == "icon.extra_dirs":
		if value == "" {
			return []string{}, nil
		}
		return strings.Split(value, ":"), nil
	}
	return value, nil
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks every enumerated value.
func (c *Config) Validate() error {
	if _, err := window.ParseKind(c.WindowManager); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.Filter(); err != nil {
		return err
	}
	if _, err := xconn.ParseViewportMode(c.Viewport); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := registry.ParseIconMode(c.Icon.Source); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Icon.Width <= 0 || c.Icon.Height <= 0 {
		return fmt.Errorf("%w: icon size must be positive", ErrInvalid)
	}
	if c.Tile.Width <= 0 || c.Tile.Height <= 0 {
		return fmt.Errorf("%w: tile size must be positive", ErrInvalid)
	}
	if c.MaxDepth < window.Unlimited {
		return fmt.Errorf("%w: max_depth must be -1 or more", ErrInvalid)
	}
	if _, err := c.Theme(); err != nil {
		return err
	}
	if c.Keys.Main == "" || c.Keys.ModifierKeysym == "" {
		return fmt.Errorf("%w: keys.main and keys.modifier_keysym are required", ErrInvalid)
	}
	return nil
}

// Filter converts the policy keys.
func (c *Config) Filter() (window.Filter, error) {
	desktops, err := window.ParseDesktopMode(c.Desktops)
	if err != nil {
		return window.Filter{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	screens, err := window.ParseScreenMode(c.Screens)
	if err != nil {
		return window.Filter{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return window.Filter{
		Desktops:          desktops,
		Screens:           screens,
		IgnoreSkipTaskbar: c.IgnoreSkipTaskbar,
		Current:           window.DesktopUnknown,
	}, nil
}

// Theme converts the color keys.
func (c *Config) Theme() (display.Theme, error) {
	var t display.Theme
	var err error
	if t.Background, err = display.ParseColor(c.Colors.Background); err != nil {
		return t, fmt.Errorf("%w: colors.background: %v", ErrInvalid, err)
	}
	if t.Foreground, err = display.ParseColor(c.Colors.Foreground); err != nil {
		return t, fmt.Errorf("%w: colors.foreground: %v", ErrInvalid, err)
	}
	if t.Frame, err = display.ParseColor(c.Colors.Frame); err != nil {
		return t, fmt.Errorf("%w: colors.frame: %v", ErrInvalid, err)
	}
	return t, nil
}

// Kind returns the configured backend kind.
func (c *Config) Kind() window.Kind {
	k, _ := window.ParseKind(c.WindowManager)
	return k
}

// IconMode returns the configured icon source.
func (c *Config) IconMode() registry.IconMode {
	m, _ := registry.ParseIconMode(c.Icon.Source)
	return m
}

// ViewportMode returns the configured viewport mode.
func (c *Config) ViewportMode() xconn.ViewportMode {
	m, _ := xconn.ParseViewportMode(c.Viewport)
	return m
}

// IconTarget returns the icon size.
func (c *Config) IconTarget() icon.Target {
	return icon.Target{Width: c.Icon.Width, Height: c.Icon.Height}
}

// KeyBindings returns the key grab description.
func (c *Config) KeyBindings() xconn.Keys {
	return xconn.Keys{Main: c.Keys.Main, Modifier: c.Keys.ModifierKeysym, Backward: c.Keys.Backward}
}
