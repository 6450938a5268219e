// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads surfcache settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/backend"
	"github.com/gogpu/surfcache/format"
)

// EnvPrefix prefixes environment overrides, e.g. SURFCACHE_BACKEND.
const EnvPrefix = "SURFCACHE"

type Config struct {
	Backend string `mapstructure:"backend" yaml:"backend"`

	RenderTargetLock   string `mapstructure:"render_target_lock" yaml:"render_target_lock"`
	OffscreenRendering string `mapstructure:"offscreen_rendering" yaml:"offscreen_rendering"`

	MaxTextureSize   int  `mapstructure:"max_texture_size" yaml:"max_texture_size"`
	NonPow2          bool `mapstructure:"nonpow2" yaml:"nonpow2"`
	PalettedTextures bool `mapstructure:"paletted_textures" yaml:"paletted_textures"`
	SignedFormats    bool `mapstructure:"signed_formats" yaml:"signed_formats"`
	FramebufferBlit  bool `mapstructure:"framebuffer_blit" yaml:"framebuffer_blit"`

	// Swapchain of the device. A zero width opens a device without one.
	Width       int    `mapstructure:"width" yaml:"width"`
	Height      int    `mapstructure:"height" yaml:"height"`
	Format      string `mapstructure:"format" yaml:"format"`
	BackBuffers int    `mapstructure:"back_buffers" yaml:"back_buffers"`

	// Adapter picks a HAL adapter by index; zero picks the first hardware GPU.
	Adapter int `mapstructure:"adapter" yaml:"adapter"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		RenderTargetLock:   surfcache.RTLAuto.String(),
		OffscreenRendering: surfcache.OffscreenBackbuffer.String(),
		MaxTextureSize:     8192,
		NonPow2:            true,
		Format:             format.X8R8G8B8.String(),
		BackBuffers:        1,
		LogLevel:           "warn",
	}
}

// Load reads cfgFile, or surfcache.yaml from the config directory and
// the working directory when cfgFile is empty. A missing default file is
// not an error. Environment variables override both.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("surfcache")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "surfcache"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// no file sets.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("render_target_lock", cfg.RenderTargetLock)
	v.SetDefault("offscreen_rendering", cfg.OffscreenRendering)
	v.SetDefault("max_texture_size", cfg.MaxTextureSize)
	v.SetDefault("nonpow2", cfg.NonPow2)
	v.SetDefault("paletted_textures", cfg.PalettedTextures)
	v.SetDefault("signed_formats", cfg.SignedFormats)
	v.SetDefault("framebuffer_blit", cfg.FramebufferBlit)
	v.SetDefault("width", cfg.Width)
	v.SetDefault("height", cfg.Height)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("back_buffers", cfg.BackBuffers)
	v.SetDefault("adapter", cfg.Adapter)
	v.SetDefault("log_level", cfg.LogLevel)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := surfcache.ParseRenderTargetLockMode(c.RenderTargetLock); err != nil {
		errs = append(errs, err)
	}
	if _, err := surfcache.ParseOffscreenMode(c.OffscreenRendering); err != nil {
		errs = append(errs, err)
	}
	if c.MaxTextureSize < 0 {
		errs = append(errs, fmt.Errorf("max_texture_size %d is negative", c.MaxTextureSize))
	}
	if c.Width < 0 || c.Height < 0 || (c.Width > 0) != (c.Height > 0) {
		errs = append(errs, fmt.Errorf("swapchain size %dx%d is invalid", c.Width, c.Height))
	}
	if c.Format != "" {
		if _, ok := format.Parse(c.Format); !ok {
			errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
		}
	}
	if c.BackBuffers < 0 {
		errs = append(errs, fmt.Errorf("back_buffers %d is negative", c.BackBuffers))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Options returns the device options. Unknown mode names fall back to the
// defaults; Validate reports them.
func (c *Config) Options() surfcache.Options {
	o := surfcache.DefaultOptions()
	if m, err := surfcache.ParseRenderTargetLockMode(c.RenderTargetLock); err == nil {
		o.RenderTargetLock = m
	}
	if m, err := surfcache.ParseOffscreenMode(c.OffscreenRendering); err == nil {
		o.OffscreenRendering = m
	}
	return o
}

func (c *Config) Caps() surfcache.Caps {
	return surfcache.Caps{
		MaxTextureSize:   c.MaxTextureSize,
		NonPow2:          c.NonPow2,
		PalettedTextures: c.PalettedTextures,
		SignedFormats:    c.SignedFormats,
		FramebufferBlit:  c.FramebufferBlit,
	}
}

// BackendConfig returns the factory configuration.
func (c *Config) BackendConfig() backend.Config {
	bc := backend.Config{
		Caps:        c.Caps(),
		Options:     c.Options(),
		Width:       c.Width,
		Height:      c.Height,
		BackBuffers: c.BackBuffers,
		Adapter:     c.Adapter,
	}
	if f, ok := format.Parse(c.Format); ok {
		bc.Format = f
	}
	return bc
}

// Level returns the slog level named by LogLevel, Warn when it is unknown.
func (c *Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("unknown log level %q", s)
}

// YAML returns the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// SaveTo writes the configuration as YAML to path.
func (c *Config) SaveTo(path string) error {
	b, err := c.YAML()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}
