// Package config holds the run configuration: built-in defaults, an optional
// YAML file and command line overrides, in that order.
package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"philipredstone/netcam/internal/apperr"
	"philipredstone/netcam/internal/calib"
	"philipredstone/netcam/internal/snapshot"
	"philipredstone/netcam/internal/undistort"
)

// Config is everything a capture run needs. ID and PW only take effect
// together.
type Config struct {
	URL string `yaml:"url"`
	ID  string `yaml:"id"`
	PW  string `yaml:"pw"`
	// Sec is the save interval in seconds. Nil until set by the file or a flag.
	Sec *float64 `yaml:"sec"`

	Timeout       time.Duration `yaml:"timeout"`
	Retries       int           `yaml:"retries"`
	Out           string        `yaml:"out"`
	Format        string        `yaml:"format"`
	Backend       string        `yaml:"backend"`
	SkipBadFrames bool          `yaml:"skip_bad_frames"`
	Debug         bool          `yaml:"debug"`
	Distortion    calib.Coeffs  `yaml:"distortion"`
}

// Default returns the built-in defaults. Sec and URL have none.
func Default() Config {
	return Config{
		Timeout: 10 * time.Second,
		Out:     ".",
		Format:  "png",
		Backend: undistort.DefaultBackend,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, apperr.New(apperr.Config, err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, apperr.New(apperr.Config, err, "parse config "+path)
	}
	return cfg, nil
}

// Interval returns the save interval, zero when unset.
func (c Config) Interval() float64 {
	if c.Sec == nil {
		return 0
	}
	return *c.Sec
}

// Validate checks the merged configuration and returns a Config error for
// the first problem found.
func (c Config) Validate() error {
	if c.Sec == nil {
		return apperr.Newf(apperr.Config, "--sec is required")
	}
	if s := *c.Sec; s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return apperr.Newf(apperr.Config, "--sec must be a non-negative number, got %v", s)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return apperr.New(apperr.Config, err, "camera url")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.Newf(apperr.Config, "camera url %q must be an absolute http(s) url", c.URL)
	}
	if c.Timeout <= 0 {
		return apperr.Newf(apperr.Config, "timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return apperr.Newf(apperr.Config, "retries must not be negative, got %d", c.Retries)
	}
	if c.Format != "jpg" && !contains(snapshot.Formats(), c.Format) {
		return apperr.Newf(apperr.Config, "unknown format %q, want one of %v", c.Format, snapshot.Formats())
	}
	if !contains(undistort.Backends(), c.Backend) {
		return apperr.Newf(apperr.Config, "unknown backend %q, want one of %v", c.Backend, undistort.Backends())
	}
	for i, v := range c.Distortion {
		if v < calib.MinCoeff || v > calib.MaxCoeff || math.IsNaN(v) {
			return apperr.Newf(apperr.Config, "distortion[%d] = %v out of range [%v, %v]", i, v, calib.MinCoeff, calib.MaxCoeff)
		}
	}
	return nil
}

// String renders the config for logging with the password redacted.
func (c Config) String() string {
	pw := ""
	if c.PW != "" {
		pw = "***"
	}
	sec := "unset"
	if c.Sec != nil {
		sec = fmt.Sprint(*c.Sec)
	}
	return fmt.Sprintf("url=%s id=%q pw=%q sec=%s timeout=%s retries=%d out=%s format=%s backend=%s skip_bad_frames=%v distortion=%v",
		c.URL, c.ID, pw, sec, c.Timeout, c.Retries, c.Out, c.Format, c.Backend, c.SkipBadFrames, [5]float64(c.Distortion))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
