package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML representation of Config. Unset fields leave the
// corresponding Config value untouched.
type FileConfig struct {
	Site struct {
		Website          string `yaml:"website"`
		LinkSelector     string `yaml:"link_selector"`
		HeadlineSelector string `yaml:"headline_selector"`
		BodySelector     string `yaml:"body_selector"`
	} `yaml:"site"`
	Browser struct {
		Engine               string   `yaml:"engine"`
		Headless             *bool    `yaml:"headless"`
		NoSandbox            *bool    `yaml:"no_sandbox"`
		BrowserBin           string   `yaml:"browser_bin"`
		Proxy                string   `yaml:"proxy"`
		Stealth              *bool    `yaml:"stealth"`
		UserAgent            string   `yaml:"user_agent"`
		BlockedResourceTypes []string `yaml:"blocked_resource_types"`
	} `yaml:"browser"`
	Scraper struct {
		Delay             string `yaml:"delay"`
		NavigationTimeout string `yaml:"navigation_timeout"`
		BodyFormat        string `yaml:"body_format"`
		LinksOnly         *bool  `yaml:"links_only"`
	} `yaml:"scraper"`
	Export struct {
		DataDir  string `yaml:"data_dir"`
		Filename string `yaml:"filename"`
	} `yaml:"export"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	delay             time.Duration
	navigationTimeout time.Duration
}

// LoadFile reads and parses the YAML configuration file at path.
// Durations are validated here so a typo fails before the browser starts.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.Scraper.Delay != "" {
		if fc.delay, err = time.ParseDuration(fc.Scraper.Delay); err != nil {
			return nil, fmt.Errorf("config file: scraper.delay: %w", err)
		}
	}
	if fc.Scraper.NavigationTimeout != "" {
		if fc.navigationTimeout, err = time.ParseDuration(fc.Scraper.NavigationTimeout); err != nil {
			return nil, fmt.Errorf("config file: scraper.navigation_timeout: %w", err)
		}
	}

	return &fc, nil
}

// Apply overlays every field set in the file onto cfg.
func (fc *FileConfig) Apply(cfg *Config) {
	setString(&cfg.Site.Website, fc.Site.Website)
	setString(&cfg.Site.LinkSelector, fc.Site.LinkSelector)
	setString(&cfg.Site.HeadlineSelector, fc.Site.HeadlineSelector)
	setString(&cfg.Site.BodySelector, fc.Site.BodySelector)

	setString(&cfg.Browser.Engine, fc.Browser.Engine)
	setBool(&cfg.Browser.Headless, fc.Browser.Headless)
	setBool(&cfg.Browser.NoSandbox, fc.Browser.NoSandbox)
	setString(&cfg.Browser.BrowserBin, fc.Browser.BrowserBin)
	setString(&cfg.Browser.Proxy, fc.Browser.Proxy)
	setBool(&cfg.Browser.Stealth, fc.Browser.Stealth)
	setString(&cfg.Browser.UserAgent, fc.Browser.UserAgent)
	if fc.Browser.BlockedResourceTypes != nil {
		cfg.Browser.BlockedResourceTypes = fc.Browser.BlockedResourceTypes
	}

	if fc.delay > 0 {
		cfg.Scraper.Delay = fc.delay
	}
	if fc.navigationTimeout > 0 {
		cfg.Scraper.NavigationTimeout = fc.navigationTimeout
	}
	setString(&cfg.Scraper.BodyFormat, fc.Scraper.BodyFormat)
	setBool(&cfg.Scraper.LinksOnly, fc.Scraper.LinksOnly)

	setString(&cfg.Export.DataDir, fc.Export.DataDir)
	setString(&cfg.Export.Filename, fc.Export.Filename)

	setString(&cfg.Log.Level, fc.Log.Level)
	setString(&cfg.Log.Format, fc.Log.Format)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
