package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDatasetURL is the ECDC case distribution export.
const DefaultDatasetURL = "https://opendata.ecdc.europa.eu/covid19/casedistribution/csv"

// Config represents the covidmap configuration loaded from YAML.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Charts    ChartsConfig    `yaml:"charts"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls HTTP server settings.
type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	Debug        bool          `yaml:"debug"`
	PidFile      string        `yaml:"pid_file"`
}

// DatasetConfig describes where and how the case table is fetched.
type DatasetConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	DateLayout string        `yaml:"date_layout"`
}

// DashboardConfig holds the static page content.
type DashboardConfig struct {
	Heading     string   `yaml:"heading"`
	Lines       []string `yaml:"lines"`
	Stylesheets []string `yaml:"stylesheets"`
	PlotlyJS    string   `yaml:"plotly_js"`
	Background  string   `yaml:"background"`
	TextColor   string   `yaml:"text_color"`
}

// ChartsConfig fixes the static chart parameters.
type ChartsConfig struct {
	DeathsRange      [2]float64 `yaml:"deaths_range"`
	TotalDeathsRange [2]float64 `yaml:"total_deaths_range"`
	TopDeaths        int        `yaml:"top_deaths"`
}

// CacheConfig configures ristretto caching of rendered figures.
type CacheConfig struct {
	Enabled     bool          `yaml:"enabled"`
	NumCounters int64         `yaml:"num_counters"`
	MaxCost     int64         `yaml:"max_cost"`
	BufferItems int64         `yaml:"buffer_items"`
	TTL         time.Duration `yaml:"ttl"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from the supplied path or returns defaults.
// Environment references like ${VAR} are expanded before decoding.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings the run cannot proceed with.
func (c Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must be set")
	}
	if c.Dataset.URL == "" {
		return fmt.Errorf("dataset.url must be set")
	}
	if c.Dataset.DateLayout == "" {
		return fmt.Errorf("dataset.date_layout must be set")
	}
	for name, r := range map[string][2]float64{
		"charts.deaths_range":       c.Charts.DeathsRange,
		"charts.total_deaths_range": c.Charts.TotalDeathsRange,
	} {
		if r[0] >= r[1] {
			return fmt.Errorf("%s: min %v must be below max %v", name, r[0], r[1])
		}
	}
	return nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:      "127.0.0.1:8050",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			Debug:        true,
			PidFile:      "covidmap.pid",
		},
		Dataset: DatasetConfig{
			URL:        DefaultDatasetURL,
			Timeout:    2 * time.Minute,
			DateLayout: "02/01/2006",
		},
		Dashboard: DashboardConfig{
			Heading: "Live Covid-19 Visualization",
			Lines: []string{
				"By scrolling down you can find graphs that you can interact with!",
				"Made By Christian Vedeler",
			},
			Stylesheets: []string{"https://codepen.io/chriddyp/pen/bWLwgP.css"},
			PlotlyJS:    "https://cdn.plot.ly/plotly-2.35.2.min.js",
			Background:  "#111111",
			TextColor:   "#7FDBFF",
		},
		Charts: ChartsConfig{
			DeathsRange:      [2]float64{0, 2500},
			TotalDeathsRange: [2]float64{0, 80000},
			TopDeaths:        15,
		},
		Cache: CacheConfig{
			Enabled:     true,
			NumCounters: 1e3,
			MaxCost:     1 << 28,
			BufferItems: 64,
			TTL:         24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
