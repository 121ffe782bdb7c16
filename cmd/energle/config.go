package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/energle/pkg/dataset"
	"github.com/hazyhaar/energle/pkg/game"
	"github.com/hazyhaar/energle/pkg/score"
)

type config struct {
	Addr     string `yaml:"addr"`
	Chassis  bool   `yaml:"chassis"` // HTTPS + HTTP/3 + MCP over QUIC instead of plain HTTP
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	DataDir    string            `yaml:"data_dir"`
	BaseURL    string            `yaml:"base_url"` // fetch datasets over HTTP instead of data_dir
	Preference string            `yaml:"preference"`
	Families   []dataset.Family  `yaml:"families"`
	SampleFile string            `yaml:"sample_file"`
	HistoryDB  string            `yaml:"history_db"`
	Timezone   string            `yaml:"timezone"`
	Scoring    string            `yaml:"scoring"`
	Aliases    map[string]string `yaml:"aliases"`
	Debug      bool              `yaml:"debug"`
}

func defaultConfig() config {
	return config{
		Addr:      ":8420",
		DataDir:   ".",
		HistoryDB: "energle.db",
		Timezone:  "UTC",
		Scoring:   string(score.StrategyTotalEnergy),
	}
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string, logger *slog.Logger) (config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no config file, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (c config) fetcher() (dataset.Fetcher, error) {
	if c.BaseURL != "" {
		return dataset.NewHTTPFetcher(c.BaseURL, &http.Client{Timeout: 30 * time.Second})
	}
	return dataset.FSFetcher{FS: os.DirFS(c.DataDir)}, nil
}

func (c config) datasetOptions(logger *slog.Logger) (dataset.Options, error) {
	f, err := c.fetcher()
	if err != nil {
		return dataset.Options{}, err
	}
	return dataset.Options{
		Fetcher:    f,
		Families:   c.Families,
		Preferred:  c.Preference,
		SampleFile: c.SampleFile,
		Logger:     logger,
		Debug:      c.Debug,
	}, nil
}

func (c config) gameConfig(logger *slog.Logger) (game.Config, error) {
	opts, err := c.datasetOptions(logger)
	if err != nil {
		return game.Config{}, err
	}
	strategy, err := score.ParseStrategy(c.Scoring)
	if err != nil {
		return game.Config{}, err
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return game.Config{}, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	aliases := game.DefaultAliases()
	for k, v := range c.Aliases {
		aliases[k] = v
	}
	return game.Config{
		Dataset:  opts,
		Strategy: strategy,
		Aliases:  aliases,
		Location: loc,
		Logger:   logger,
	}, nil
}
