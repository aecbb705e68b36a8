// Package config は、アプリケーションの設定ファイル(JSON/YAML)の構造定義と、
// その読み込み、解決（テンプレートのマージなど）に関する機能を提供します。
package config

import (
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

// AppName は、設定ディレクトリやログファイル名に使われるアプリケーション名です。
const AppName = "pokescrape"

// 既定値
const (
	DefaultOutputRoot       = "data"
	DefaultDirectoryFormat  = "{id}"
	DefaultRetryCount       = 5
	DefaultRetryBackoffMS   = 500
	DefaultRequestTimeoutMS = 30000
	DefaultUserAgent        = "Mozilla/5.0 (compatible; pokescrape/1.0)"
	DefaultPokedexStart     = 1
	DefaultPokedexEnd       = 151
)

// Config は設定ファイル全体を表すルート構造体です。
type Config struct {
	ConfigVersion            string          `json:"config_version" yaml:"config_version"`
	OutputRootDirectory      string          `json:"output_root_directory,omitempty" yaml:"output_root_directory,omitempty"`
	Network                  NetworkSettings `json:"network" yaml:"network"`
	GlobalMaxConcurrentTasks int             `json:"global_max_concurrent_tasks" yaml:"global_max_concurrent_tasks"`
	LogLevel                 string          `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogPretty                bool            `json:"log_pretty,omitempty" yaml:"log_pretty,omitempty"`
	EnableLogFile            bool            `json:"enable_log_file" yaml:"enable_log_file"`
	LogFilePath              string          `json:"log_file_path,omitempty" yaml:"log_file_path,omitempty"`
	MetricsAddr              string          `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
	Pokedex                  PokedexSettings `json:"pokedex" yaml:"pokedex"`
	TaskTemplates            map[string]Task `json:"task_templates,omitempty" yaml:"task_templates,omitempty"`
	Tasks                    []Task          `json:"tasks" yaml:"tasks"`
}

// NetworkSettings は、HTTPリクエストに関するグローバルな設定を保持します。
type NetworkSettings struct {
	UserAgent               string            `json:"user_agent" yaml:"user_agent"`
	DefaultHeaders          map[string]string `json:"default_headers" yaml:"default_headers"`
	PerDomainIntervalMillis map[string]int    `json:"per_domain_interval_ms" yaml:"per_domain_interval_ms"`
	RequestTimeoutMillis    int               `json:"request_timeout_ms" yaml:"request_timeout_ms"`
	// Cookies は、ホストごとに起動時から送信する Cookie (名前と値) です。
	Cookies map[string]map[string]string `json:"cookies,omitempty" yaml:"cookies,omitempty"`
}

// PokedexSettings は、図鑑（インデックス）の取得元と範囲を定義します。
type PokedexSettings struct {
	// Source は "bulbapedia" または "pokeapi" です。
	Source        string `json:"source,omitempty" yaml:"source,omitempty"`
	BaseURL       string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Start         int    `json:"start,omitempty" yaml:"start,omitempty"`
	End           int    `json:"end,omitempty" yaml:"end,omitempty"`
	All           bool   `json:"all,omitempty" yaml:"all,omitempty"`
	TableSelector string `json:"table_selector,omitempty" yaml:"table_selector,omitempty"`
}

// Task は単一のサイトに対するスクレイピングタスクを定義します。
type Task struct {
	Enabled                *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TaskName               string `json:"task_name,omitempty" yaml:"task_name,omitempty"`
	UseTemplate            string `json:"use_template,omitempty" yaml:"use_template,omitempty"`
	SiteAdapter            string `json:"site_adapter,omitempty" yaml:"site_adapter,omitempty"`
	BaseURL                string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	MediaURLPattern        string `json:"media_url_pattern,omitempty" yaml:"media_url_pattern,omitempty"`
	SaveRootDirectory      string `json:"save_root_directory,omitempty" yaml:"save_root_directory,omitempty"`
	DirectoryFormat        string `json:"directory_format,omitempty" yaml:"directory_format,omitempty"`
	MaxConcurrentDownloads int    `json:"max_concurrent_downloads,omitempty" yaml:"max_concurrent_downloads,omitempty"`
	MaxPages               int    `json:"max_pages,omitempty" yaml:"max_pages,omitempty"`
	RetryCount             int    `json:"retry_count,omitempty" yaml:"retry_count,omitempty"`
	RetryBackoffMillis     int    `json:"retry_backoff_ms,omitempty" yaml:"retry_backoff_ms,omitempty"`
}

// IsEnabled は、タスクが有効かどうかを返します。未指定の場合は有効です。
func (t Task) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// Workers は、ダウンロードワーカー数を返します。
// 未指定の場合は CPU 数 - 1 （最低1）です。
func (t Task) Workers() int {
	if t.MaxConcurrentDownloads > 0 {
		return t.MaxConcurrentDownloads
	}
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// Default は、設定ファイルが無い場合に使われる設定を返します。
// Bulbapedia の図鑑から第1世代を取得し、全サイトをスクレイピングします。
func Default() *Config {
	cfg := &Config{
		ConfigVersion: compatibleVersion,
		Tasks: []Task{
			{TaskName: "bulbapedia-archives", SiteAdapter: "bulbapedia", RetryCount: DefaultRetryCount},
			{TaskName: "pokemon-tcg-cards", SiteAdapter: "pokemoncards", RetryCount: DefaultRetryCount},
			{TaskName: "pokemondb-sprites", SiteAdapter: "pokemondb", RetryCount: DefaultRetryCount},
			{TaskName: "zerochan-gallery", SiteAdapter: "zerochan", RetryCount: DefaultRetryCount},
		},
	}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults は、未設定の項目に既定値を埋めます。
func applyDefaults(cfg *Config) {
	if cfg.OutputRootDirectory == "" {
		cfg.OutputRootDirectory = DefaultOutputRoot
	}
	if cfg.GlobalMaxConcurrentTasks <= 0 {
		cfg.GlobalMaxConcurrentTasks = 1
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Network.UserAgent == "" {
		cfg.Network.UserAgent = DefaultUserAgent
	}
	if cfg.Network.RequestTimeoutMillis <= 0 {
		cfg.Network.RequestTimeoutMillis = DefaultRequestTimeoutMS
	}
	if cfg.Pokedex.Source == "" {
		cfg.Pokedex.Source = "bulbapedia"
	}
	if cfg.Pokedex.Start <= 0 {
		cfg.Pokedex.Start = DefaultPokedexStart
	}
	if cfg.Pokedex.End <= 0 {
		cfg.Pokedex.End = DefaultPokedexEnd
	}

	for i := range cfg.Tasks {
		task := &cfg.Tasks[i]
		if task.TaskName == "" {
			task.TaskName = task.SiteAdapter
		}
		if task.SaveRootDirectory == "" {
			task.SaveRootDirectory = filepath.Join(cfg.OutputRootDirectory, task.SiteAdapter)
		}
		if task.DirectoryFormat == "" {
			task.DirectoryFormat = DefaultDirectoryFormat
		}
		if task.RetryCount < 0 {
			task.RetryCount = 0
		}
		if task.RetryBackoffMillis <= 0 {
			task.RetryBackoffMillis = DefaultRetryBackoffMS
		}
	}
}

// XDGConfigDir は、XDG Base Directory に従った設定ディレクトリを返します。
// Linux では ~/.config/pokescrape です。
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
