package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const compatibleVersion = "1.0"

// ErrConfigNotFound は、設定ファイルが存在しないことを表します。
var ErrConfigNotFound = errors.New("設定ファイルが見つかりません")

// Format は設定ファイルの書式です。
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// configFileNames は、カレントディレクトリとXDG設定ディレクトリで探索するファイル名です。
var configFileNames = []string{"config.json", "config.yaml", "config.yml"}

// taskPatch は、タスク設定をデコードするための中間ヘルパー構造体です。
type taskPatch struct {
	Enabled                *bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TaskName               *string `json:"task_name,omitempty" yaml:"task_name,omitempty"`
	UseTemplate            string  `json:"use_template,omitempty" yaml:"use_template,omitempty"`
	SiteAdapter            *string `json:"site_adapter,omitempty" yaml:"site_adapter,omitempty"`
	BaseURL                *string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	MediaURLPattern        *string `json:"media_url_pattern,omitempty" yaml:"media_url_pattern,omitempty"`
	SaveRootDirectory      *string `json:"save_root_directory,omitempty" yaml:"save_root_directory,omitempty"`
	DirectoryFormat        *string `json:"directory_format,omitempty" yaml:"directory_format,omitempty"`
	MaxConcurrentDownloads *int    `json:"max_concurrent_downloads,omitempty" yaml:"max_concurrent_downloads,omitempty"`
	MaxPages               *int    `json:"max_pages,omitempty" yaml:"max_pages,omitempty"`
	RetryCount             *int    `json:"retry_count,omitempty" yaml:"retry_count,omitempty"`
	RetryBackoffMillis     *int    `json:"retry_backoff_ms,omitempty" yaml:"retry_backoff_ms,omitempty"`
}

// rawConfig は、設定ファイルをデコードするための中間構造体です。
type rawConfig struct {
	ConfigVersion            string               `json:"config_version" yaml:"config_version"`
	OutputRootDirectory      string               `json:"output_root_directory" yaml:"output_root_directory"`
	Network                  NetworkSettings      `json:"network" yaml:"network"`
	GlobalMaxConcurrentTasks int                  `json:"global_max_concurrent_tasks" yaml:"global_max_concurrent_tasks"`
	LogLevel                 string               `json:"log_level" yaml:"log_level"`
	LogPretty                bool                 `json:"log_pretty" yaml:"log_pretty"`
	EnableLogFile            bool                 `json:"enable_log_file" yaml:"enable_log_file"`
	LogFilePath              string               `json:"log_file_path" yaml:"log_file_path"`
	MetricsAddr              string               `json:"metrics_addr" yaml:"metrics_addr"`
	Pokedex                  PokedexSettings      `json:"pokedex" yaml:"pokedex"`
	TaskTemplates            map[string]taskPatch `json:"task_templates" yaml:"task_templates"`
	Tasks                    []taskPatch          `json:"tasks" yaml:"tasks"`
}

// FindConfigFile は、設定ファイルを次の順序で探索します。
//  1. 明示的に指定されたパス
//  2. カレントディレクトリの pokescrape.{json,yaml,yml}
//  3. XDG設定ディレクトリの config.{json,yaml,yml}
//
// 見つからない場合は空文字列を返します。
func FindConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	for _, name := range configFileNames {
		local := AppName + filepath.Ext(name)
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}

	dir := XDGConfigDir()
	for _, name := range configFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Load は、設定ファイルを探索して読み込みます。
// explicit が空でファイルが見つからない場合は Default() を返します。
// explicit が指定されていて存在しない場合は ErrConfigNotFound を返します。
func Load(explicit string) (*Config, error) {
	path := FindConfigFile(explicit)
	if path == "" {
		if explicit != "" {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, explicit)
		}
		return Default(), nil
	}
	return LoadAndResolve(path)
}

// LoadAndResolve は、指定されたパスから設定ファイルを読み込み、解析と解決を行います。
// 拡張子が .yaml / .yml の場合はYAMLとして、それ以外はJSONとして解析します。
func LoadAndResolve(path string) (*Config, error) {
	absPath, _ := filepath.Abs(path)
	cwd, _ := os.Getwd()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("設定ファイル '%s' の読み込みに失敗しました (Abs: '%s', Cwd: '%s'): %w", path, absPath, cwd, err)
	}
	return ParseAndResolve(data, formatFromPath(path))
}

func formatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseAndResolve は、設定データのバイトスライスを解析し、テンプレートを解決して最終的な設定を返します。
// この関数はテストのために分離されています。
func ParseAndResolve(data []byte, format Format) (*Config, error) {
	var rawCfg rawConfig
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &rawCfg); err != nil {
			return nil, fmt.Errorf("設定ファイルのYAML解析に失敗しました: %w", err)
		}
	default:
		if err := decodeJSON(data, &rawCfg); err != nil {
			return nil, err
		}
	}

	if rawCfg.ConfigVersion != compatibleVersion {
		return nil, fmt.Errorf("サポートされていない設定バージョン '%s' です。'%s' が必要です。", rawCfg.ConfigVersion, compatibleVersion)
	}

	resolvedConfig := &Config{
		ConfigVersion:            rawCfg.ConfigVersion,
		OutputRootDirectory:      rawCfg.OutputRootDirectory,
		Network:                  rawCfg.Network,
		GlobalMaxConcurrentTasks: rawCfg.GlobalMaxConcurrentTasks,
		LogLevel:                 rawCfg.LogLevel,
		LogPretty:                rawCfg.LogPretty,
		EnableLogFile:            rawCfg.EnableLogFile,
		LogFilePath:              rawCfg.LogFilePath,
		MetricsAddr:              rawCfg.MetricsAddr,
		Pokedex:                  rawCfg.Pokedex,
		TaskTemplates:            make(map[string]Task, len(rawCfg.TaskTemplates)),
		Tasks:                    make([]Task, 0, len(rawCfg.Tasks)),
	}

	for name, templatePatch := range rawCfg.TaskTemplates {
		var template Task
		applyPatch(&template, &templatePatch)
		resolvedConfig.TaskTemplates[name] = template
	}

	for _, patch := range rawCfg.Tasks {
		var resolvedTask Task
		retrySet := patch.RetryCount != nil
		if patch.UseTemplate != "" {
			templatePatch, ok := rawCfg.TaskTemplates[patch.UseTemplate]
			if !ok {
				taskName := "unknown"
				if patch.TaskName != nil {
					taskName = *patch.TaskName
				}
				return nil, fmt.Errorf("タスク '%s' が未定義のテンプレート '%s' を使用しています", taskName, patch.UseTemplate)
			}
			resolvedTask = resolvedConfig.TaskTemplates[patch.UseTemplate]
			retrySet = retrySet || templatePatch.RetryCount != nil
		}
		applyPatch(&resolvedTask, &patch)
		// retry_count: 0 は再試行なしとして扱い、未指定の場合だけ既定値を使う
		if !retrySet {
			resolvedTask.RetryCount = DefaultRetryCount
		}
		if resolvedTask.SiteAdapter == "" {
			return nil, fmt.Errorf("タスク '%s' に site_adapter が指定されていません", resolvedTask.TaskName)
		}
		resolvedConfig.Tasks = append(resolvedConfig.Tasks, resolvedTask)
	}

	applyDefaults(resolvedConfig)
	return resolvedConfig, nil
}

func decodeJSON(data []byte, rawCfg *rawConfig) error {
	err := json.Unmarshal(data, rawCfg)
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	if errors.As(err, &syntaxErr) {
		line, col := computeLineAndColumn(data, syntaxErr.Offset)
		return fmt.Errorf("設定ファイルのJSON構文エラー (行 %d, 列 %d): %w", line, col, err)
	}
	if errors.As(err, &typeErr) {
		line, col := computeLineAndColumn(data, typeErr.Offset)
		return fmt.Errorf("設定ファイルの型エラー (行 %d, 列 %d, フィールド '%s'): 期待値 %v, 実際 %v - %w",
			line, col, typeErr.Field, typeErr.Type, typeErr.Value, err)
	}
	return fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
}

// applyPatch は、patchの非nilフィールドをtargetに上書きします。
func applyPatch(target *Task, patch *taskPatch) {
	target.UseTemplate = patch.UseTemplate
	if patch.Enabled != nil {
		enabled := *patch.Enabled
		target.Enabled = &enabled
	}
	if patch.TaskName != nil {
		target.TaskName = *patch.TaskName
	}
	if patch.SiteAdapter != nil {
		target.SiteAdapter = *patch.SiteAdapter
	}
	if patch.BaseURL != nil {
		target.BaseURL = *patch.BaseURL
	}
	if patch.MediaURLPattern != nil {
		target.MediaURLPattern = *patch.MediaURLPattern
	}
	if patch.SaveRootDirectory != nil {
		target.SaveRootDirectory = *patch.SaveRootDirectory
	}
	if patch.DirectoryFormat != nil {
		target.DirectoryFormat = *patch.DirectoryFormat
	}
	if patch.MaxConcurrentDownloads != nil {
		target.MaxConcurrentDownloads = *patch.MaxConcurrentDownloads
	}
	if patch.MaxPages != nil {
		target.MaxPages = *patch.MaxPages
	}
	if patch.RetryCount != nil {
		target.RetryCount = *patch.RetryCount
	}
	if patch.RetryBackoffMillis != nil {
		target.RetryBackoffMillis = *patch.RetryBackoffMillis
	}
}

// computeLineAndColumn は、バイトオフセットから行番号と列番号（1始まり）を計算します。
func computeLineAndColumn(data []byte, offset int64) (int, int) {
	if offset < 0 || int(offset) > len(data) {
		return 0, 0
	}
	line := 1
	lastLineStart := 0
	for i, b := range data {
		if int64(i) == offset {
			return line, i - lastLineStart + 1
		}
		if b == '\n' {
			line++
			lastLineStart = i + 1
		}
	}
	return line, int(offset) - lastLineStart + 1
}
