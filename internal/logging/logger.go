// Package logging は、zerolog による構造化ログの設定を提供します。
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config はロガーの設定です。
type Config struct {
	// Level は出力する最小レベルです (debug, info, warn, error)。
	Level string
	// Pretty が true の場合、人間が読みやすいコンソール形式で出力します。
	Pretty bool
	// Output は出力先です。nil の場合は os.Stderr です。
	Output io.Writer
	// EnableFile が true の場合、FilePath にも追記します。
	EnableFile bool
	// FilePath が空の場合は pokescrape_<日付>.log です。
	FilePath string
}

// Setup はグローバルロガーを設定し、開いたログファイルを閉じる関数を返します。
func Setup(cfg Config) (zerolog.Logger, func() error, error) {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.DateTime}
	}

	closer := func() error { return nil }
	if cfg.EnableFile {
		path := cfg.FilePath
		if path == "" {
			path = fmt.Sprintf("pokescrape_%s.log", time.Now().Format("2006-01-02"))
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return log.Logger, closer, fmt.Errorf("ログファイルを開けませんでした (path=%s): %w", path, err)
		}
		// ファイルには常にJSONで書き込む
		output = zerolog.MultiLevelWriter(output, f)
		closer = f.Close
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger
	return logger, closer, nil
}

// ParseLevel は文字列を zerolog.Level に変換します。不明な値は info です。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger はコンポーネント名付きのロガーを返します。
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
