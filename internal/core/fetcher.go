package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/logging"
	"PokeImageScraper/internal/metrics"
	"PokeImageScraper/internal/model"
	"PokeImageScraper/internal/network"

	"github.com/rs/zerolog"
)

// Fetcher は、画像URLをダウンロードし、番号ごとのディレクトリに保存します。
type Fetcher struct {
	client          Getter
	saveRoot        string
	directoryFormat string
	retryCount      int
	retryBackoff    time.Duration
	sleep           func(ctx context.Context, d time.Duration) error
	logger          zerolog.Logger
}

// NewFetcher は、タスクの保存先とリトライ設定で Fetcher を返します。
func NewFetcher(client Getter, task config.Task) *Fetcher {
	retryCount := task.RetryCount
	if retryCount < 0 {
		retryCount = 0
	}
	return &Fetcher{
		client:          client,
		saveRoot:        task.SaveRootDirectory,
		directoryFormat: task.DirectoryFormat,
		retryCount:      retryCount,
		retryBackoff:    time.Duration(task.RetryBackoffMillis) * time.Millisecond,
		sleep:           sleepContext,
		logger:          logging.NewLogger("fetcher").With().Str("task", task.TaskName).Logger(),
	}
}

// Fetch は ref をダウンロードして保存します。
//
// 接続レベルの失敗は retryCount 回まで、retryBackoff × 2^(n-1) の待機を挟んで再試行します。
// HTTPステータスのエラーは再試行しません。保存できなかった場合は ErrFetchFailure を返します。
// 同じファイル名が既にある場合は上書きします。
func (f *Fetcher) Fetch(ctx context.Context, ref model.ImageReference) (model.StoredImage, error) {
	fileName, err := fileNameFromURL(ref.URL)
	if err != nil {
		metrics.FetchFailures.WithLabelValues("url").Inc()
		return model.StoredImage{}, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}

	body, err := f.download(ctx, ref.URL)
	if err != nil {
		return model.StoredImage{}, err
	}

	dir, err := generateDirectoryPath(f.saveRoot, f.directoryFormat, ref)
	if err != nil {
		metrics.FetchFailures.WithLabelValues("write").Inc()
		return model.StoredImage{}, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	dest := filepath.Join(dir, fileName)
	if err := writeFileAtomic(dest, body); err != nil {
		metrics.FetchFailures.WithLabelValues("write").Inc()
		return model.StoredImage{}, fmt.Errorf("%w: ファイルの書き込みに失敗しました (path=%s): %v", ErrFetchFailure, dest, err)
	}

	metrics.ImagesStored.WithLabelValues(ref.Site).Inc()
	metrics.BytesWritten.Add(float64(len(body)))
	return model.StoredImage{ID: ref.ID, URL: ref.URL, Path: dest, Size: int64(len(body))}, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retryCount; attempt++ {
		if attempt > 0 {
			wait := f.retryBackoff * time.Duration(1<<(attempt-1))
			metrics.FetchRetries.Inc()
			f.logger.Debug().Str("url", rawURL).Int("retry", attempt).Dur("wait", wait).Msg("接続エラーのため再試行します")
			if err := f.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		body, err := f.client.Get(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var httpErr *network.HTTPError
		if errors.As(err, &httpErr) {
			metrics.FetchFailures.WithLabelValues("status").Inc()
			return nil, fmt.Errorf("%w (status=%d, url=%s)", ErrFetchFailure, httpErr.StatusCode, rawURL)
		}
		lastErr = err
	}

	metrics.FetchFailures.WithLabelValues("exhausted").Inc()
	return nil, fmt.Errorf("%w: リトライ上限に達しました (url=%s, retry_count=%d): %v", ErrFetchFailure, rawURL, f.retryCount, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// generateDirectoryPath は、directory_format の {id} {name} {site} を置換して保存先ディレクトリを返します。
func generateDirectoryPath(rootDir, format string, ref model.ImageReference) (string, error) {
	if format == "" {
		format = config.DefaultDirectoryFormat
	}

	id := string(ref.ID)
	if id == "" {
		id = "unknown"
	}
	r := strings.NewReplacer(
		"{id}", id,
		"{name}", SanitizeFilename(ref.Name),
		"{site}", ref.Site,
	)
	result := r.Replace(format)
	if result == "" {
		result = id
	}

	dir := filepath.Join(rootDir, result)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("保存先ディレクトリの作成に失敗しました (path=%s): %w", dir, err)
	}
	return dir, nil
}

// fileNameFromURL は、URLのパスの末尾要素をデコードしてファイル名にします。
func fileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("URLの解析に失敗しました (%s): %w", rawURL, err)
	}
	// %2F で区切られないよう、エスケープされたパスから末尾要素を取り出す
	escaped := path.Base(u.EscapedPath())
	if escaped == "/" || escaped == "." || escaped == "" {
		return "", fmt.Errorf("URLにファイル名がありません: %s", rawURL)
	}
	name, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("ファイル名のデコードに失敗しました (%s): %w", rawURL, err)
	}
	return SanitizeFilename(name), nil
}

// writeFileAtomic は、一時ファイルに書き込んでからリネームします。
// 途中で失敗しても書きかけのファイルは残りません。
func writeFileAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".part-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// SanitizeFilename は、ファイル名に使えない文字を全角文字に置き換えます。
func SanitizeFilename(name string) string {
	r := strings.NewReplacer(
		"/", "／",
		"\\", "＼",
		":", "：",
		"*", "＊",
		"?", "？",
		"\"", "”",
		"<", "＜",
		">", "＞",
		"|", "｜",
	)
	return r.Replace(name)
}
