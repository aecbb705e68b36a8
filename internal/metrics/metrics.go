// Package metrics は、スクレイピングの進行状況を示す Prometheus メトリクスを定義します。
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PagesFetched は、サイトごとに取得した一覧ページ数です。
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokescrape_pages_fetched_total",
		Help: "Listing pages fetched by site",
	}, []string{"site"})

	// ReferencesDiscovered は、サイトごとに発見した画像URL数です。
	ReferencesDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokescrape_references_discovered_total",
		Help: "Image references discovered by site",
	}, []string{"site"})

	// ImagesStored は、サイトごとに保存した画像数です。
	ImagesStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokescrape_images_stored_total",
		Help: "Images written to disk by site",
	}, []string{"site"})

	// FetchFailures は、保存できなかった画像数です (reason: status, exhausted, write)。
	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokescrape_fetch_failures_total",
		Help: "Image fetches that were skipped by reason",
	}, []string{"reason"})

	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokescrape_fetch_retries_total",
		Help: "Connection-level retries on the fetch path",
	})

	BytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokescrape_bytes_written_total",
		Help: "Bytes of image payload written to disk",
	})

	// HTTPRequests は、ホストとステータスごとのリクエスト数です。
	// 接続エラーは status="error" として記録します。
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokescrape_http_requests_total",
		Help: "HTTP requests by host and status",
	}, []string{"host", "status"})
)

// Serve は addr で /metrics を公開し、ctx がキャンセルされるとサーバーを停止します。
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
