package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"PokeImageScraper/internal/adapter"
	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/logging"
	"PokeImageScraper/internal/model"
	"PokeImageScraper/internal/pokedex"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Runner は、図鑑の全番号について発見とダウンロードを順に実行します。
type Runner struct {
	discoverer *Discoverer
	fetcher    *Fetcher
	workers    int
	logger     zerolog.Logger
}

// NewRunner は、タスクの設定で Runner を返します。
func NewRunner(client Getter, task config.Task) *Runner {
	return &Runner{
		discoverer: NewDiscoverer(client, task.MaxPages),
		fetcher:    NewFetcher(client, task),
		workers:    task.Workers(),
		logger:     logging.NewLogger("runner").With().Str("task", task.TaskName).Logger(),
	}
}

// Run は index の番号順に site から画像を発見し、ワーカープールで並行して保存します。
// 番号ごとの失敗は記録して次へ進みます。ctx がキャンセルされた場合のみエラーを返します。
func (r *Runner) Run(ctx context.Context, index *pokedex.Index, site adapter.SiteAdapter) (RunStats, error) {
	stats := RunStats{StartTime: time.Now()}
	entries := index.Entries()
	r.logger.Info().Str("site", site.Name()).Int("pokemon", len(entries)).Int("workers", r.workers).Msg("タスクを開始します。")

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.IdentifiersProcessed++

		refs, err := r.discoverer.Discover(ctx, site, index, entry.ID)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.IdentifiersFailed++
			r.logger.Warn().Err(err).Str("id", string(entry.ID)).Str("name", entry.Name).Msg("画像URLの発見に失敗しました")
		}
		stats.ReferencesFound += len(refs)

		batch, err := r.fetchAll(ctx, refs)
		stats.Merge(batch)
		if err != nil {
			return stats, err
		}

		r.logger.Info().
			Str("id", string(entry.ID)).
			Str("name", entry.Name).
			Int("found", len(refs)).
			Int("stored", batch.ImagesStored).
			Msgf("(%d/%d) %s の処理が完了しました。", i+1, len(entries), entry.Name)
	}

	r.logger.Info().Str("site", site.Name()).Msg(stats.FormatSessionInfo())
	return stats, nil
}

// fetchAll は refs を並行して保存します。取得失敗はスキップとして数えます。
func (r *Runner) fetchAll(ctx context.Context, refs []model.ImageReference) (RunStats, error) {
	var (
		mu    sync.Mutex
		batch RunStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			stored, err := r.fetcher.Fetch(gctx, ref)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, ErrFetchFailure) {
					batch.ImagesSkipped++
					r.logger.Debug().Err(err).Str("url", ref.URL).Msg("画像をスキップしました")
					return nil
				}
				return err
			}
			batch.ImagesStored++
			batch.TotalBytesWritten += stored.Size
			return nil
		})
	}
	return batch, g.Wait()
}
