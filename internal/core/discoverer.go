package core

import (
	"context"
	"errors"
	"fmt"

	"PokeImageScraper/internal/adapter"
	"PokeImageScraper/internal/logging"
	"PokeImageScraper/internal/metrics"
	"PokeImageScraper/internal/model"
	"PokeImageScraper/internal/network"
	"PokeImageScraper/internal/pokedex"

	"github.com/rs/zerolog"
)

// Discoverer は、サイトの一覧ページを順にたどって画像URLを集めます。
type Discoverer struct {
	client   Getter
	maxPages int
	logger   zerolog.Logger
}

// NewDiscoverer は Discoverer を返します。maxPages が 0 以下の場合はページ数を制限しません。
func NewDiscoverer(client Getter, maxPages int) *Discoverer {
	return &Discoverer{client: client, maxPages: maxPages, logger: logging.NewLogger("discoverer")}
}

// Discover は、番号 id のポケモンについて site の一覧をたどり、画像URLをページ順に返します。
//
// ページ番号方式では、HTTPエラー・該当なしのページ・既出の末尾要素で終了します。
// 継続トークン方式では、トークンが返されなくなった時点で終了します。
// 1ページ目の取得失敗と、2ページ目以降の接続エラーは ErrSourceUnavailable です。
// 後者の場合はそれまでに集めたURLも返します。
func (d *Discoverer) Discover(ctx context.Context, site adapter.SiteAdapter, index *pokedex.Index, id model.Identifier) ([]model.ImageReference, error) {
	name, ok := index.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLookupMiss, id)
	}
	entry := model.NameEntry{ID: id, Name: name}

	listing, err := site.Listing(entry)
	if err != nil {
		return nil, fmt.Errorf("一覧の定義に失敗しました (site=%s, id=%s): %w", site.Name(), id, err)
	}

	logger := d.logger.With().Str("site", site.Name()).Str("id", string(id)).Str("name", name).Logger()
	seen := make(map[string]struct{})
	var refs []model.ImageReference
	cursor := adapter.Cursor{Page: 1}

	for pageNum := 1; ; pageNum++ {
		if err := ctx.Err(); err != nil {
			return refs, err
		}

		pageURL, err := listing.PageURL(cursor)
		if err != nil {
			return refs, fmt.Errorf("ページURLの構築に失敗しました (page=%d): %w", pageNum, err)
		}

		body, err := d.client.Get(ctx, pageURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return refs, ctxErr
			}
			var httpErr *network.HTTPError
			if pageNum > 1 && errors.As(err, &httpErr) {
				logger.Debug().Int("page", pageNum).Int("status", httpErr.StatusCode).Msg("HTTPエラーのためページ送りを終了します")
				break
			}
			return refs, fmt.Errorf("%w (site=%s, page=%d): %v", ErrSourceUnavailable, site.Name(), pageNum, err)
		}
		metrics.PagesFetched.WithLabelValues(site.Name()).Inc()

		extraction, err := listing.Extractor.Extract(adapter.Page{URL: pageURL, Number: pageNum, Body: body})
		if err != nil {
			logger.Warn().Err(err).Int("page", pageNum).Msg("一覧ページの形式が想定と異なるため、ページ送りを終了します")
			break
		}

		found := extraction.References
		if listing.Mode == adapter.PageNumbered && len(found) == 0 {
			break
		}
		if len(found) > 0 {
			// 存在しないページ番号に最終ページを返し続けるサイトへの対策
			if _, repeated := seen[found[len(found)-1]]; repeated {
				logger.Debug().Int("page", pageNum).Msg("既出のページが返されたため、ページ送りを終了します")
				break
			}
		}
		for _, u := range found {
			seen[u] = struct{}{}
			refs = append(refs, model.ImageReference{ID: id, Name: name, URL: u, Site: site.Name()})
		}
		metrics.ReferencesDiscovered.WithLabelValues(site.Name()).Add(float64(len(found)))
		logger.Debug().Int("page", pageNum).Int("found", len(found)).Msg("一覧ページを処理しました")

		if listing.Mode == adapter.SinglePage {
			break
		}
		if listing.Mode == adapter.ContinuationToken {
			if extraction.Continuation == "" {
				break
			}
			cursor.Token = extraction.Continuation
		} else {
			cursor.Page++
		}
		if d.maxPages > 0 && pageNum >= d.maxPages {
			logger.Info().Int("max_pages", d.maxPages).Msg("ページ数の上限に達しました")
			break
		}
	}

	return refs, nil
}
