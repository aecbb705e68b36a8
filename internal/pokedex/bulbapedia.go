package pokedex

import (
	"context"
	"fmt"
	"time"

	"PokeImageScraper/internal/adapter"
	"PokeImageScraper/internal/logging"
	"PokeImageScraper/internal/model"

	"github.com/gocolly/colly"
)

const (
	// DefaultBulbapediaURL は、全国図鑑番号順のポケモン一覧ページです。
	DefaultBulbapediaURL = "https://bulbapedia.bulbagarden.net/wiki/List_of_Pok%C3%A9mon_by_National_Pok%C3%A9dex_number"
	// DefaultTableSelector は、世代ごとの一覧表を選択します。先頭と末尾はレイアウト用の表です。
	DefaultTableSelector = "#mw-content-text > table"
)

// BulbapediaSource は、Bulbapedia の一覧ページを colly で取得して図鑑を構築します。
type BulbapediaSource struct {
	URL           string
	TableSelector string
	UserAgent     string
	Timeout       time.Duration
	Range         Range
}

// Build は一覧ページを1回だけ取得します。取得に失敗した場合は ErrSourceUnavailable を返します。
func (s *BulbapediaSource) Build(ctx context.Context) (*Index, error) {
	logger := logging.NewLogger("pokedex")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageURL := s.URL
	if pageURL == "" {
		pageURL = DefaultBulbapediaURL
	}
	extractor := adapter.TableExtractor{Selector: s.TableSelector, SkipFirst: true, SkipLast: true}
	if extractor.Selector == "" {
		extractor.Selector = DefaultTableSelector
	}

	c := colly.NewCollector()
	if s.UserAgent != "" {
		c.UserAgent = s.UserAgent
	}
	if s.Timeout > 0 {
		c.SetRequestTimeout(s.Timeout)
	}

	full := NewIndex()
	skipped := 0
	c.OnHTML("html", func(e *colly.HTMLElement) {
		for _, cols := range extractor.Rows(e.DOM) {
			if len(cols) < 3 || cols[1] == "" {
				skipped++
				continue
			}
			id, err := model.ParseIdentifier(cols[1])
			if err != nil {
				skipped++
				continue
			}
			full.Add(id, cols[2])
		}
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("%w (url=%s, status=%d): %v", ErrSourceUnavailable, pageURL, r.StatusCode, err)
	})

	logger.Info().Str("url", pageURL).Msg("図鑑を構築しています...")
	// colly はコンテキストを受け取らないため、Visit の完了とキャンセルを待ち合わせる
	done := make(chan error, 1)
	go func() { done <- c.Visit(pageURL) }()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if err != nil && fetchErr == nil {
			fetchErr = fmt.Errorf("%w (url=%s): %v", ErrSourceUnavailable, pageURL, err)
		}
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if full.Len() == 0 {
		return nil, fmt.Errorf("%w: 一覧ページから図鑑番号を読み取れませんでした (url=%s)", ErrSourceUnavailable, pageURL)
	}

	index := s.Range.Filter(full)
	logger.Info().
		Int("total", full.Len()).
		Int("selected", index.Len()).
		Int("skipped_rows", skipped).
		Str("range", s.Range.String()).
		Msg("図鑑の構築が完了しました。")
	return index, nil
}
