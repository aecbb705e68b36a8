// Package core は、図鑑の各番号について画像URLを発見し、ダウンロードして保存する
// パイプラインの中核ロジックを実装します。
package core

import (
	"context"
	"errors"

	"PokeImageScraper/internal/pokedex"
)

var (
	// ErrSourceUnavailable は、一覧ページや図鑑の取得元にアクセスできなかったことを示します。
	ErrSourceUnavailable = pokedex.ErrSourceUnavailable
	// ErrLookupMiss は、図鑑に存在しない番号が指定されたことを示します。
	ErrLookupMiss = errors.New("図鑑に存在しない番号です")
	// ErrFetchFailure は、画像を保存できなかったことを示します。呼び出し側はスキップとして扱います。
	ErrFetchFailure = errors.New("画像の取得に失敗しました")
)

// Getter は、URLの内容を取得するHTTPクライアントです。*network.Client が実装します。
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}
