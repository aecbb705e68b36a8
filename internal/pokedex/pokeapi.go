package pokedex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"PokeImageScraper/internal/logging"
	"PokeImageScraper/internal/model"
)

// DefaultPokeAPIURL は PokeAPI のベースURLです。
const DefaultPokeAPIURL = "https://pokeapi.co"

// Getter は、URLの内容を取得するHTTPクライアントです。
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

type speciesList struct {
	Count   int `json:"count"`
	Results []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"results"`
}

// PokeAPISource は、PokeAPI の pokemon-species 一覧から図鑑を構築します。
type PokeAPISource struct {
	BaseURL string
	Client  Getter
	Range   Range
}

// Build は全種族を1回のリクエストで取得します。
// 図鑑番号は各結果の url の末尾のパス要素です。
func (s *PokeAPISource) Build(ctx context.Context) (*Index, error) {
	logger := logging.NewLogger("pokedex")

	base := s.BaseURL
	if base == "" {
		base = DefaultPokeAPIURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("PokeAPIのURLの解析に失敗しました (url=%s): %w", base, err)
	}
	u = u.JoinPath("api", "v2", "pokemon-species")
	u.RawQuery = "limit=100000"

	logger.Info().Str("url", u.String()).Msg("PokeAPIから図鑑を取得しています...")
	body, err := s.Client.Get(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var list speciesList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: 応答のJSON解析に失敗しました: %v", ErrSourceUnavailable, err)
	}

	full := NewIndex()
	for _, r := range list.Results {
		id, err := model.ParseIdentifier(path.Base(strings.TrimSuffix(r.URL, "/")))
		if err != nil {
			logger.Debug().Str("url", r.URL).Msg("図鑑番号を読み取れない結果をスキップしました")
			continue
		}
		full.Add(id, r.Name)
	}

	index := s.Range.Filter(full)
	logger.Info().Int("total", full.Len()).Int("selected", index.Len()).Str("range", s.Range.String()).Msg("図鑑の構築が完了しました。")
	return index, nil
}
