package adapter

import (
	"net/url"
	"regexp"
	"strconv"

	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/model"
)

const defaultPokemonCardsURL = "https://www.pokemon.com"

// cardFilters は、ポケモンカード（トレーナー・エネルギー以外）に絞り込む検索条件です。
const cardFilters = "basic-pokemon=on&stage-1-pokemon=on&stage-2-pokemon=on&level-up-pokemon=on" +
	"&ex-pokemon=on&mega-ex=on&special-pokemon=on&pokemon-legend=on&restored-pokemon=on" +
	"&break=on&pokemon-gx=on&pokemon-v=on&pokemon-vmax=on"

var defaultCardImagePattern = regexp.MustCompile(regexp.QuoteMeta("https://assets.pokemon.com/assets/cms2/img/cards/web/"))

// PokemonCardsAdapter は、pokemon.com のカード検索結果からカード画像を収集します。
// 存在しないページ番号を要求すると最終ページが繰り返し返されるため、
// 終了判定は core.Discoverer の重複検知に依存します。
type PokemonCardsAdapter struct {
	base    *url.URL
	pattern *regexp.Regexp
}

// NewPokemonCardsAdapter は、PokemonCardsAdapterの新しいインスタンスを返します。
func NewPokemonCardsAdapter(task config.Task) (SiteAdapter, error) {
	base, err := parseBaseURL(task, defaultPokemonCardsURL)
	if err != nil {
		return nil, err
	}
	pattern, err := compileMediaPattern(task, defaultCardImagePattern)
	if err != nil {
		return nil, err
	}
	return &PokemonCardsAdapter{base: base, pattern: pattern}, nil
}

func (a *PokemonCardsAdapter) Name() string { return "pokemoncards" }

func (a *PokemonCardsAdapter) Listing(entry model.NameEntry) (Listing, error) {
	slug := Slug(entry.Name)
	return Listing{
		Mode: PageNumbered,
		PageURL: func(cursor Cursor) (string, error) {
			u := a.base.JoinPath("us", "pokemon-tcg", "pokemon-cards", strconv.Itoa(cursor.Page))
			q := url.Values{}
			q.Set("cardName", slug)
			u.RawQuery = q.Encode() + "&" + cardFilters
			return u.String(), nil
		},
		Extractor: AttrExtractor{Rules: []AttrRule{
			{Selector: "img", Attr: "src", Pattern: a.pattern},
		}},
	}, nil
}
