package adapter

import (
	"net/url"
	"regexp"

	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/model"
)

const defaultPokemonDBURL = "https://pokemondb.net"

var defaultSpritePattern = regexp.MustCompile(`https://img\.pokemondb\.net/sprites/.*`)

// PokemonDBAdapter は、pokemondb.net のスプライト一覧ページ（1ページのみ）から画像を収集します。
// 遅延読み込みのスプライトは span の data-src 属性に入っています。
type PokemonDBAdapter struct {
	base    *url.URL
	pattern *regexp.Regexp
}

// NewPokemonDBAdapter は、PokemonDBAdapterの新しいインスタンスを返します。
func NewPokemonDBAdapter(task config.Task) (SiteAdapter, error) {
	base, err := parseBaseURL(task, defaultPokemonDBURL)
	if err != nil {
		return nil, err
	}
	pattern, err := compileMediaPattern(task, defaultSpritePattern)
	if err != nil {
		return nil, err
	}
	return &PokemonDBAdapter{base: base, pattern: pattern}, nil
}

func (a *PokemonDBAdapter) Name() string { return "pokemondb" }

func (a *PokemonDBAdapter) Listing(entry model.NameEntry) (Listing, error) {
	slug := Slug(entry.Name)
	return Listing{
		Mode: SinglePage,
		PageURL: func(Cursor) (string, error) {
			return a.base.JoinPath("sprites", slug).String(), nil
		},
		Extractor: AttrExtractor{Rules: []AttrRule{
			{Selector: "img", Attr: "src", Pattern: a.pattern},
			{Selector: "span", Attr: "data-src", Pattern: a.pattern},
		}},
	}, nil
}
