package adapter

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"

	"PokeImageScraper/internal/config"

	"github.com/samber/lo"
)

// adapterRegistry は、サイト名とSiteAdapter実装のマッピングを保持します。
var adapterRegistry = map[string]func(task config.Task) (SiteAdapter, error){
	"bulbapedia":   NewBulbapediaAdapter,
	"pokemoncards": NewPokemonCardsAdapter,
	"pokemondb":    NewPokemonDBAdapter,
	"zerochan":     NewZerochanAdapter,
}

// GetAdapter は、タスクの site_adapter に対応するSiteAdapterの新しいインスタンスを返します。
func GetAdapter(task config.Task) (SiteAdapter, error) {
	factory, ok := adapterRegistry[task.SiteAdapter]
	if !ok {
		return nil, fmt.Errorf("サイト名 '%s' に対応するアダプタが見つかりません", task.SiteAdapter)
	}
	return factory(task)
}

// Names は登録済みのサイト名を昇順で返します。
func Names() []string {
	names := lo.Keys(adapterRegistry)
	slices.Sort(names)
	return names
}

// parseBaseURL は、タスクのベースURL（未指定なら既定値）を解析します。
func parseBaseURL(task config.Task, fallback string) (*url.URL, error) {
	raw := task.BaseURL
	if raw == "" {
		raw = fallback
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("ベースURLの解析に失敗しました (url=%s): %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ベースURLにスキームまたはホストがありません: %s", raw)
	}
	return u, nil
}

// compileMediaPattern は、タスクの media_url_pattern（未指定なら既定値）をコンパイルします。
func compileMediaPattern(task config.Task, fallback *regexp.Regexp) (*regexp.Regexp, error) {
	if task.MediaURLPattern == "" {
		return fallback, nil
	}
	re, err := regexp.Compile(task.MediaURLPattern)
	if err != nil {
		return nil, fmt.Errorf("media_url_pattern の正規表現が不正です (%s): %w", task.MediaURLPattern, err)
	}
	return re, nil
}
