package pokedex

import (
	"fmt"
	"time"

	"PokeImageScraper/internal/config"
)

// NewSource は、設定の source に対応する図鑑の取得元を返します。
func NewSource(settings config.PokedexSettings, network config.NetworkSettings, client Getter) (Source, error) {
	r := RangeFromSettings(settings)
	switch settings.Source {
	case "", "bulbapedia":
		return &BulbapediaSource{
			URL:           settings.BaseURL,
			TableSelector: settings.TableSelector,
			UserAgent:     network.UserAgent,
			Timeout:       time.Duration(network.RequestTimeoutMillis) * time.Millisecond,
			Range:         r,
		}, nil
	case "pokeapi":
		return &PokeAPISource{BaseURL: settings.BaseURL, Client: client, Range: r}, nil
	default:
		return nil, fmt.Errorf("不明な図鑑ソースです: %s", settings.Source)
	}
}
