package adapter

import (
	"net/url"

	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/model"
)

const defaultBulbapediaArchivesURL = "https://archives.bulbagarden.net"

// BulbapediaAdapter は、Bulbagarden Archives の MediaWiki API から
// ポケモン名のカテゴリに属するファイルを列挙します。
type BulbapediaAdapter struct {
	apiURL    *url.URL
	mediaBase *url.URL
}

// NewBulbapediaAdapter は、BulbapediaAdapterの新しいインスタンスを返します。
func NewBulbapediaAdapter(task config.Task) (SiteAdapter, error) {
	base, err := parseBaseURL(task, defaultBulbapediaArchivesURL)
	if err != nil {
		return nil, err
	}
	return &BulbapediaAdapter{
		apiURL:    base.JoinPath("w", "api.php"),
		mediaBase: base.JoinPath("media", "upload"),
	}, nil
}

func (a *BulbapediaAdapter) Name() string { return "bulbapedia" }

// Listing は、cmcontinue による継続トークン方式の一覧を返します。
// cmlimit=max は1ページ最大500件です。
func (a *BulbapediaAdapter) Listing(entry model.NameEntry) (Listing, error) {
	return Listing{
		Mode: ContinuationToken,
		PageURL: func(cursor Cursor) (string, error) {
			q := url.Values{}
			q.Set("action", "query")
			q.Set("list", "categorymembers")
			q.Set("cmtitle", "Category:"+entry.Name)
			q.Set("cmlimit", "max")
			q.Set("cmtype", "file")
			q.Set("format", "json")
			q.Set("cmcontinue", cursor.Token)

			u := *a.apiURL
			u.RawQuery = q.Encode()
			return u.String(), nil
		},
		Extractor: CategoryMembersExtractor{MediaBase: a.mediaBase},
	}, nil
}
