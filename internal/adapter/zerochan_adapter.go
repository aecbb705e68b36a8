package adapter

import (
	"net/url"
	"regexp"
	"strconv"

	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/model"
)

const defaultZerochanURL = "https://www.zerochan.net"

// ZerochanAdapter は、zerochan.net のタグページからファンアートを収集します。
// サムネイルの alt 属性にはタグ名（先頭大文字）が入るため、それで絞り込みます。
type ZerochanAdapter struct {
	base    *url.URL
	pattern *regexp.Regexp
}

// NewZerochanAdapter は、ZerochanAdapterの新しいインスタンスを返します。
func NewZerochanAdapter(task config.Task) (SiteAdapter, error) {
	base, err := parseBaseURL(task, defaultZerochanURL)
	if err != nil {
		return nil, err
	}
	// 既定ではURLによる絞り込みは行わない
	pattern, err := compileMediaPattern(task, nil)
	if err != nil {
		return nil, err
	}
	return &ZerochanAdapter{base: base, pattern: pattern}, nil
}

func (a *ZerochanAdapter) Name() string { return "zerochan" }

func (a *ZerochanAdapter) Listing(entry model.NameEntry) (Listing, error) {
	alt := Capitalize(entry.Name)
	return Listing{
		Mode: PageNumbered,
		PageURL: func(cursor Cursor) (string, error) {
			u := joinSegments(a.base, entry.Name)
			q := url.Values{}
			q.Set("p", strconv.Itoa(cursor.Page))
			u.RawQuery = q.Encode()
			return u.String(), nil
		},
		Extractor: AttrExtractor{Rules: []AttrRule{
			{Selector: "img", Attr: "src", Pattern: a.pattern, Require: map[string]string{"alt": alt}},
		}},
	}, nil
}
