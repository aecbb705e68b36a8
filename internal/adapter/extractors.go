package adapter

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AttrRule は、要素の属性値を画像URLとして取り出す規則です。
type AttrRule struct {
	// Selector は対象要素のCSSセレクタです (例: "img", "span")。
	Selector string
	// Attr は値を取り出す属性名です (例: "src", "data-src")。
	Attr string
	// Pattern が nil でない場合、属性値がこれにマッチするものだけを採用します。
	Pattern *regexp.Regexp
	// Require は、要素が持つべき属性と値の組です (例: alt="Pikachu")。
	Require map[string]string
}

// AttrExtractor は、HTMLの属性値を正規表現で選別して抽出します。
// 規則の順、文書内の出現順に結果を並べます。
type AttrExtractor struct {
	Rules []AttrRule
}

func (e AttrExtractor) Extract(page Page) (Extraction, error) {
	doc, err := NewDocumentFromBytes(page.Body)
	if err != nil {
		return Extraction{}, fmt.Errorf("HTMLの解析に失敗しました (url=%s): %w", page.URL, err)
	}
	base, _ := url.Parse(page.URL)

	var refs []string
	for _, rule := range e.Rules {
		doc.Find(rule.Selector).Each(func(_ int, s *goquery.Selection) {
			if !hasRequiredAttrs(s, rule.Require) {
				return
			}
			value, ok := s.Attr(rule.Attr)
			value = strings.TrimSpace(value)
			if !ok || value == "" {
				return
			}
			if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
				return
			}
			refs = append(refs, resolveReference(base, value))
		})
	}
	return Extraction{References: refs}, nil
}

func hasRequiredAttrs(s *goquery.Selection, require map[string]string) bool {
	for name, want := range require {
		got, ok := s.Attr(name)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// resolveReference は、相対URLをページURL基準の絶対URLに変換します。
func resolveReference(base *url.URL, raw string) string {
	if base == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// categoryMembersResponse は MediaWiki API (list=categorymembers) の応答です。
type categoryMembersResponse struct {
	Continue *struct {
		CMContinue string `json:"cmcontinue"`
	} `json:"continue"`
	Query struct {
		CategoryMembers []struct {
			Title string `json:"title"`
		} `json:"categorymembers"`
	} `json:"query"`
}

// CategoryMembersExtractor は、MediaWiki のカテゴリ所属ファイル一覧を
// アップロード先の直接URLに変換します。
// 直接URLは $wgHashedUploadDirectory に従い、ファイル名のMD5の先頭1文字と2文字を
// ディレクトリに使います。
type CategoryMembersExtractor struct {
	MediaBase *url.URL
}

func (e CategoryMembersExtractor) Extract(page Page) (Extraction, error) {
	var resp categoryMembersResponse
	if err := json.Unmarshal(page.Body, &resp); err != nil {
		return Extraction{}, fmt.Errorf("APIレスポンスの解析に失敗しました (url=%s): %w", page.URL, err)
	}

	refs := make([]string, 0, len(resp.Query.CategoryMembers))
	for _, member := range resp.Query.CategoryMembers {
		name := MediaWikiFileName(member.Title)
		if name == "" {
			continue
		}
		refs = append(refs, HashedUploadURL(e.MediaBase, name))
	}

	var next string
	if resp.Continue != nil {
		next = resp.Continue.CMContinue
	}
	return Extraction{References: refs, Continuation: next}, nil
}

// MediaWikiFileName は "File:Foo bar.png" を "Foo_bar.png" に変換します。
func MediaWikiFileName(title string) string {
	name := strings.TrimPrefix(strings.TrimSpace(title), "File:")
	return strings.ReplaceAll(name, " ", "_")
}

// HashedUploadURL は、ファイル名から MediaWiki のアップロードURLを構築します。
func HashedUploadURL(mediaBase *url.URL, name string) string {
	sum := md5.Sum([]byte(name))
	digest := hex.EncodeToString(sum[:])
	return joinSegments(mediaBase, digest[:1], digest[:2], name).String()
}

// joinSegments は、未エスケープのパス要素を base のパスに連結したURLを返します。
// 要素中の '%' はそのまま文字として扱われ、String() でエスケープされます。
func joinSegments(base *url.URL, segments ...string) *url.URL {
	u := *base
	u.Path = path.Join(append([]string{"/", base.Path}, segments...)...)
	u.RawPath = ""
	return &u
}

// TableExtractor は、HTMLテーブルを行ごとのセルテキストに分解します。
// 先頭と末尾のテーブルは、Wikiのレイアウト用として除外できます。
type TableExtractor struct {
	Selector  string
	SkipFirst bool
	SkipLast  bool
}

// Rows は root 以下の対象テーブルから、td セルを持つ行のテキストを返します。
// th だけの見出し行は含まれません。
func (e TableExtractor) Rows(root *goquery.Selection) [][]string {
	tables := root.Find(e.Selector)
	n := tables.Length()
	from, to := 0, n
	if e.SkipFirst {
		from++
	}
	if e.SkipLast {
		to--
	}

	var rows [][]string
	for i := from; i < to; i++ {
		tables.Eq(i).Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")
			if cells.Length() == 0 {
				return
			}
			row := make([]string, 0, cells.Length())
			cells.Each(func(_ int, td *goquery.Selection) {
				row = append(row, strings.TrimSpace(td.Text()))
			})
			rows = append(rows, row)
		})
	}
	return rows
}
