// Package adapter は、サイト固有の処理を抽象化するインターフェースと、
// その具体的な実装を提供します。ページ送りのループは core パッケージに一度だけ書かれ、
// 各サイトは一覧ページのURLと抽出方法だけを定義します。
package adapter

import (
	"bytes"

	"PokeImageScraper/internal/model"

	"github.com/PuerkitoBio/goquery"
)

// PaginationMode は、一覧ソースのページ送り方式です。
type PaginationMode int

const (
	// PageNumbered は、1から始まるページ番号で送る方式です。
	PageNumbered PaginationMode = iota
	// ContinuationToken は、APIが返す継続トークンで送る方式です。
	ContinuationToken
	// SinglePage は、一覧が1ページだけの方式です。
	SinglePage
)

func (m PaginationMode) String() string {
	switch m {
	case PageNumbered:
		return "page-numbered"
	case ContinuationToken:
		return "continuation"
	case SinglePage:
		return "single-page"
	default:
		return "unknown"
	}
}

// Cursor は、次に要求するページの位置です。
// PageNumbered では Page、ContinuationToken では Token が使われます。
type Cursor struct {
	Page  int
	Token string
}

// Page は、取得済みの一覧ページです。
type Page struct {
	URL    string
	Number int
	Body   []byte
}

// Extraction は、1ページから抽出された結果です。
type Extraction struct {
	References []string
	// Continuation は、次のページがある場合にAPIが返したトークンです。
	Continuation string
}

// Extractor は、一覧ページから画像URLを抽出します。
type Extractor interface {
	Extract(page Page) (Extraction, error)
}

// Listing は、1匹のポケモンに対する一覧ソースの定義です。
type Listing struct {
	Mode      PaginationMode
	PageURL   func(cursor Cursor) (string, error)
	Extractor Extractor
}

// SiteAdapter は、サイト固有の処理を抽象化するインターフェースです。
type SiteAdapter interface {
	// Name は、レジストリに登録されたサイト名を返します。
	Name() string
	// Listing は、指定されたポケモンの一覧ソースを構築します。
	Listing(entry model.NameEntry) (Listing, error)
}

// NewDocumentFromBytes は、[]byteからgoquery.Documentを生成するヘルパー関数です。
func NewDocumentFromBytes(htmlBody []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
}
