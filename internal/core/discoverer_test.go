package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"PokeImageScraper/internal/adapter"
	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/model"
	"PokeImageScraper/internal/network"
	"PokeImageScraper/internal/pokedex"
)

// stubSite は、テスト用の一覧定義をそのまま返すサイトアダプタです。
type stubSite struct {
	listing adapter.Listing
}

func (s stubSite) Name() string { return "stub" }

func (s stubSite) Listing(model.NameEntry) (adapter.Listing, error) { return s.listing, nil }

// lineExtractor は、1行1URLの本文を解釈します。"next:" で始まる行は継続トークンです。
type lineExtractor struct{}

func (lineExtractor) Extract(page adapter.Page) (adapter.Extraction, error) {
	var out adapter.Extraction
	for _, line := range strings.Split(strings.TrimSpace(string(page.Body)), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "next:"):
			out.Continuation = strings.TrimPrefix(line, "next:")
		case line == "broken":
			return out, errors.New("unexpected layout")
		default:
			out.References = append(out.References, line)
		}
	}
	return out, nil
}

func pagedListing(serverURL string) adapter.Listing {
	return adapter.Listing{
		Mode: adapter.PageNumbered,
		PageURL: func(c adapter.Cursor) (string, error) {
			return fmt.Sprintf("%s/list?page=%d", serverURL, c.Page), nil
		},
		Extractor: lineExtractor{},
	}
}

func testIndex(entries ...model.NameEntry) *pokedex.Index {
	index := pokedex.NewIndex()
	for _, e := range entries {
		index.Add(e.ID, e.Name)
	}
	return index
}

func newTestClient(t *testing.T, opts ...network.Option) *network.Client {
	t.Helper()
	client, err := network.NewClient(config.NetworkSettings{}, opts...)
	if err != nil {
		t.Fatalf("NewClientの作成に失敗しました: %v", err)
	}
	return client
}

var bulbasaurIndex = testIndex(model.NameEntry{ID: "001", Name: "Bulbasaur"})

func refURLs(refs []model.ImageReference) []string {
	urls := make([]string, 0, len(refs))
	for _, r := range refs {
		urls = append(urls, r.URL)
	}
	return urls
}

func TestDiscover_StopsOnRepeatedFinalPage(t *testing.T) {
	// Arrange - 2ページ目以降は同じ内容を返し続けるサーバー
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprintln(w, "https://img.example/a1.png\nhttps://img.example/a2.png")
			return
		}
		fmt.Fprintln(w, "https://img.example/b1.png\nhttps://img.example/b2.png")
	}))
	defer server.Close()
	d := NewDiscoverer(newTestClient(t), 0)

	// Act
	refs, err := d.Discover(context.Background(), stubSite{pagedListing(server.URL)}, bulbasaurIndex, "001")

	// Assert
	if err != nil {
		t.Fatalf("Discoverが予期せぬエラーを返しました: %v", err)
	}
	got := strings.Join(refURLs(refs), ",")
	want := "https://img.example/a1.png,https://img.example/a2.png,https://img.example/b1.png,https://img.example/b2.png"
	if got != want {
		t.Errorf("発見したURLが期待値と異なります。\n期待値: %s\n実際値: %s", want, got)
	}
	if n := atomic.LoadInt32(&requests); n != 3 {
		t.Errorf("リクエスト回数が期待値と異なります。期待値: 3, 実際値: %d", n)
	}
	for _, r := range refs {
		if r.ID != "001" || r.Name != "Bulbasaur" || r.Site != "stub" {
			t.Errorf("参照の属性が期待値と異なります: %+v", r)
		}
	}
}

func TestDiscover_StopsOnEmptyPageAndHTTPError(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"空のページ", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "1" {
				fmt.Fprintln(w, "https://img.example/1.png")
			}
		}},
		{"404", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "1" {
				fmt.Fprintln(w, "https://img.example/1.png")
				return
			}
			http.NotFound(w, r)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			refs, err := NewDiscoverer(newTestClient(t), 0).Discover(context.Background(), stubSite{pagedListing(server.URL)}, bulbasaurIndex, "001")

			if err != nil {
				t.Fatalf("Discoverが予期せぬエラーを返しました: %v", err)
			}
			if len(refs) != 1 {
				t.Errorf("件数が期待値と異なります。期待値: 1, 実際値: %d", len(refs))
			}
		})
	}
}

func TestDiscover_MaxPages(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		fmt.Fprintf(w, "https://img.example/%s.png\n", r.URL.Query().Get("page"))
	}))
	defer server.Close()

	refs, err := NewDiscoverer(newTestClient(t), 3).Discover(context.Background(), stubSite{pagedListing(server.URL)}, bulbasaurIndex, "001")

	if err != nil {
		t.Fatalf("Discoverが予期せぬエラーを返しました: %v", err)
	}
	if len(refs) != 3 || atomic.LoadInt32(&requests) != 3 {
		t.Errorf("ページ数の上限で停止していません。件数: %d, リクエスト: %d", len(refs), requests)
	}
}

func TestDiscover_ContinuationToken(t *testing.T) {
	// Arrange
	var tokens []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("cont")
		tokens = append(tokens, token)
		switch token {
		case "":
			fmt.Fprintln(w, "https://img.example/1.png\nnext:abc")
		case "abc":
			// 空のページでもトークンがあれば続ける
			fmt.Fprintln(w, "next:def")
		case "def":
			fmt.Fprintln(w, "https://img.example/2.png")
		}
	}))
	defer server.Close()
	listing := adapter.Listing{
		Mode: adapter.ContinuationToken,
		PageURL: func(c adapter.Cursor) (string, error) {
			return server.URL + "/api?cont=" + c.Token, nil
		},
		Extractor: lineExtractor{},
	}

	// Act
	refs, err := NewDiscoverer(newTestClient(t), 0).Discover(context.Background(), stubSite{listing}, bulbasaurIndex, "001")

	// Assert
	if err != nil {
		t.Fatalf("Discoverが予期せぬエラーを返しました: %v", err)
	}
	if got := strings.Join(refURLs(refs), ","); got != "https://img.example/1.png,https://img.example/2.png" {
		t.Errorf("発見したURLが期待値と異なります: %s", got)
	}
	if got := strings.Join(tokens, ","); got != ",abc,def" {
		t.Errorf("送信したトークンが期待値と異なります: %q", got)
	}
}

func TestDiscover_SinglePage(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		fmt.Fprintln(w, "https://img.example/1.png\nhttps://img.example/2.png")
	}))
	defer server.Close()
	listing := pagedListing(server.URL)
	listing.Mode = adapter.SinglePage

	refs, err := NewDiscoverer(newTestClient(t), 0).Discover(context.Background(), stubSite{listing}, bulbasaurIndex, "001")

	if err != nil {
		t.Fatalf("Discoverが予期せぬエラーを返しました: %v", err)
	}
	if len(refs) != 2 || atomic.LoadInt32(&requests) != 1 {
		t.Errorf("1ページだけ取得することを期待しました。件数: %d, リクエスト: %d", len(refs), requests)
	}
}

func TestDiscover_ParseMismatchStops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprintln(w, "https://img.example/1.png")
			return
		}
		fmt.Fprintln(w, "broken")
	}))
	defer server.Close()

	refs, err := NewDiscoverer(newTestClient(t), 0).Discover(context.Background(), stubSite{pagedListing(server.URL)}, bulbasaurIndex, "001")

	if err != nil {
		t.Fatalf("Discoverが予期せぬエラーを返しました: %v", err)
	}
	if len(refs) != 1 {
		t.Errorf("件数が期待値と異なります。期待値: 1, 実際値: %d", len(refs))
	}
}

func TestDiscover_LookupMiss(t *testing.T) {
	_, err := NewDiscoverer(newTestClient(t), 0).Discover(context.Background(), stubSite{pagedListing("http://127.0.0.1:1")}, bulbasaurIndex, "999")

	if !errors.Is(err, ErrLookupMiss) {
		t.Errorf("ErrLookupMiss を期待しましたが %v でした", err)
	}
}

func TestDiscover_SourceUnavailable(t *testing.T) {
	t.Run("1ページ目のHTTPエラー", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewDiscoverer(newTestClient(t), 0).Discover(context.Background(), stubSite{pagedListing(server.URL)}, bulbasaurIndex, "001")
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("ErrSourceUnavailable を期待しましたが %v でした", err)
		}
	})

	t.Run("2ページ目の接続エラー", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			if page == 1 {
				fmt.Fprintln(w, "https://img.example/1.png")
				return
			}
			// 応答を返さずに接続を切る
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("Hijackerが利用できません")
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
			}
		}))
		defer server.Close()

		refs, err := NewDiscoverer(newTestClient(t), 0).Discover(context.Background(), stubSite{pagedListing(server.URL)}, bulbasaurIndex, "001")
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("ErrSourceUnavailable を期待しましたが %v でした", err)
		}
		if len(refs) != 1 {
			t.Errorf("それまでに集めたURLが返されていません。件数: %d", len(refs))
		}
	})
}
