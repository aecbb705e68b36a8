package pokedex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/model"
	"PokeImageScraper/internal/network"
)

func fixtureServer(t *testing.T, name, contentType string) *httptest.Server {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("テスト用ファイル '%s' の読み込みに失敗しました: %v", name, err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestIndex_AddLookupEntries(t *testing.T) {
	// Arrange
	index := NewIndex()

	// Act
	index.Add("025", "Pikachu")
	index.Add("001", "Bulbasaur")
	added := index.Add("025", "Pikachu (Cosplay)")
	index.Add("026", "  ")

	// Assert
	if added {
		t.Error("重複した番号の追加が成功しました。")
	}
	if name, ok := index.Lookup("025"); !ok || name != "Pikachu" {
		t.Errorf("先に追加された名前を期待しました: %q, %v", name, ok)
	}
	if _, ok := index.Lookup("026"); ok {
		t.Error("空の名前が格納されています。")
	}
	if _, ok := index.Lookup("999"); ok {
		t.Error("存在しない番号で ok=true が返されました。")
	}
	entries := index.Entries()
	if len(entries) != 2 || entries[0].ID != "001" || entries[1].ID != "025" {
		t.Errorf("Entriesが番号順になっていません: %v", entries)
	}
}

func TestRange_Filter(t *testing.T) {
	full := NewIndex()
	for n := 1; n <= 10; n++ {
		full.Add(model.NewIdentifier(n), "Pokemon")
	}

	tests := []struct {
		name string
		r    Range
		want int
	}{
		{"範囲内", Range{Start: 3, End: 7}, 5},
		{"1件", Range{Start: 4, End: 4}, 1},
		{"データを超える範囲", Range{Start: 8, End: 151}, 3},
		{"全件", Range{Start: 3, End: 4, All: true}, 10},
		{"範囲外", Range{Start: 20, End: 30}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Filter(full).Len(); got != tt.want {
				t.Errorf("件数が期待値と異なります。期待値: %d, 実際値: %d", tt.want, got)
			}
		})
	}
}

func TestBulbapediaSource_Build(t *testing.T) {
	// Arrange
	server := fixtureServer(t, "bulbapedia_list.html", "text/html; charset=utf-8")
	source := &BulbapediaSource{URL: server.URL + "/wiki/List", UserAgent: "pokescrape-test", Range: Range{All: true}}

	// Act
	index, err := source.Build(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("Buildが予期せぬエラーを返しました: %v", err)
	}
	want := []model.NameEntry{
		{ID: "001", Name: "Bulbasaur"},
		{ID: "002", Name: "Ivysaur"},
		{ID: "003", Name: "Venusaur"},
		{ID: "004", Name: "Charmander"},
		{ID: "005", Name: "Charmeleon"},
		{ID: "006", Name: "Charizard"},
		{ID: "152", Name: "Chikorita"},
		{ID: "153", Name: "Bayleef"},
	}
	got := index.Entries()
	if len(got) != len(want) {
		t.Fatalf("件数が期待値と異なります。期待値: %d, 実際値: %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] 期待値: %v, 実際値: %v", i, want[i], got[i])
		}
	}
	for _, e := range got {
		if name, ok := index.Lookup(e.ID); !ok || name == "" {
			t.Errorf("番号 %s の名前が空です", e.ID)
		}
	}
}

func TestBulbapediaSource_Range(t *testing.T) {
	server := fixtureServer(t, "bulbapedia_list.html", "text/html")
	source := &BulbapediaSource{URL: server.URL, Range: Range{Start: 2, End: 4}}

	index, err := source.Build(context.Background())
	if err != nil {
		t.Fatalf("Buildが予期せぬエラーを返しました: %v", err)
	}
	if index.Len() != 3 {
		t.Errorf("範囲 2-4 の件数が期待値と異なります。期待値: 3, 実際値: %d", index.Len())
	}
	if _, ok := index.Lookup("001"); ok {
		t.Error("範囲外の番号が含まれています。")
	}
}

func TestBulbapediaSource_Unavailable(t *testing.T) {
	t.Run("HTTPエラー", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := (&BulbapediaSource{URL: server.URL, Range: Range{All: true}}).Build(context.Background())
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("ErrSourceUnavailable を期待しましたが %v でした", err)
		}
	})

	t.Run("接続エラー", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		serverURL := server.URL
		server.Close()

		_, err := (&BulbapediaSource{URL: serverURL, Range: Range{All: true}}).Build(context.Background())
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("ErrSourceUnavailable を期待しましたが %v でした", err)
		}
	})

	t.Run("表が無いページ", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body><p>moved</p></body></html>"))
		}))
		defer server.Close()

		_, err := (&BulbapediaSource{URL: server.URL, Range: Range{All: true}}).Build(context.Background())
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("ErrSourceUnavailable を期待しましたが %v でした", err)
		}
	})
}

func TestBulbapediaSource_CancelWhileFetching(t *testing.T) {
	// Arrange - テスト終了まで応答しないサーバー
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Act
	start := time.Now()
	_, err := (&BulbapediaSource{URL: server.URL, Range: Range{All: true}}).Build(ctx)

	// Assert
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("context.DeadlineExceeded を期待しましたが %v でした", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("キャンセル後も取得を待ち続けました: %v", elapsed)
	}
}

func TestPokeAPISource_Build(t *testing.T) {
	// Arrange
	var requested string
	body, err := os.ReadFile(filepath.Join("testdata", "pokeapi_species.json"))
	if err != nil {
		t.Fatalf("テスト用ファイルの読み込みに失敗しました: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer server.Close()

	client, err := network.NewClient(config.NetworkSettings{})
	if err != nil {
		t.Fatalf("NewClientの作成に失敗しました: %v", err)
	}
	source := &PokeAPISource{BaseURL: server.URL, Client: client, Range: Range{Start: 1, End: 3}}

	// Act
	index, err := source.Build(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("Buildが予期せぬエラーを返しました: %v", err)
	}
	if requested != "/api/v2/pokemon-species?limit=100000" {
		t.Errorf("リクエストURLが期待値と異なります: %s", requested)
	}
	if index.Len() != 3 {
		t.Fatalf("件数が期待値と異なります。期待値: 3, 実際値: %d", index.Len())
	}
	if name, _ := index.Lookup("003"); name != "venusaur" {
		t.Errorf("003の名前が期待値と異なります: %s", name)
	}
}

func TestPokeAPISource_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := network.NewClient(config.NetworkSettings{})
	_, err := (&PokeAPISource{BaseURL: server.URL, Client: client, Range: Range{All: true}}).Build(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("ErrSourceUnavailable を期待しましたが %v でした", err)
	}
}

func TestNewSource(t *testing.T) {
	client, _ := network.NewClient(config.NetworkSettings{})

	src, err := NewSource(config.PokedexSettings{Source: "pokeapi", Start: 1, End: 151}, config.NetworkSettings{}, client)
	if err != nil {
		t.Fatalf("NewSourceが予期せぬエラーを返しました: %v", err)
	}
	if _, ok := src.(*PokeAPISource); !ok {
		t.Errorf("PokeAPISourceを期待しましたが %T でした", src)
	}

	src, _ = NewSource(config.PokedexSettings{}, config.NetworkSettings{UserAgent: "ua", RequestTimeoutMillis: 1000}, client)
	bulba, ok := src.(*BulbapediaSource)
	if !ok {
		t.Fatalf("BulbapediaSourceを期待しましたが %T でした", src)
	}
	if bulba.UserAgent != "ua" || bulba.Timeout.Seconds() != 1 {
		t.Errorf("ネットワーク設定が反映されていません: %+v", bulba)
	}

	if _, err := NewSource(config.PokedexSettings{Source: "serebii"}, config.NetworkSettings{}, client); err == nil {
		t.Error("不明なソースでエラーを期待しました。")
	}
}
