// Package pokedex は、全国図鑑番号と名前の対応表（インデックス）の構築を担当します。
package pokedex

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/model"
)

// ErrSourceUnavailable は、図鑑の取得元にアクセスできなかったことを示します。
var ErrSourceUnavailable = errors.New("図鑑の取得元にアクセスできません")

// Index は、図鑑番号から名前への順序付きの対応表です。
// 名前が空のエントリは保持しません。
type Index struct {
	names map[model.Identifier]string
	order []model.Identifier
}

// NewIndex は空のIndexを返します。
func NewIndex() *Index {
	return &Index{names: make(map[model.Identifier]string)}
}

// Add はエントリを追加します。同じ番号が既にある場合は先に追加された方を残し、false を返します。
func (x *Index) Add(id model.Identifier, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if _, exists := x.names[id]; exists {
		return false
	}
	x.names[id] = name
	x.order = append(x.order, id)
	return true
}

// Lookup は番号に対応する名前を返します。見つからない場合は ok=false です。
func (x *Index) Lookup(id model.Identifier) (string, bool) {
	name, ok := x.names[id]
	return name, ok
}

// Len はエントリ数を返します。
func (x *Index) Len() int {
	return len(x.order)
}

// Entries は図鑑番号の昇順でエントリを返します。
func (x *Index) Entries() []model.NameEntry {
	ids := slices.Clone(x.order)
	slices.SortFunc(ids, func(a, b model.Identifier) int {
		return a.Number() - b.Number()
	})
	entries := make([]model.NameEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, model.NameEntry{ID: id, Name: x.names[id]})
	}
	return entries
}

// Range は、インデックスに残す図鑑番号の範囲です。
type Range struct {
	Start int
	End   int
	All   bool
}

// RangeFromSettings は設定から範囲を作ります。
func RangeFromSettings(s config.PokedexSettings) Range {
	return Range{Start: s.Start, End: s.End, All: s.All}
}

// Contains は、番号が範囲内かどうかを返します。
func (r Range) Contains(id model.Identifier) bool {
	if r.All {
		return true
	}
	n := id.Number()
	return n >= r.Start && n <= r.End
}

// Filter は、範囲内のエントリだけを持つ新しいIndexを返します。
// 範囲がデータを超える場合は存在する分だけを返します。
func (r Range) Filter(x *Index) *Index {
	filtered := NewIndex()
	for _, e := range x.Entries() {
		if r.Contains(e.ID) {
			filtered.Add(e.ID, e.Name)
		}
	}
	return filtered
}

func (r Range) String() string {
	if r.All {
		return "all"
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Source は、図鑑データの取得元です。
type Source interface {
	Build(ctx context.Context) (*Index, error)
}
