// Package model は、パイプライン全体で共有するデータ型を定義します。
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// identifierWidth は図鑑番号をゼロ埋めする最小桁数です。
const identifierWidth = 3

// ErrInvalidIdentifier は、図鑑番号として解釈できない文字列を表します。
var ErrInvalidIdentifier = errors.New("図鑑番号として解釈できません")

// Identifier は、ゼロ埋めされた図鑑番号です (例: "001", "025", "1010")。
type Identifier string

// NewIdentifier は、数値から Identifier を生成します。
func NewIdentifier(n int) Identifier {
	return Identifier(fmt.Sprintf("%0*d", identifierWidth, n))
}

// ParseIdentifier は、"#0001" や "25" のような表記を正規化します。
// 先頭の '#' と空白は無視され、桁数は最低3桁に揃えられます。
func ParseIdentifier(s string) (Identifier, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimLeft(trimmed, "#")
	if trimmed == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return NewIdentifier(n), nil
}

// Number は、図鑑番号を整数で返します。不正な値の場合は 0 を返します。
func (id Identifier) Number() int {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		return 0
	}
	return n
}

func (id Identifier) String() string {
	return string(id)
}

// NameEntry は、図鑑番号と表示名の組です。
type NameEntry struct {
	ID   Identifier
	Name string
}

// ImageReference は、あるポケモンについて発見された画像URLです。
type ImageReference struct {
	ID   Identifier
	Name string
	URL  string
	Site string
}

// StoredImage は、ディスクに書き込まれた画像の記録です。
type StoredImage struct {
	ID   Identifier
	URL  string
	Path string
	Size int64
}
