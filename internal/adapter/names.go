package adapter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var genderReplacer = strings.NewReplacer("♀", "-f", "♂", "-m")

// Slug は表示名をURL用のスラッグに変換します。
// 例: "Mr. Mime" -> "mr-mime", "Nidoran♀" -> "nidoran-f", "Flabébé" -> "flabebe"
func Slug(name string) string {
	s := genderReplacer.Replace(strings.TrimSpace(name))

	// アクセント記号を除去
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	s = cases.Lower(language.English).String(s)

	var b strings.Builder
	pendingDash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingDash = true
		}
	}
	return b.String()
}

// Capitalize は先頭の1文字を大文字に、残りを小文字にします。
// 例: "pikachu" -> "Pikachu", "MR. MIME" -> "Mr. mime"
func Capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return cases.Upper(language.English).String(name[:size]) + cases.Lower(language.English).String(name[size:])
}
