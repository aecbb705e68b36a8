package adapter

import "testing"

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Bulbasaur":  "bulbasaur",
		"Mr. Mime":   "mr-mime",
		"Mime Jr.":   "mime-jr",
		"Farfetch'd": "farfetchd",
		"Nidoran♀":   "nidoran-f",
		"Nidoran♂":   "nidoran-m",
		"Flabébé":    "flabebe",
		"Type: Null": "type-null",
		"Porygon-Z":  "porygon-z",
		" Ho-Oh ":    "ho-oh",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, 期待値 %q", in, got, want)
		}
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"pikachu":  "Pikachu",
		"BULBASAUR": "Bulbasaur",
		"mr. mime": "Mr. mime",
		"élekid":   "Élekid",
		"":         "",
	}
	for in, want := range tests {
		if got := Capitalize(in); got != want {
			t.Errorf("Capitalize(%q) = %q, 期待値 %q", in, got, want)
		}
	}
}
