package textutil

import (
	"slices"
	"testing"
)

func TestNormalizeModes(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		mode      Mode
		wordCount int
		want      []string
	}{
		{"parenthetical dropped", "Movie Title Trailer (2025)", ModeFilename, 0, []string{"movie", "title", "trailer"}},
		{"accents and punctuation", "¿Acción: El Último Día?", ModeFilename, 0, []string{"accion", "el", "ultimo", "dia"}},
		{"significant drops short tokens", "¿Acción: El Último Día?", ModeSignificant, 0, []string{"accion", "ultimo", "dia"}},
		{"word count", "One Two Three Four", ModeFilename, 3, []string{"one", "two", "three"}},
		{"separators split words", "Title|Sub/Part\\End", ModeFilename, 0, []string{"title", "sub", "part", "end"}},
		{"sanitized underscores", "Stranger Things_ Temporada 5", ModeFilename, 0, []string{"stranger", "things", "temporada", "5"}},
		{"empty", "   ", ModeFilename, 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.text, tt.mode, tt.wordCount)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeStemIdempotent(t *testing.T) {
	inputs := []string{
		"Movie Title Trailer (2025)",
		"¿Acción: El Último Día?",
		"İstanbul Ñandú — Tráiler Oficial",
		"A.B.C. | Official / Trailer",
		"Stranger_Things: Temporada 5 - Tráiler",
		"  spaced\tout\nwords  ",
		"ｆｕｌｌｗｉｄｔｈ Título",
		"",
	}
	for _, mode := range []Mode{ModeFilename, ModeSignificant} {
		for _, wc := range []int{0, 3} {
			for _, in := range inputs {
				once := NormalizeStem(in, mode, wc)
				twice := NormalizeStem(once, mode, wc)
				if once != twice {
					t.Fatalf("not idempotent (mode=%d wc=%d) for %q: %q -> %q", mode, wc, in, once, twice)
				}
			}
		}
	}
}

func TestFuse(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Movie Title Trailer (2025)", "movietitletrailer"},
		{"Stranger Things 5 | Tráiler Oficial | Netflix", "strangerthings5traileroficialnetflix"},
		{"Spider-Man_ No Way Home", "spidermannowayhome"},
		{"¿Qué pasó?", "quepaso"},
	}
	for _, tt := range tests {
		if got := Fuse(tt.text); got != tt.want {
			t.Errorf("Fuse(%q) = %q, want %q", tt.text, got, tt.want)
		}
		if again := Fuse(Fuse(tt.text)); again != Fuse(tt.text) {
			t.Errorf("Fuse not idempotent for %q", tt.text)
		}
	}
}

func TestLongTokens(t *testing.T) {
	got := LongTokens("La Casa de Papel: Tráiler", 3)
	want := []string{"casa", "papel", "trailer"}
	if !slices.Equal(got, want) {
		t.Fatalf("LongTokens = %q, want %q", got, want)
	}
}

func TestSanitizeFileName(t *testing.T) {
	got := SanitizeFileName(`Who? What: "Why" <A|B> C/D\E*`)
	want := `Who_ What_ _Why_ _A_B_ C_D_E_`
	if got != want {
		t.Fatalf("SanitizeFileName = %q, want %q", got, want)
	}
	if SanitizeFileName("Plain Title") != "Plain Title" {
		t.Fatal("expected safe names unchanged")
	}
}

func TestPositionMatchRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abcdefghij", "abcdefghij", 1},
		{"abcdefghij", "abcdefghiX", 0.9},
		{"abcd", "abcdefgh", 1},
		{"", "abc", 0},
		{"áb", "áx", 0.5},
	}
	for _, tt := range tests {
		if got := PositionMatchRatio(tt.a, tt.b); got != tt.want {
			t.Errorf("PositionMatchRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
	if RunePrefix("ñandúes", 3) != "ñan" || RunePrefix("ab", 5) != "ab" {
		t.Fatal("unexpected RunePrefix result")
	}
}
