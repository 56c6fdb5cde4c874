package codegen

import (
	"crypto/rand"
	"io"
	"math/big"
	"strings"

	"github.com/samber/lo"
)

const (
	Digits    = "0123456789"
	Upper     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Lower     = "abcdefghijklmnopqrstuvwxyz"
	Letters   = Upper + Lower
	Alnum     = Letters + Digits
	HexLower  = "0123456789abcdef"
	SymbolSet = "!@#$%^&*"
)

var aliases = map[string]string{
	"digits":       Digits,
	"numeric":      Digits,
	"d":            Digits,
	"alnum":        Alnum,
	"alphanumeric": Alnum,
	"a":            Alnum,
	"alpha":        Letters,
	"alphabet":     Letters,
	"letters":      Letters,
	"upper":        Upper,
	"uppercase":    Upper,
	"lower":        Lower,
	"lowercase":    Lower,
	"hex":          HexLower,
	"hexadecimal":  HexLower,
	"x":            HexLower,
	"symbols":      SymbolSet,
	"special":      SymbolSet,
}

// Generator draws codes from a secure random reader.
type Generator struct {
	reader io.Reader
}

// New returns a Generator backed by crypto/rand.
func New() *Generator {
	return &Generator{reader: rand.Reader}
}

// NewWithReader returns a Generator reading randomness from r.
func NewWithReader(r io.Reader) *Generator {
	return &Generator{reader: r}
}

// ResolveAlphabet maps a charset spec to its deduplicated alphabet.
//
// Named aliases win; any other spec longer than one character is taken
// literally; everything else resolves fallback the same way. An empty result
// becomes Digits.
func ResolveAlphabet(spec, fallback string) []rune {
	raw := lookup(spec)
	if raw == "" {
		raw = lookup(fallback)
	}

	out := lo.Uniq([]rune(raw))
	if len(out) == 0 {
		return []rune(Digits)
	}

	return out
}

func lookup(spec string) string {
	if v, ok := aliases[strings.ToLower(strings.TrimSpace(spec))]; ok {
		return v
	}

	if len([]rune(spec)) > 1 {
		return spec
	}

	return ""
}

// Generate returns a code of exactly length characters from the alphabet
// resolved by ResolveAlphabet(charset, defaultCharset).
func (g *Generator) Generate(length int, charset, defaultCharset string) (string, error) {
	if length <= 0 {
		return "", nil
	}

	alphabet := ResolveAlphabet(charset, defaultCharset)
	size := big.NewInt(int64(len(alphabet)))

	var b strings.Builder
	b.Grow(length)
	for range length {
		n, err := rand.Int(g.reader, size)
		if err != nil {
			return "", err
		}
		b.WriteRune(alphabet[n.Int64()])
	}

	return b.String(), nil
}
