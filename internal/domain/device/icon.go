package device

// DefaultIcon is used when a record carries an unrecognized icon token. An
// unknown token never fails a save; it just renders as the default glyph.
const DefaultIcon = "person"

const defaultGlyph = "📍"

var iconGlyphs = map[string]string{
	"lion":    "🦁",
	"tiger":   "🐯",
	"eagle":   "🦅",
	"dolphin": "🐬",
	"fox":     "🦊",
	"bear":    "🐻",
	"rabbit":  "🐰",
	"whale":   "🐋",
	"owl":     "🦉",
	"panda":   "🐼",
	"penguin": "🐧",
	"turtle":  "🐢",
	"car":     "🚗",
	"bike":    "🚲",
	"person":  "👤",
}

// KnownIcon reports whether token is part of the fixed icon set.
func KnownIcon(token string) bool {
	_, ok := iconGlyphs[token]
	return ok
}

// Glyph resolves an icon token to its pictogram, falling back to the default
// glyph for unrecognized tokens.
func Glyph(token string) string {
	if g, ok := iconGlyphs[token]; ok {
		return g
	}
	return defaultGlyph
}

// Icons lists the valid tokens, for clients that render a picker.
func Icons() []string {
	tokens := make([]string, 0, len(iconGlyphs))
	for token := range iconGlyphs {
		tokens = append(tokens, token)
	}
	return tokens
}
