package theme

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	darkInk  = "#0f172a"
	lightInk = "#ffffff"
)

// unsafeChars break out of a CSS declaration.
const unsafeChars = ";{}<>\"'\\\n\r"

// clean returns v trimmed, or "" when v is empty or could break the
// generated stylesheet.
func clean(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, unsafeChars) {
		return ""
	}
	return v
}

func parse(hex string) (colorful.Color, bool) {
	c, err := colorful.Hex(strings.ToLower(hex))
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// shift moves a color's lightness by amount: darker in light mode, lighter in
// dark mode.
func shift(hex string, mode Mode, amount float64) (string, bool) {
	c, ok := parse(hex)
	if !ok {
		return "", false
	}
	l, a, b := c.Lab()
	if mode == ModeDark {
		l += amount
	} else {
		l -= amount
	}
	l = clamp(l, 0, 1)
	return colorful.Lab(l, a, b).Clamped().Hex(), true
}

// contrast picks dark or light ink for text drawn on hex.
func contrast(hex string) (string, bool) {
	c, ok := parse(hex)
	if !ok {
		return "", false
	}
	r, g, b := c.LinearRgb()
	if 0.2126*r+0.7152*g+0.0722*b > 0.179 {
		return darkInk, true
	}
	return lightInk, true
}

// blend mixes from toward to by t in Lab space.
func blend(from, to string, t float64) (string, bool) {
	a, ok := parse(from)
	if !ok {
		return "", false
	}
	b, ok := parse(to)
	if !ok {
		return "", false
	}
	return a.BlendLab(b, t).Clamped().Hex(), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
