package canon

import (
	"strings"

	"silk/style"
)

// Rank orders sources targeting the same property in the same context.
// Higher rank wins regardless of key order.
type Rank int

const (
	RankFourSide Rank = iota // m, p, rounded
	RankAxis                 // mx, paddingY, size, roundedT
	RankSingle               // mt, bg, w
	RankFull                 // full property name
)

type alias struct {
	targets []string
	rank    Rank
}

func side(targets ...string) alias { return alias{targets: targets, rank: RankSingle} }
func axis(targets ...string) alias { return alias{targets: targets, rank: RankAxis} }
func four(targets ...string) alias { return alias{targets: targets, rank: RankFourSide} }

// aliases maps shorthand keys to full property names.
var aliases = map[string]alias{
	"m":  four("margin"),
	"mt": side("margin-top"),
	"mr": side("margin-right"),
	"mb": side("margin-bottom"),
	"ml": side("margin-left"),
	"mx": axis("margin-left", "margin-right"),
	"my": axis("margin-top", "margin-bottom"),

	"marginX": axis("margin-left", "margin-right"),
	"marginY": axis("margin-top", "margin-bottom"),

	"p":  four("padding"),
	"pt": side("padding-top"),
	"pr": side("padding-right"),
	"pb": side("padding-bottom"),
	"pl": side("padding-left"),
	"px": axis("padding-left", "padding-right"),
	"py": axis("padding-top", "padding-bottom"),

	"paddingX": axis("padding-left", "padding-right"),
	"paddingY": axis("padding-top", "padding-bottom"),

	"insetX": axis("left", "right"),
	"insetY": axis("top", "bottom"),

	"size": axis("width", "height"),
	"bg":   side("background-color"),
	"w":    side("width"),
	"h":    side("height"),
	"minW": side("min-width"),
	"maxW": side("max-width"),
	"minH": side("min-height"),
	"maxH": side("max-height"),

	"rounded":  four("border-radius"),
	"roundedT": axis("border-top-left-radius", "border-top-right-radius"),
	"roundedR": axis("border-top-right-radius", "border-bottom-right-radius"),
	"roundedB": axis("border-bottom-left-radius", "border-bottom-right-radius"),
	"roundedL": axis("border-top-left-radius", "border-bottom-left-radius"),
}

var vendorPrefixes = []struct{ camel, css string }{
	{"Webkit", "-webkit-"},
	{"Moz", "-moz-"},
	{"ms", "-ms-"},
	{"O", "-o-"},
}

// PropertyName converts style key into CSS property name: camelCase becomes
// kebab-case and vendor prefixes get their leading dash. Custom properties and
// names already in kebab-case are returned unchanged.
func PropertyName(key string) string {
	if strings.HasPrefix(key, "--") || strings.HasPrefix(key, "-") {
		return key
	}
	for _, vp := range vendorPrefixes {
		rest, ok := strings.CutPrefix(key, vp.camel)
		if ok && rest != "" && rest[0] >= 'A' && rest[0] <= 'Z' {
			return vp.css + style.KebabCase(lowerFirst(rest))
		}
	}
	return style.KebabCase(key)
}

func lowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	return string(s[0]+('a'-'A')) + s[1:]
}

// Expand returns full property names the key targets and the rank of the
// source.
func Expand(key string) ([]string, Rank) {
	if a, ok := aliases[key]; ok {
		return a.targets, a.rank
	}
	return []string{PropertyName(key)}, RankFull
}

// IsAlias reports whether key is a known shorthand alias.
func IsAlias(key string) bool {
	_, ok := aliases[key]
	return ok
}

// IsProperty reports whether key names a property or an alias. Used by style
// parser to distinguish malformed nested properties from media conditions.
func IsProperty(key string) bool {
	if IsAlias(key) || strings.HasPrefix(key, "--") {
		return true
	}
	name := PropertyName(key)
	if knownProperties[name] {
		return true
	}
	for _, vp := range vendorPrefixes {
		if rest, ok := strings.CutPrefix(name, vp.css); ok && rest != "" {
			return true
		}
	}
	return false
}

// Numeric values of spacing properties are scale steps multiplied by the
// spacing unit.
var spacingPrefixes = []string{"margin", "padding", "inset", "scroll-margin", "scroll-padding"}

var spacingProperties = map[string]bool{
	"gap":        true,
	"row-gap":    true,
	"column-gap": true,
	"top":        true,
	"right":      true,
	"bottom":     true,
	"left":       true,
}

// IsSpacing reports whether numeric values of the property are spacing scale
// steps.
func IsSpacing(property string) bool {
	if spacingProperties[property] {
		return true
	}
	for _, p := range spacingPrefixes {
		if property == p || strings.HasPrefix(property, p+"-") {
			return true
		}
	}
	return false
}

var unitlessProperties = map[string]bool{
	"opacity":                   true,
	"font-weight":               true,
	"line-height":               true,
	"flex":                      true,
	"flex-grow":                 true,
	"flex-shrink":               true,
	"z-index":                   true,
	"order":                     true,
	"zoom":                      true,
	"orphans":                   true,
	"widows":                    true,
	"column-count":              true,
	"fill-opacity":              true,
	"stroke-opacity":            true,
	"animation-iteration-count": true,
	"aspect-ratio":              true,
	"tab-size":                  true,
}

// IsUnitless reports whether numeric values of the property are rendered bare.
func IsUnitless(property string) bool {
	if strings.HasPrefix(property, "--") {
		return true
	}
	return unitlessProperties[property]
}

var knownProperties = func() map[string]bool {
	names := []string{
		"align-content", "align-items", "align-self", "all", "animation",
		"animation-delay", "animation-direction", "animation-duration",
		"animation-fill-mode", "animation-iteration-count", "animation-name",
		"animation-play-state", "animation-timing-function", "appearance",
		"aspect-ratio", "backdrop-filter", "backface-visibility", "background",
		"background-attachment", "background-blend-mode", "background-clip",
		"background-color", "background-image", "background-origin",
		"background-position", "background-repeat", "background-size",
		"block-size", "border", "border-block", "border-bottom",
		"border-bottom-color", "border-bottom-left-radius",
		"border-bottom-right-radius", "border-bottom-style", "border-bottom-width",
		"border-collapse", "border-color", "border-inline", "border-left",
		"border-left-color", "border-left-style", "border-left-width",
		"border-radius", "border-right", "border-right-color",
		"border-right-style", "border-right-width", "border-spacing",
		"border-style", "border-top", "border-top-color",
		"border-top-left-radius", "border-top-right-radius", "border-top-style",
		"border-top-width", "border-width", "bottom", "box-shadow", "box-sizing",
		"break-after", "break-before", "break-inside", "caret-color", "clear",
		"clip-path", "color", "column-count", "column-gap", "columns", "content",
		"cursor", "direction", "display", "fill", "fill-opacity", "filter",
		"flex", "flex-basis", "flex-direction", "flex-flow", "flex-grow",
		"flex-shrink", "flex-wrap", "float", "font", "font-family",
		"font-feature-settings", "font-size", "font-style", "font-variant",
		"font-weight", "gap", "grid", "grid-area", "grid-auto-columns",
		"grid-auto-flow", "grid-auto-rows", "grid-column", "grid-row",
		"grid-template", "grid-template-areas", "grid-template-columns",
		"grid-template-rows", "height", "hyphens", "inline-size", "inset",
		"inset-block", "inset-inline", "isolation", "justify-content",
		"justify-items", "justify-self", "left", "letter-spacing", "line-height",
		"list-style", "list-style-type", "margin", "margin-block",
		"margin-bottom", "margin-inline", "margin-left", "margin-right",
		"margin-top", "mask", "max-block-size", "max-height", "max-inline-size",
		"max-width", "min-block-size", "min-height", "min-inline-size",
		"min-width", "mix-blend-mode", "object-fit", "object-position",
		"opacity", "order", "orphans", "outline", "outline-color",
		"outline-offset", "outline-style", "outline-width", "overflow",
		"overflow-wrap", "overflow-x", "overflow-y", "overscroll-behavior",
		"padding", "padding-block", "padding-bottom", "padding-inline",
		"padding-left", "padding-right", "padding-top", "place-content",
		"place-items", "place-self", "pointer-events", "position", "resize",
		"right", "row-gap", "scroll-behavior", "scroll-margin",
		"scroll-margin-block", "scroll-margin-bottom", "scroll-margin-inline",
		"scroll-margin-left", "scroll-margin-right", "scroll-margin-top",
		"scroll-padding", "scroll-padding-block", "scroll-padding-bottom",
		"scroll-padding-inline", "scroll-padding-left", "scroll-padding-right",
		"scroll-padding-top", "scroll-snap-align", "scroll-snap-type", "stroke",
		"stroke-opacity", "stroke-width", "tab-size", "table-layout",
		"text-align", "text-decoration", "text-decoration-color",
		"text-decoration-line", "text-decoration-style", "text-indent",
		"text-overflow", "text-shadow", "text-transform", "top", "touch-action",
		"transform", "transform-origin", "transition", "transition-delay",
		"transition-duration", "transition-property",
		"transition-timing-function", "user-select", "vertical-align",
		"visibility", "white-space", "widows", "width", "will-change",
		"word-break", "word-spacing", "writing-mode", "z-index", "zoom",
	}
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}()
