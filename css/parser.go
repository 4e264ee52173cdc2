package css

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// groupingRules contain nested rules and become wrappers. Other block
// at-rules (@layer and @container included) are tokenized by the underlying
// parser as opaque token runs and are kept as single KindAtBlock rules.
var groupingRules = map[string]bool{
	"@media":    true,
	"@supports": true,
	"@document": true,
}

// Parser reads stylesheets into flat rule lists: rules nested in grouping
// at-rules carry their wrappers.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	p.parseBlock(parser, sheet, nil, true)
	return sheet
}

// parseBlock reads rules until the end of current grouping block or input.
func (p *Parser) parseBlock(parser *css.Parser, sheet *Stylesheet, wrappers []string, top bool) {
	var qualified []string

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				sheet.Warnings = append(sheet.Warnings, "parse error: "+err.Error())
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return

		case css.EndAtRuleGrammar:
			if !top {
				return
			}

		case css.BeginAtRuleGrammar:
			name := strings.ToLower(string(data))
			prelude := prelude(name, parser.Values())
			if groupingRules[name] {
				inner := make([]string, len(wrappers), len(wrappers)+1)
				copy(inner, wrappers)
				p.parseBlock(parser, sheet, append(inner, prelude), false)
				continue
			}
			sheet.Rules = append(sheet.Rules, Rule{
				Kind:     KindAtBlock,
				Wrappers: wrappers,
				AtRule:   prelude,
				Body:     p.captureBlock(parser),
			})

		case css.AtRuleGrammar:
			sheet.Rules = append(sheet.Rules, Rule{
				Kind:     KindStatement,
				Wrappers: wrappers,
				AtRule:   prelude(strings.ToLower(string(data)), parser.Values()),
			})

		case css.QualifiedRuleGrammar:
			qualified = append(qualified, selectorText(data, parser.Values()))

		case css.BeginRulesetGrammar:
			selectors := append(qualified, selectorText(data, parser.Values()))
			qualified = nil
			rule := NewRule(strings.Join(selectors, ","), wrappers, p.parseDeclarations(parser)...)
			if rule.Selector == "" {
				sheet.Warnings = append(sheet.Warnings, "rule without selector skipped")
				continue
			}
			sheet.Rules = append(sheet.Rules, rule)
		}
	}
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser) []Declaration {
	var decls []Declaration
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls

		case css.DeclarationGrammar:
			if values := parser.Values(); len(values) > 0 {
				decls = append(decls, Declaration{Property: strings.ToLower(string(data)), Value: tokensText(values)})
			}

		case css.CustomPropertyGrammar:
			if values := parser.Values(); len(values) > 0 {
				decls = append(decls, Declaration{Property: string(data), Value: string(bytes.TrimSpace(values[0].Data))})
			}
		}
	}
}

// captureBlock renders content of non grouping at-rule block, nested rules
// and declarations included, until the matching end.
func (p *Parser) captureBlock(parser *css.Parser) string {
	var b strings.Builder
	depth := 1
	separate := func() {
		if s := b.String(); s != "" && !strings.HasSuffix(s, "{") && !strings.HasSuffix(s, "}") && !strings.HasSuffix(s, ",") {
			b.WriteByte(';')
		}
	}
	for depth > 0 {
		gt, tt, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return b.String()
		case css.TokenGrammar:
			if tt == css.WhitespaceToken {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				continue
			}
			b.Write(data)
		case css.BeginAtRuleGrammar:
			separate()
			b.WriteString(prelude(strings.ToLower(string(data)), parser.Values()))
			b.WriteByte('{')
			depth++
		case css.BeginRulesetGrammar:
			separate()
			b.WriteString(selectorText(data, parser.Values()))
			b.WriteByte('{')
			depth++
		case css.QualifiedRuleGrammar:
			separate()
			b.WriteString(selectorText(data, parser.Values()))
			b.WriteByte(',')
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
			if depth > 0 {
				b.WriteByte('}')
			}
		case css.AtRuleGrammar:
			separate()
			b.WriteString(prelude(strings.ToLower(string(data)), parser.Values()))
		case css.DeclarationGrammar:
			separate()
			b.WriteString(strings.ToLower(string(data)))
			b.WriteByte(':')
			b.WriteString(tokensText(parser.Values()))
		case css.CustomPropertyGrammar:
			separate()
			b.Write(data)
			b.WriteByte(':')
			if values := parser.Values(); len(values) > 0 {
				b.Write(bytes.TrimSpace(values[0].Data))
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func prelude(name string, values []css.Token) string {
	if params := tokensText(values); params != "" {
		return name + " " + params
	}
	return name
}

// selectorText builds selector string from token data.
func selectorText(data []byte, values []css.Token) string {
	var sb strings.Builder
	sb.Write(data)
	sb.WriteString(tokensText(values))
	return strings.TrimSpace(sb.String())
}

// tokensText joins tokens collapsing whitespace runs into single space.
func tokensText(tokens []css.Token) string {
	var sb strings.Builder
	pending := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken || t.TokenType == css.CommentToken {
			pending = sb.Len() > 0
			continue
		}
		if pending {
			sb.WriteByte(' ')
			pending = false
		}
		sb.Write(t.Data)
	}
	return sb.String()
}
