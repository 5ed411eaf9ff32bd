// Package kvparse parses the key=value parameter syntax frog's run
// command accepts for resource arguments, including nested brace groups
// like `owner={name=ops gid=1000}`.
//
// The original used the `regex` package's recursive-pattern support
// (`(?R)`) to match nested brace groups in one expression. Go's regexp
// engine (RE2) cannot express unbounded recursive patterns, so this is a
// small recursive-descent parser instead: the same three-shape grammar
// (unquoted token, quoted string, brace group), walked by hand.
package kvparse

import (
	"strings"

	"github.com/griffithind/frog/internal/ferrors"
)

// ParseMany parses a list of key=value arguments (as passed on argv)
// into one merged map, later entries overriding earlier ones on key
// collision.
func ParseMany(items []string) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	for _, item := range items {
		parsed, err := Parse(item)
		if err != nil {
			return nil, err
		}
		for k, v := range parsed {
			result[k] = v
		}
	}
	return result, nil
}

// Parse parses a single "key=value key2=value2 ..." string into a map.
func Parse(data string) (map[string]interface{}, error) {
	p := &parser{input: data, pos: 0}
	result, err := p.parsePairs()
	if err != nil {
		return nil, err
	}
	return result, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parsePairs() (map[string]interface{}, error) {
	result := make(map[string]interface{})
	for {
		p.skipSpace()
		if p.atEnd() || p.peek() == '}' {
			return result, nil
		}

		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}

		if p.atEnd() || p.peek() != '=' {
			return nil, ferrors.Newf(ferrors.CategoryInventory, ferrors.CodeInventoryParse, "expected '=' after key %q", key)
		}
		p.pos++ // consume '='

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		result[key] = value
	}
}

func (p *parser) parseKey() (string, error) {
	start := p.pos
	for !p.atEnd() && p.peek() != '=' && p.peek() != ' ' && p.peek() != '}' {
		p.pos++
	}
	if start == p.pos {
		return "", ferrors.New(ferrors.CategoryInventory, ferrors.CodeInventoryParse, "expected a key")
	}
	return p.input[start:p.pos], nil
}

func (p *parser) parseValue() (interface{}, error) {
	if p.atEnd() {
		return "", nil
	}

	switch p.peek() {
	case '{':
		return p.parseBraceGroup()
	case '\'', '"':
		return p.parseQuoted(p.peek())
	default:
		return p.parseUnquoted(), nil
	}
}

func (p *parser) parseBraceGroup() (map[string]interface{}, error) {
	p.pos++ // consume '{'
	sub, err := p.parsePairs()
	if err != nil {
		return nil, err
	}
	if p.atEnd() || p.peek() != '}' {
		return nil, ferrors.New(ferrors.CategoryInventory, ferrors.CodeInventoryParse, "unterminated '{' group")
	}
	p.pos++ // consume '}'
	return sub, nil
}

func (p *parser) parseQuoted(quote byte) (string, error) {
	p.pos++ // consume opening quote
	start := p.pos
	for !p.atEnd() && p.peek() != quote {
		p.pos++
	}
	if p.atEnd() {
		return "", ferrors.Newf(ferrors.CategoryInventory, ferrors.CodeInventoryParse, "unterminated %c-quoted value", quote)
	}
	value := p.input[start:p.pos]
	p.pos++ // consume closing quote
	return value, nil
}

func (p *parser) parseUnquoted() string {
	start := p.pos
	for !p.atEnd() && p.peek() != ' ' && p.peek() != '}' {
		p.pos++
	}
	return strings.TrimSpace(p.input[start:p.pos])
}

func (p *parser) skipSpace() {
	for !p.atEnd() && p.peek() == ' ' {
		p.pos++
	}
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.input)
}

func (p *parser) peek() byte {
	return p.input[p.pos]
}
