// Package calc provides an arithmetic evaluation tool. Expressions are
// parsed with a restricted grammar (numbers, + - * /, parentheses, unary
// minus) rather than handed to a general-purpose interpreter, so the LLM
// can do math without any code execution surface.
package calc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	lumen "github.com/pratama/lumen"
)

const maxExpressionLen = 1024

// Tool evaluates arithmetic expressions.
type Tool struct{}

// New creates a calculator tool.
func New() *Tool { return &Tool{} }

var _ lumen.Tool = (*Tool)(nil)

func (t *Tool) Definitions() []lumen.ToolDefinition {
	return []lumen.ToolDefinition{
		{
			Name:        "calculator",
			Description: "Evaluate an arithmetic expression. Supports numbers, + - * /, parentheses, and unary minus. Use for any computation instead of doing math yourself.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"expression": {
						"type": "string",
						"description": "Arithmetic expression to evaluate, e.g. \"(2 + 3) * 4\""
					}
				},
				"required": ["expression"]
			}`),
		},
	}
}

type calcArgs struct {
	Expression string `json:"expression"`
}

func (t *Tool) Execute(ctx context.Context, name string, args json.RawMessage) (lumen.ToolResult, error) {
	if name != "calculator" {
		return lumen.ToolResult{Error: "unknown calc tool: " + name}, nil
	}
	var a calcArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return lumen.ToolResult{Error: "invalid args: " + err.Error()}, nil
	}
	expr := strings.TrimSpace(a.Expression)
	if expr == "" {
		return lumen.ToolResult{Error: "expression is required"}, nil
	}
	if len(expr) > maxExpressionLen {
		return lumen.ToolResult{Error: fmt.Sprintf("expression exceeds %d characters", maxExpressionLen)}, nil
	}

	result, err := evaluate(expr)
	if err != nil {
		return lumen.ToolResult{Error: err.Error()}, nil
	}
	return lumen.ToolResult{Content: formatNumber(result)}, nil
}

// formatNumber renders integers without a trailing ".0" so the model sees
// "42" rather than "42.000000".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// --- expression grammar ---
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = number | "-" factor | "(" expr ")"
//
// Anything else, including identifiers and function calls, is a parse
// error.

type parser struct {
	input string
	pos   int
}

func evaluate(expr string) (float64, error) {
	p := &parser{input: expr}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected %q at position %d", p.input[p.pos], p.pos)
	}
	return v, nil
}

func (p *parser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (p *parser) parseFactor() (float64, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '-':
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -v, nil
	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		p.pos++
		return v, nil
	case c == 0:
		return 0, fmt.Errorf("unexpected end of expression")
	case unicode.IsDigit(rune(c)) || c == '.':
		return p.parseNumber()
	default:
		return 0, fmt.Errorf("unexpected %q at position %d", c, p.pos)
	}
}

func (p *parser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if unicode.IsDigit(rune(c)) || c == '.' {
			p.pos++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q at position %d", p.input[start:p.pos], start)
	}
	return v, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

// peek returns the next byte without consuming it, or 0 at end of input.
func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}
