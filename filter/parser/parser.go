// Package parser turns predicate strings such as `age > 19 AND name IS NOT
// NULL` into unbound filters.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/filter"
	"github.com/pkg/errors"
)

type Parser struct {
	l         *Lexer
	curToken  Token
	peekToken Token
}

func NewParser(l *Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses expr into a filter. The result is not bound to a schema.
func Parse(expr string) (filter.Filter, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.Wrap(serrors.ErrInvalidFilter, "empty predicate")
	}
	p := NewParser(NewLexer(expr))
	f, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != EOF {
		return nil, p.unexpected("end of input")
	}
	return f, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) expect(t TokenType, what string) error {
	if p.curToken.Type != t {
		return p.unexpected(what)
	}
	p.nextToken()
	return nil
}

func (p *Parser) unexpected(want string) error {
	if p.curToken.Type == ILLEGAL {
		return errors.Wrapf(serrors.ErrInvalidFilter, "illegal token %s", p.curToken)
	}
	return errors.Wrapf(serrors.ErrInvalidFilter, "expected %s, got %s", want, p.curToken)
}

// ParseExpression parses a disjunction of conjunctions.
func (p *Parser) ParseExpression() (filter.Filter, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	filters := []filter.Filter{left}
	for p.curToken.Type == OR {
		p.nextToken()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		filters = append(filters, right)
	}
	if len(filters) == 1 {
		return left, nil
	}
	return filter.NewOrFilter(filters...), nil
}

func (p *Parser) parseAnd() (filter.Filter, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	filters := []filter.Filter{left}
	for p.curToken.Type == AND {
		p.nextToken()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		filters = append(filters, right)
	}
	if len(filters) == 1 {
		return left, nil
	}
	return filter.NewAndFilter(filters...), nil
}

func (p *Parser) parseNot() (filter.Filter, error) {
	if p.curToken.Type != NOT {
		return p.parseAtom()
	}
	p.nextToken()
	f, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return filter.NewNotFilter(f), nil
}

func (p *Parser) parseAtom() (filter.Filter, error) {
	switch p.curToken.Type {
	case PAREN_OPEN:
		p.nextToken()
		f, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(PAREN_CLOSE, "')'"); err != nil {
			return nil, err
		}
		return f, nil
	case IDENTIFIER:
		return p.parseColumnPredicate()
	case NUMBER, STRING, TRUE, FALSE, NULL:
		return p.parseReversedComparison()
	}
	return nil, p.unexpected("predicate")
}

func (p *Parser) parseColumnPredicate() (filter.Filter, error) {
	column := p.curToken.Literal
	p.nextToken()

	switch p.curToken.Type {
	case IS:
		p.nextToken()
		negated := false
		if p.curToken.Type == NOT {
			negated = true
			p.nextToken()
		}
		if err := p.expect(NULL, "NULL"); err != nil {
			return nil, err
		}
		if negated {
			return filter.NewIsNotNullFilter(column), nil
		}
		return filter.NewIsNullFilter(column), nil
	case NOT:
		p.nextToken()
		if p.curToken.Type != IN {
			return nil, p.unexpected("IN")
		}
		in, err := p.parseIn(column)
		if err != nil {
			return nil, err
		}
		return filter.NewNotFilter(in), nil
	case IN:
		return p.parseIn(column)
	}

	cmp, ok := comparison(p.curToken.Type)
	if !ok {
		return nil, p.unexpected("comparison operator")
	}
	p.nextToken()
	value, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return filter.NewConstantFilter(cmp, column, value), nil
}

// parseReversedComparison handles `19 < age`.
func (p *Parser) parseReversedComparison() (filter.Filter, error) {
	value, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	cmp, ok := comparison(p.curToken.Type)
	if !ok {
		return nil, p.unexpected("comparison operator")
	}
	p.nextToken()
	if p.curToken.Type != IDENTIFIER {
		return nil, p.unexpected("column name")
	}
	column := p.curToken.Literal
	p.nextToken()
	return filter.NewConstantFilter(mirror(cmp), column, value), nil
}

func (p *Parser) parseIn(column string) (filter.Filter, error) {
	p.nextToken()
	if err := p.expect(PAREN_OPEN, "'('"); err != nil {
		return nil, err
	}
	var values []any
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.curToken.Type != COMMA {
			break
		}
		p.nextToken()
	}
	if err := p.expect(PAREN_CLOSE, "')'"); err != nil {
		return nil, err
	}
	return filter.NewInFilter(column, values...), nil
}

func (p *Parser) parseLiteral() (any, error) {
	tok := p.curToken
	var value any
	switch tok.Type {
	case STRING:
		value = tok.Literal
	case TRUE:
		value = true
	case FALSE:
		value = false
	case NUMBER:
		v, err := parseNumber(tok.Literal)
		if err != nil {
			return nil, errors.Wrapf(serrors.ErrInvalidFilter, "invalid number %s", tok)
		}
		value = v
	case NULL:
		return nil, errors.Wrapf(serrors.ErrInvalidFilter, "comparison with NULL at %d is never true, use IS NULL", tok.Pos)
	default:
		return nil, p.unexpected("literal")
	}
	p.nextToken()
	return value, nil
}

func parseNumber(s string) (any, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
	}
	return strconv.ParseFloat(s, 64)
}

func comparison(t TokenType) (filter.ComparisonType, bool) {
	switch t {
	case EQ:
		return filter.Equal, true
	case NEQ:
		return filter.NotEqual, true
	case LT:
		return filter.LessThan, true
	case LTE:
		return filter.LessThanOrEqual, true
	case GT:
		return filter.GreaterThan, true
	case GTE:
		return filter.GreaterThanOrEqual, true
	}
	return 0, false
}

// mirror swaps the operand order of a comparison.
func mirror(c filter.ComparisonType) filter.ComparisonType {
	switch c {
	case filter.LessThan:
		return filter.GreaterThan
	case filter.LessThanOrEqual:
		return filter.GreaterThanOrEqual
	case filter.GreaterThan:
		return filter.LessThan
	case filter.GreaterThanOrEqual:
		return filter.LessThanOrEqual
	}
	return c
}

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case IDENTIFIER:
		return "IDENTIFIER"
	case STRING:
		return "STRING"
	case NUMBER:
		return "NUMBER"
	}
	return fmt.Sprintf("TOKEN(%d)", int(t))
}
