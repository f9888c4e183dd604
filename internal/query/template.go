package query

import (
	"strconv"
	"strings"
)

// Template is a raw SQL fragment with positional {n} placeholders, for
// vendor functions the structured model does not cover. Placeholders are
// substituted by rendering the matching argument; literal braces are not
// supported. A template may be projected, compared, or used as a predicate.
type Template struct {
	segments []segment
	args     []Expression
	text     string
}

type segment struct {
	text string
	arg  int // -1 for plain text
}

// NewTemplate parses text and checks that every placeholder has an argument
// and every argument is referenced. Null arguments are rejected.
func NewTemplate(text string, args ...any) (*Template, error) {
	exprs := make([]Expression, 0, len(args))
	for i, a := range args {
		e := operand(a)
		if lit, ok := e.(Literal); ok && lit.Value == nil {
			return nil, invalid(text, "argument %d is null", i)
		}
		exprs = append(exprs, e)
	}
	segs, used, err := parseTemplate(text, len(exprs))
	if err != nil {
		return nil, err
	}
	for i, ok := range used {
		if !ok {
			return nil, templateError(text, "argument "+strconv.Itoa(i)+" is never referenced")
		}
	}
	return &Template{segments: segs, args: exprs, text: text}, nil
}

// MustTemplate is NewTemplate for static templates; it panics on error.
func MustTemplate(text string, args ...any) *Template {
	t, err := NewTemplate(text, args...)
	if err != nil {
		panic(err)
	}
	return t
}

func parseTemplate(text string, nargs int) ([]segment, []bool, error) {
	var segs []segment
	used := make([]bool, nargs)
	var plain strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			plain.WriteByte(text[i])
			continue
		}
		end := strings.IndexByte(text[i:], '}')
		if end < 0 {
			return nil, nil, templateError(text, "unterminated placeholder")
		}
		idx, err := strconv.Atoi(text[i+1 : i+end])
		if err != nil || idx < 0 {
			return nil, nil, templateError(text, "malformed placeholder "+text[i:i+end+1])
		}
		if idx >= nargs {
			return nil, nil, templateError(text, "placeholder {"+strconv.Itoa(idx)+"} has no argument")
		}
		if plain.Len() > 0 {
			segs = append(segs, segment{text: plain.String(), arg: -1})
			plain.Reset()
		}
		segs = append(segs, segment{arg: idx})
		used[idx] = true
		i += end
	}
	if plain.Len() > 0 {
		segs = append(segs, segment{text: plain.String(), arg: -1})
	}
	return segs, used, nil
}

func templateError(text, reason string) error {
	return &templateArityError{PredicateError{Expr: text, Reason: reason}}
}

type templateArityError struct{ PredicateError }

func (e *templateArityError) Is(target error) bool {
	return target == ErrTemplateArity || target == ErrInvalidPredicate
}

func (t *Template) String() string { return t.text }

func (t *Template) As(alias string) Expression { return As(t, alias) }
func (t *Template) Eq(v any) *Comparison       { return Compare(t, OpEq, v) }
func (t *Template) Like(v any) *Comparison     { return Compare(t, OpLike, v) }
func (t *Template) Asc() OrderSpecifier        { return OrderSpecifier{expr: t} }
func (t *Template) Desc() OrderSpecifier       { return OrderSpecifier{expr: t, desc: true} }

func (t *Template) render(r *renderer) error {
	for _, s := range t.segments {
		if s.arg < 0 {
			r.write(s.text)
			continue
		}
		if err := t.args[s.arg].render(r); err != nil {
			return err
		}
	}
	return nil
}

func (t *Template) renderPredicate(r *renderer) error {
	r.write("(")
	if err := t.render(r); err != nil {
		return err
	}
	r.write(")")
	return nil
}

func (t *Template) validate() error { return nil }
