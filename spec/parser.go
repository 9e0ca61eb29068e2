package spec

import (
	"io"
	"strconv"
	"strings"

	verr "github.com/nihei9/jpegen/error"
	"github.com/nihei9/jpegen/grammar"
	"github.com/nihei9/jpegen/log"
	"github.com/sirupsen/logrus"
)

func raiseSyntaxError(cause error, tok *Token) {
	err := &verr.SpecError{
		Cause: cause,
	}
	if tok != nil {
		err.Row = tok.Pos.Row
		err.Col = tok.Pos.Col
		if tok.Kind != TokenKindNewline && tok.Kind != TokenKindEndMarker {
			err.Detail = tok.Text
		}
	}
	panic(err)
}

// Parse reads a grammar file.
func Parse(src io.Reader) (*grammar.Grammar, error) {
	tok, err := NewTokenizer(src)
	if err != nil {
		return nil, err
	}
	return NewParser(tok).Parse()
}

type ParserOption func(p *Parser)

// ParserLogger sets the logger receiving the parser trace.
func ParserLogger(l logrus.FieldLogger) ParserOption {
	return func(p *Parser) {
		p.logger = l
	}
}

// VerboseParser makes the parser log every rule of the grammar language it tries.
func VerboseParser(verbose bool) ParserOption {
	return func(p *Parser) {
		p.verbose = verbose
	}
}

// Parser is a recursive-descent parser of grammar files. It backtracks using the marks of its tokenizer.
type Parser struct {
	tok     *Tokenizer
	level   int
	logger  logrus.FieldLogger
	verbose bool
}

func NewParser(tok *Tokenizer, opts ...ParserOption) *Parser {
	p := &Parser{
		tok:    tok,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tokenizer returns the tokenizer the parser reads from.
func (p *Parser) Tokenizer() *Tokenizer {
	return p.tok
}

func (p *Parser) Parse() (gram *grammar.Grammar, retErr error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		err, ok := v.(error)
		if !ok {
			panic(v)
		}
		retErr = err
	}()
	return p.parseGrammar(), nil
}

func (p *Parser) parseGrammar() *grammar.Grammar {
	defer p.trace("grammar")()

	metas := []*grammar.Meta{}
	for p.peekOp("@") {
		metas = append(metas, p.parseMeta())
	}

	rules := []*grammar.Rule{}
	defined := map[string]struct{}{}
	for !p.peekKind(TokenKindEndMarker) {
		tok := p.peek()
		rule := p.parseRule()
		if _, ok := defined[rule.Name]; ok {
			err := &verr.SpecError{
				Cause:  synErrDuplicateRule,
				Detail: rule.Name,
				Row:    tok.Pos.Row,
				Col:    tok.Pos.Col,
			}
			panic(err)
		}
		defined[rule.Name] = struct{}{}
		rules = append(rules, rule)
	}
	if len(rules) == 0 {
		raiseSyntaxError(synErrNoRule, nil)
	}

	return grammar.NewGrammar(rules, metas)
}

func (p *Parser) parseMeta() *grammar.Meta {
	defer p.trace("meta")()

	at := p.next()
	if !p.peekKind(TokenKindName) {
		raiseSyntaxError(synErrNoMetaName, p.peek())
	}
	name := p.next()

	meta := &grammar.Meta{
		Name: name.Text,
		Pos:  at.Pos,
	}
	switch {
	case p.peekKind(TokenKindName):
		meta.Value = p.next().Text
	case p.peekKind(TokenKindString):
		meta.Value = evalString(p.next().Text)
	}
	if !p.consumeKind(TokenKindNewline) {
		raiseSyntaxError(synErrMetaNoNewline, p.peek())
	}

	return meta
}

func (p *Parser) parseRule() *grammar.Rule {
	defer p.trace("rule")()

	if !p.peekKind(TokenKindName) {
		raiseSyntaxError(synErrNoRuleName, p.peek())
	}
	name := p.next()
	if name.Pos.Col != 1 {
		raiseSyntaxError(synErrRuleIndented, name)
	}

	rule := &grammar.Rule{
		Name: name.Text,
		Pos:  name.Pos,
	}
	if p.consumeOp("[") {
		rule.Type = p.parseAnnotation()
	}
	if p.consumeOp("(") {
		memo := p.peek()
		if memo.Kind != TokenKindName || memo.Text != "memo" {
			raiseSyntaxError(synErrInvalidMemoFlag, memo)
		}
		p.next()
		if !p.consumeOp(")") {
			raiseSyntaxError(synErrInvalidMemoFlag, p.peek())
		}
		rule.Memo = true
	}
	if !p.consumeOp(":") {
		raiseSyntaxError(synErrNoColon, p.peek())
	}

	rhs := &grammar.Rhs{}
	if !p.consumeKind(TokenKindNewline) {
		rhs.Alts = append(rhs.Alts, p.parseAlts().Alts...)
		if !p.consumeKind(TokenKindNewline) {
			raiseSyntaxError(synErrAltNoNewline, p.peek())
		}
	}
	for p.peekOp("|") {
		bar := p.next()
		if bar.Pos.Col == 1 {
			raiseSyntaxError(synErrAltNotIndented, bar)
		}
		rhs.Alts = append(rhs.Alts, p.parseAlts().Alts...)
		if !p.consumeKind(TokenKindNewline) {
			raiseSyntaxError(synErrAltNoNewline, p.peek())
		}
	}
	if len(rhs.Alts) == 0 {
		raiseSyntaxError(synErrNoAlternative, name)
	}
	rule.Rhs = rhs

	return rule
}

// parseAnnotation reads a target-language type up to the closing bracket. The opening bracket is already
// consumed.
func (p *Parser) parseAnnotation() string {
	defer p.trace("annotation")()

	var b strings.Builder
	var prev *Token
	depth := 0
	for {
		tok := p.peek()
		switch {
		case tok.Kind == TokenKindEndMarker || tok.Kind == TokenKindNewline || tok.Kind == TokenKindAction:
			raiseSyntaxError(synErrUnclosedAnnotation, tok)
		case tok.Kind == TokenKindOp && tok.Text == "[":
			depth++
		case tok.Kind == TokenKindOp && tok.Text == "]":
			if depth == 0 {
				p.next()
				if b.Len() == 0 {
					raiseSyntaxError(synErrEmptyAnnotation, tok)
				}
				return b.String()
			}
			depth--
		}
		p.next()

		if prev != nil && needsSpace(prev, tok) {
			b.WriteString(" ")
		}
		b.WriteString(tok.Text)
		prev = tok
	}
}

func needsSpace(prev, tok *Token) bool {
	if prev.Kind == TokenKindOp && prev.Text == "," {
		return true
	}
	if tok.Kind != TokenKindName && tok.Kind != TokenKindNumber {
		return false
	}
	return prev.Kind == TokenKindName || prev.Kind == TokenKindNumber || prev.Text == "?"
}

func (p *Parser) parseAlts() *grammar.Rhs {
	defer p.trace("alts")()

	rhs := &grammar.Rhs{
		Alts: []*grammar.Alt{p.parseAlt()},
	}
	for p.consumeOp("|") {
		rhs.Alts = append(rhs.Alts, p.parseAlt())
	}
	return rhs
}

func (p *Parser) parseAlt() *grammar.Alt {
	defer p.trace("alt")()

	alt := &grammar.Alt{
		Icut: -1,
	}
	for {
		item := p.parseNamedItem()
		if item == nil {
			break
		}
		if _, ok := item.Item.(*grammar.Cut); ok && alt.Icut < 0 {
			alt.Icut = len(alt.Items)
		}
		alt.Items = append(alt.Items, item)
	}
	if len(alt.Items) == 0 {
		raiseSyntaxError(synErrEmptyAlternative, p.peek())
	}
	if p.consumeOp("$") {
		alt.Items = append(alt.Items, &grammar.NamedItem{
			Item: &grammar.NameLeaf{
				Value: "ENDMARKER",
			},
		})
	}
	if p.peekKind(TokenKindAction) {
		alt.Action = p.next().Text
	}
	return alt
}

func (p *Parser) parseNamedItem() *grammar.NamedItem {
	defer p.trace("named_item")()

	if p.peekKind(TokenKindName) {
		mark := p.tok.Mark()
		name := p.next()
		var typ string
		if p.consumeOp("[") {
			// `a [b]` is an item followed by an optional item rather than an annotated name unless `=` follows.
			annMark := p.tok.Mark()
			if p.isAnnotation() {
				p.tok.Reset(annMark)
				typ = p.parseAnnotation()
			}
		}
		if p.consumeOp("=") {
			item := p.parseItem()
			if item == nil {
				raiseSyntaxError(synErrNoItemAfterEq, p.peek())
			}
			return &grammar.NamedItem{
				Name: name.Text,
				Type: typ,
				Item: item,
			}
		}
		p.tok.Reset(mark)
	}

	switch {
	case p.consumeOp("&"):
		if p.consumeOp("&") {
			return &grammar.NamedItem{
				Item: &grammar.Forced{
					Node: p.parseLookaheadTarget(),
				},
			}
		}
		return &grammar.NamedItem{
			Item: &grammar.PositiveLookahead{
				Node: p.parseLookaheadTarget(),
			},
		}
	case p.consumeOp("!"):
		return &grammar.NamedItem{
			Item: &grammar.NegativeLookahead{
				Node: p.parseLookaheadTarget(),
			},
		}
	case p.consumeOp("~"):
		return &grammar.NamedItem{
			Item: &grammar.Cut{},
		}
	}

	item := p.parseItem()
	if item == nil {
		return nil
	}
	return &grammar.NamedItem{
		Item: item,
	}
}

// isAnnotation looks ahead, without consuming tokens, whether the bracket just consumed closes an annotation
// followed by `=`.
func (p *Parser) isAnnotation() bool {
	mark := p.tok.Mark()
	defer p.tok.Reset(mark)

	depth := 0
	for {
		tok := p.next()
		switch {
		case tok.Kind == TokenKindEndMarker || tok.Kind == TokenKindNewline:
			return false
		case tok.Kind == TokenKindOp && tok.Text == "[":
			depth++
		case tok.Kind == TokenKindOp && tok.Text == "]":
			if depth == 0 {
				return p.peekOp("=")
			}
			depth--
		}
	}
}

func (p *Parser) parseLookaheadTarget() grammar.Item {
	atom := p.parseAtom()
	if atom == nil {
		raiseSyntaxError(synErrNoLookaheadTarget, p.peek())
	}
	return atom
}

func (p *Parser) parseItem() grammar.Item {
	defer p.trace("item")()

	if p.consumeOp("[") {
		rhs := p.parseAlts()
		if !p.consumeOp("]") {
			raiseSyntaxError(synErrUnclosedOpt, p.peek())
		}
		return &grammar.Opt{
			Node: rhs,
		}
	}

	atom := p.parseAtom()
	if atom == nil {
		return nil
	}
	switch {
	case p.consumeOp("?"):
		return &grammar.Opt{
			Node: atom,
		}
	case p.consumeOp("*"):
		return &grammar.Repeat0{
			Node: atom,
		}
	case p.consumeOp("+"):
		return &grammar.Repeat1{
			Node: atom,
		}
	case p.peekOp("."):
		dot := p.next()
		node := p.parseAtom()
		if node == nil || !p.consumeOp("+") {
			raiseSyntaxError(synErrInvalidGather, dot)
		}
		return &grammar.Gather{
			Separator: atom,
			Node:      node,
		}
	}
	return atom
}

func (p *Parser) parseAtom() grammar.Item {
	defer p.trace("atom")()

	switch {
	case p.peekOp("("):
		open := p.next()
		rhs := p.parseAlts()
		if !p.consumeOp(")") {
			raiseSyntaxError(synErrUnclosedGroup, open)
		}
		return &grammar.Group{
			Rhs: rhs,
		}
	case p.peekKind(TokenKindName):
		return &grammar.NameLeaf{
			Value: p.next().Text,
		}
	case p.peekKind(TokenKindString):
		return &grammar.StringLeaf{
			Value: p.next().Text,
		}
	}
	return nil
}

func (p *Parser) peek() *Token {
	tok, err := p.tok.Peek()
	if err != nil {
		panic(err)
	}
	return tok
}

func (p *Parser) next() *Token {
	tok, err := p.tok.GetNext()
	if err != nil {
		panic(err)
	}
	return tok
}

func (p *Parser) peekKind(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) peekOp(op string) bool {
	tok := p.peek()
	return tok.Kind == TokenKindOp && tok.Text == op
}

func (p *Parser) consumeKind(kind TokenKind) bool {
	if !p.peekKind(kind) {
		return false
	}
	p.next()
	return true
}

func (p *Parser) consumeOp(op string) bool {
	if !p.peekOp(op) {
		return false
	}
	p.next()
	return true
}

// trace logs entering a rule of the grammar language; the returned function logs leaving it.
func (p *Parser) trace(rule string) func() {
	if !p.verbose {
		return func() {}
	}
	fill := strings.Repeat("  ", p.level)
	p.level++
	p.logger.Debugf("%v%v() ... (looking at %v)", fill, rule, p.peek())
	mark := p.tok.Mark()
	return func() {
		p.level--
		p.logger.Debugf("%v... %v() consumed %v tokens", fill, rule, p.tok.Mark()-mark)
	}
}

// evalString interprets the escape sequences of a string literal in a meta directive. Triple-quoted strings are
// taken verbatim.
func evalString(s string) string {
	if strings.HasPrefix(s, `"""`) || strings.HasPrefix(s, `'''`) {
		return grammar.Unquote(s)
	}
	if strings.HasPrefix(s, `'`) {
		inner := grammar.Unquote(s)
		inner = strings.ReplaceAll(inner, `\'`, `'`)
		inner = strings.ReplaceAll(inner, `"`, `\"`)
		s = `"` + inner + `"`
	}
	v, err := strconv.Unquote(s)
	if err != nil {
		return grammar.Unquote(s)
	}
	return v
}
