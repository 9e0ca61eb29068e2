package spec

type SyntaxError struct {
	message string
}

func newSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		message: message,
	}
}

func (e *SyntaxError) Error() string {
	return e.message
}

var (
	// lexical errors
	synErrInvalidToken   = newSyntaxError("invalid token")
	synErrUnclosedAction = newSyntaxError("unclosed action; unexpected EOF before '}'")
	synErrUnclosedString = newSyntaxError("unclosed string")

	// syntax errors
	synErrNoRule              = newSyntaxError("a grammar must have at least one rule")
	synErrNoMetaName          = newSyntaxError("a meta directive needs a name")
	synErrMetaNoNewline       = newSyntaxError("a meta directive must be followed by a newline")
	synErrNoRuleName          = newSyntaxError("a rule name is missing")
	synErrRuleIndented        = newSyntaxError("a rule name must start at the beginning of a line")
	synErrNoColon             = newSyntaxError("the colon must follow a rule name")
	synErrInvalidMemoFlag     = newSyntaxError("a memo flag must be written as (memo)")
	synErrNoAlternative       = newSyntaxError("a rule needs at least one alternative")
	synErrAltNotIndented      = newSyntaxError("an alternative on a continuation line must be indented")
	synErrEmptyAlternative    = newSyntaxError("an alternative needs at least one item")
	synErrAltNoNewline        = newSyntaxError("alternatives must be followed by a newline")
	synErrNoItemAfterEq       = newSyntaxError("an item must follow '='")
	synErrNoLookaheadTarget   = newSyntaxError("a lookahead needs an atom")
	synErrUnclosedGroup       = newSyntaxError("unclosed group; ')' is missing")
	synErrUnclosedOpt         = newSyntaxError("unclosed optional item; ']' is missing")
	synErrInvalidGather       = newSyntaxError("a gather must be written as separator.item+")
	synErrUnclosedAnnotation  = newSyntaxError("unclosed annotation; ']' is missing")
	synErrEmptyAnnotation     = newSyntaxError("an annotation must not be empty")
	synErrDuplicateRule       = newSyntaxError("duplicate rule")
	synErrUnexpectedToken     = newSyntaxError("unexpected token")
)
