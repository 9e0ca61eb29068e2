package generator

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	ErrNoStartRule    = newSemanticError("a grammar without a trailer must have a 'start' rule")
	ErrUnknownLiteral = newSemanticError("literal is neither a keyword nor a known token")
)
