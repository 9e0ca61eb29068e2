package java

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
	ErrClassExtendsItself = newSemanticError("the generated class cannot extend itself")
	ErrNameCollision      = newSemanticError("rule names collide in the generated class")
)
