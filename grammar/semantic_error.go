package grammar

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
	semErrNoRule            = newSemanticError("a grammar needs at least one rule")
	semErrUnderscoreName    = newSemanticError("rule names cannot start with an underscore")
	semErrDanglingReference = newSemanticError("dangling reference to rule")
	semErrNoLeader          = newSemanticError("left-recursive cycle has no leadership candidate (no rule is included in all cycles)")
)

// Sentinels for errors.Is.
var (
	ErrNoRule            = semErrNoRule
	ErrUnderscoreName    = semErrUnderscoreName
	ErrDanglingReference = semErrDanglingReference
	ErrNoLeader          = semErrNoLeader
)
