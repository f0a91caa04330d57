package query

import "fmt"

// SyntaxError reports a lex or parse failure with its source position.
// The parser reports the first error and stops.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Message)
}

func syntaxErrorf(line, column int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Line: line, Column: column}
}
