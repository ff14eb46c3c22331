package lending

import "github.com/starford/lendscan/internal/apperr"

// Result is the outcome handed to the presentation layer: a success flag and
// a message that can be displayed as is.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Kind    apperr.Kind `json:"kind,omitempty"`
}

// Succeeded builds a successful Result.
func Succeeded(msg string) Result {
	return Result{Success: true, Message: msg}
}

// Failed builds a failed Result from a domain error kind.
func Failed(kind apperr.Kind, msg string) Result {
	return Result{Message: msg, Kind: kind}
}

// ResultOf converts an engine return into a Result.
func ResultOf(msg string, err error) Result {
	if err == nil {
		return Succeeded(msg)
	}
	return Result{Message: err.Error(), Kind: apperr.KindOf(err)}
}
