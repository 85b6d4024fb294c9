// Package caserr defines the typed error taxonomy surfaced by the CAS engine
// and its ports. Every failure an external caller needs to branch on carries
// one of these codes; anything else is a programmer error or a wrapped
// collaborator failure.
package caserr

import (
	"errors"
	"fmt"
)

// Code identifies a CAS failure mode. Callers should compare against the
// exported constants, not the string value, which is only a diagnostic aid.
type Code string

const (
	InvalidKeyType   Code = "INVALID_KEY_TYPE"
	InvalidKeyLength Code = "INVALID_KEY_LENGTH"
	MissingKey       Code = "MISSING_KEY"
	IntegrityError   Code = "INTEGRITY_ERROR"
	StreamError      Code = "STREAM_ERROR"
	TreeParseError   Code = "TREE_PARSE_ERROR"
	ManifestNotFound Code = "MANIFEST_NOT_FOUND"
	GitError         Code = "GIT_ERROR"
)

// Error is the typed value propagated for every CAS-recognized failure mode.
// Meta carries machine-readable detail (chunk index, expected/actual digest,
// and so on) named in the engine's error taxonomy.
type Error struct {
	Code    Code
	Message string
	Meta    map[string]any
	Wrapped error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is reports whether err carries the given code, unwrapping as needed.
func Is(err error, code Code) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == code
}

func New(code Code, message string, meta map[string]any) *Error {
	return &Error{Code: code, Message: message, Meta: meta}
}

func Wrap(code Code, message string, wrapped error, meta map[string]any) *Error {
	return &Error{Code: code, Message: message, Meta: meta, Wrapped: wrapped}
}

func InvalidKeyTypeErr() *Error {
	return New(InvalidKeyType, "key material is not a byte container", nil)
}

func InvalidKeyLengthErr(actual int) *Error {
	return New(InvalidKeyLength, "key must be exactly 32 bytes", map[string]any{
		"expected": 32,
		"actual":   actual,
	})
}

func MissingKeyErr() *Error {
	return New(MissingKey, "manifest is encrypted but no key or passphrase was supplied", nil)
}

func IntegrityErr(chunkIndex int, expected, actual string) *Error {
	return New(IntegrityError, "chunk digest mismatch", map[string]any{
		"chunkIndex": chunkIndex,
		"expected":   expected,
		"actual":     actual,
	})
}

func StreamErr(chunksWritten int, cause error) *Error {
	return Wrap(StreamError, "source sequence failed mid-store", cause, map[string]any{
		"chunksWritten": chunksWritten,
	})
}

func TreeParseErr(line string) *Error {
	return New(TreeParseError, "tree entry line did not match \"<mode> <type> <oid>\\t<name>\"", map[string]any{
		"line": line,
	})
}

func ManifestNotFoundErr(treeOid, expectedName string) *Error {
	return New(ManifestNotFound, "tree lacks a manifest entry", map[string]any{
		"treeOid":      treeOid,
		"expectedName": expectedName,
	})
}

func GitErr(op string, cause error) *Error {
	return Wrap(GitError, fmt.Sprintf("underlying object database command failed: %s", op), cause, nil)
}
