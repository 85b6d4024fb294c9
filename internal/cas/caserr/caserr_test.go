package caserr

import (
	"errors"
	"testing"
)

func TestIsMatchesCode(t *testing.T) {
	err := InvalidKeyLengthErr(16)
	if !Is(err, InvalidKeyLength) {
		t.Fatal("Is() = false, want true for matching code")
	}
	if Is(err, MissingKey) {
		t.Fatal("Is() = true, want false for mismatched code")
	}
}

func TestIsFalseForPlainError(t *testing.T) {
	if Is(errors.New("boom"), GitError) {
		t.Fatal("Is() = true for a non-caserr error")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("exit status 128")
	err := GitErr("cat-file", cause)

	if !errors.Is(err, cause) {
		t.Fatal("errors.Is() did not find the wrapped cause")
	}
	if err.Code != GitError {
		t.Fatalf("Code = %s, want %s", err.Code, GitError)
	}
}

func TestIntegrityErrMeta(t *testing.T) {
	err := IntegrityErr(3, "aaa", "bbb")
	if err.Meta["chunkIndex"] != 3 || err.Meta["expected"] != "aaa" || err.Meta["actual"] != "bbb" {
		t.Fatalf("unexpected meta: %+v", err.Meta)
	}
}

func TestErrorStringIncludesMessage(t *testing.T) {
	err := MissingKeyErr()
	want := string(MissingKey) + ": " + err.Message
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
