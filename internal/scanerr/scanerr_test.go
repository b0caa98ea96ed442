package scanerr

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := New(IOFailure, "a.cs", fs.ErrPermission)
	wrapped := fmt.Errorf("scanning: %w", base)

	if got := KindOf(wrapped); got != IOFailure {
		t.Errorf("KindOf = %v, want %v", got, IOFailure)
	}
	if !IsIOFailure(wrapped) {
		t.Error("IsIOFailure should be true")
	}
	if IsNotFound(wrapped) {
		t.Error("IsNotFound should be false")
	}
	if !errors.Is(wrapped, fs.ErrPermission) {
		t.Error("underlying error should be reachable with errors.Is")
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != 0 {
		t.Errorf("KindOf(plain) = %v, want 0", got)
	}
	if got := KindOf(nil); got != 0 {
		t.Errorf("KindOf(nil) = %v, want 0", got)
	}
}

func TestError_Message(t *testing.T) {
	err := New(MalformedDescriptor, "App.csproj", errors.New("unexpected EOF"))
	msg := err.Error()
	for _, want := range []string{"App.csproj", "malformed descriptor", "unexpected EOF"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q should contain %q", msg, want)
		}
	}
	if !IsMalformed(err) {
		t.Error("IsMalformed should be true")
	}
}
