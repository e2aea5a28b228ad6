package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := Newf(NotFound, "/x", "%s: no such file", "/x")
	if KindOf(err) != NotFound {
		t.Errorf("KindOf = %v, want NotFound", KindOf(err))
	}
	wrapped := fmt.Errorf("outer: %w", err)
	if KindOf(wrapped) != NotFound {
		t.Errorf("KindOf through wrap = %v, want NotFound", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != Io {
		t.Errorf("KindOf of foreign error = %v, want Io", KindOf(errors.New("plain")))
	}
}

func TestStatusMapping(t *testing.T) {
	if StatusOf(nil) != 0 {
		t.Errorf("StatusOf(nil) = %d", StatusOf(nil))
	}
	kinds := []Kind{Parse, NotFound, Duplicate, Io, Unsupported, Network, Auth, Resource, Protocol, UserAborted}
	seen := map[int]Kind{}
	for _, k := range kinds {
		s := k.Status()
		if s == 0 {
			t.Errorf("%v.Status() = 0, reserved for success", k)
		}
		if prev, dup := seen[s]; dup {
			t.Errorf("%v and %v share status %d", prev, k, s)
		}
		seen[s] = k
	}
}

func TestErrorIsByKind(t *testing.T) {
	err := New(Auth, "psk mismatch")
	if !errors.Is(err, &Error{Kind: Auth}) {
		t.Error("errors.Is by kind failed")
	}
	if errors.Is(err, &Error{Kind: Network}) {
		t.Error("errors.Is matched wrong kind")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(Io, "write failed", cause)
	if !errors.Is(err, cause) {
		t.Error("cause not reachable via errors.Is")
	}
	if got := err.Error(); got != "write failed: disk on fire" {
		t.Errorf("Error() = %q", got)
	}
}

func TestInputPreserved(t *testing.T) {
	err := Newf(Parse, "#zzz", "color %q: bad hex digit", "#zzz")
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatal("errors.As failed")
	}
	if fe.Input != "#zzz" {
		t.Errorf("Input = %q, want offending input", fe.Input)
	}
}
