package core

import (
	"errors"
	"testing"
)

func TestDomainErrorPredicates(t *testing.T) {
	notFound := NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key missing")
	unavailable := NewDomainError(ModuleEngine, ErrorCodeUnavailable, "engine: backend down")

	if !IsNotFound(notFound) {
		t.Error("IsNotFound rejects a NOT_FOUND domain error")
	}
	if IsNotFound(unavailable) {
		t.Error("IsNotFound accepts an UNAVAILABLE domain error")
	}
	if !IsUnavailable(unavailable) {
		t.Error("IsUnavailable rejects an UNAVAILABLE domain error")
	}
	if IsUnavailable(notFound) {
		t.Error("IsUnavailable accepts a NOT_FOUND domain error")
	}
}

func TestPredicatesIgnoreForeignErrors(t *testing.T) {
	plain := errors.New("not a domain error")
	if IsNotFound(plain) || IsUnavailable(plain) {
		t.Error("predicates match a non-domain error")
	}
	if IsNotFound(nil) || IsUnavailable(nil) {
		t.Error("predicates match nil")
	}
	if GetDomainError(plain) != nil {
		t.Error("GetDomainError returns non-nil for a foreign error")
	}
}
