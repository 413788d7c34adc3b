package submitter

import (
	"testing"

	"github.com/cowbatch/settlement/internal/domain"
)

func TestEscalatesRequiresStrictlyAboveFactor(t *testing.T) {
	old := domain.FromUint64(100)

	if escalates(domain.FromUint64(112), old, 1.125) {
		t.Fatal("1.12x should not satisfy a strict 1.125x escalation requirement")
	}
	if !escalates(domain.FromUint64(113), old, 1.125) {
		t.Fatal("1.13x should satisfy a strict 1.125x escalation requirement")
	}
}
