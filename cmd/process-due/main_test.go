package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/example/cleanops-scheduler/internal/application"
)

func TestPrintTokenHash(t *testing.T) {
	t.Run("prints a verifiable hash", func(t *testing.T) {
		var out, errOut bytes.Buffer
		if code := printTokenHash(strings.NewReader("operator-token\n"), &out, &errOut); code != exitOK {
			t.Fatalf("expected exit %d, got %d (%s)", exitOK, code, errOut.String())
		}

		verifier, err := application.NewTokenVerifier(strings.TrimSpace(out.String()))
		if err != nil {
			t.Fatalf("printed hash did not parse: %v", err)
		}
		if err := verifier.Verify("operator-token"); err != nil {
			t.Fatalf("expected token to verify, got %v", err)
		}
	})

	t.Run("rejects an empty token", func(t *testing.T) {
		var out, errOut bytes.Buffer
		if code := printTokenHash(strings.NewReader("\n"), &out, &errOut); code != exitFailure {
			t.Fatalf("expected exit %d, got %d", exitFailure, code)
		}
		if out.Len() != 0 {
			t.Fatalf("expected no hash output, got %q", out.String())
		}
	})
}
