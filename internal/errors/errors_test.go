package errors

import (
	"fmt"
	"testing"
)

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.GetComponent() != "unknown" {
		t.Errorf("Expected component 'unknown', got '%s'", ee.GetComponent())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic', got '%s'", ee.Category)
	}
}

func TestSentinelUnwrapping(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("device gone")
	ee := New(sentinel).
		Component("capture").
		Category(CategoryAudio).
		Context("device", "hw:0,0").
		Build()

	if !Is(ee, sentinel) {
		t.Error("Expected enhanced error to match its sentinel via Is")
	}

	if ee.GetComponent() != "capture" {
		t.Errorf("Expected component 'capture', got '%s'", ee.GetComponent())
	}

	ctx := ee.GetContext()
	if ctx["device"] != "hw:0,0" {
		t.Errorf("Expected context device 'hw:0,0', got '%v'", ctx["device"])
	}
}

func TestContextCopyIsolation(t *testing.T) {
	t.Parallel()

	ee := Newf("boom").Context("seq", 3).Build()
	ctx := ee.GetContext()
	ctx["seq"] = 99

	if ee.Context["seq"] != 3 {
		t.Error("GetContext must return a copy, not the underlying map")
	}
}
