package xerr

import "testing"

func TestSuccessIsZero(t *testing.T) {
	if !Success.IsSuccess() {
		t.Fatal("Success should report IsSuccess")
	}
	var c Code
	if !c.IsSuccess() {
		t.Fatal("zero Code should report IsSuccess")
	}
}

func TestToTextKnownAndUnknown(t *testing.T) {
	Register(1, CatPoint, 1, 0, 0, "LOOKUP")

	code := New(CatPoint, 1, 0, 2)
	text := code.ToText()
	if text != "POINT:LOOKUP:NONE:<unknown>" {
		t.Fatalf("unexpected ToText: %s", text)
	}
}

func TestLeafNamesDisambiguatedBySubsystem(t *testing.T) {
	Register(1, CatCard, 5, 0, 0, "ALPHA")
	Register(1, CatCard, 6, 0, 0, "BETA")
	Register(3, CatCard, 5, 0, 1, "ALPHA_LEAF")
	Register(3, CatCard, 6, 0, 1, "BETA_LEAF")

	a := New(CatCard, 5, 0, 1)
	b := New(CatCard, 6, 0, 1)
	if a.ToText() == b.ToText() {
		t.Fatalf("expected distinct text for distinct subsystems, got %s for both", a.ToText())
	}
	if a.ToText() != "CARD:ALPHA:NONE:ALPHA_LEAF" {
		t.Fatalf("unexpected: %s", a.ToText())
	}
	if b.ToText() != "CARD:BETA:NONE:BETA_LEAF" {
		t.Fatalf("unexpected: %s", b.ToText())
	}
}

func TestErrorWrap(t *testing.T) {
	Register(1, CatCard, 9, 0, 0, "SCAN")
	code := New(CatCard, 9, 0, 0)
	err := Wrap(code, "slot 3 timed out")
	if err.Error() != code.ToText()+": slot 3 timed out" {
		t.Fatalf("unexpected Error() output: %s", err.Error())
	}
	if !IsSuccess(nil) {
		t.Fatal("nil error should be success")
	}
	if IsSuccess(err) {
		t.Fatal("non-zero coded error should not be success")
	}
}
