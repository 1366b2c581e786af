package foundation

import (
	"errors"
	"testing"

	classified "git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
)

func TestResult(t *testing.T) {
	t.Run("Ok result", func(t *testing.T) {
		result := Ok[string, error]("success")
		if !result.IsOk() || result.IsErr() {
			t.Fatal("expected result to be Ok")
		}
		if result.Unwrap() != "success" {
			t.Errorf("expected unwrap to return 'success', got %q", result.Unwrap())
		}
	})

	t.Run("Err result", func(t *testing.T) {
		testErr := errors.New("test error")
		result := Err[string, error](testErr)
		if result.IsOk() {
			t.Fatal("expected result to be Err")
		}
		if !errors.Is(result.UnwrapErr(), testErr) {
			t.Error("expected unwrap error to match test error")
		}
		if result.UnwrapOr("fallback") != "fallback" {
			t.Error("expected fallback value")
		}
	})

	t.Run("Tuple round trip", func(t *testing.T) {
		value, err := FromTuple[int, error](7, nil).ToTuple()
		if err != nil || value != 7 {
			t.Errorf("expected (7, nil), got (%d, %v)", value, err)
		}
		if FromTuple[int, error](0, errors.New("boom")).IsOk() {
			t.Error("expected error tuple to produce Err")
		}
	})
}

func TestOption(t *testing.T) {
	some := Some("ISSUE-1")
	if !some.IsSome() || some.Unwrap() != "ISSUE-1" {
		t.Errorf("unexpected Some: %v", some)
	}

	none := None[string]()
	if !none.IsNone() {
		t.Error("expected None")
	}
	if none.UnwrapOr("x") != "x" {
		t.Error("expected fallback from None")
	}
	if _, ok := none.Get(); ok {
		t.Error("Get on None must report absent")
	}

	var ptr *string
	if FromPointer(ptr).IsSome() {
		t.Error("nil pointer must be None")
	}
	if none.String() != "None" || some.String() != "Some(ISSUE-1)" {
		t.Errorf("unexpected String(): %s / %s", none, some)
	}
}

func TestValidation(t *testing.T) {
	result := Required("platform", "  ").Combine(Required("message_id", "m1"))
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if len(result.Errors) != 1 || result.Errors[0].Field != "platform" {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}

	err := result.ToError()
	if !classified.HasCategory(err, classified.CategoryValidation) {
		t.Errorf("expected validation category, got %v", err)
	}
	if Valid().ToError() != nil {
		t.Error("valid result must not produce an error")
	}
}

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]int{"New": 1, "analyzed": 2}, 0)
	if n.Normalize("  NEW ") != 1 {
		t.Error("expected case-insensitive match")
	}
	if n.Normalize("bogus") != 0 {
		t.Error("expected default for unknown value")
	}
	if _, err := n.NormalizeWithError("bogus"); err == nil {
		t.Error("expected error for unknown value")
	}
}
