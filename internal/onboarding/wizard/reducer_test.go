package wizard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewStateClampsStep(t *testing.T) {
	cases := []struct {
		total, step, want int
	}{
		{3, 0, 0},
		{3, 2, 2},
		{3, 5, 2},
		{3, -1, 0},
		{0, 4, 0},
	}
	for _, tc := range cases {
		s := NewState(tc.total, tc.step, nil)
		if s.CurrentStep != tc.want {
			t.Fatalf("clamp(%d in %d steps): expected %d, got %d", tc.step, tc.total, tc.want, s.CurrentStep)
		}
	}
}

func TestReduceSetFieldMarksDirtyOnlyOnChange(t *testing.T) {
	s := NewState(3, 0, map[string]interface{}{"name": "Acme"})

	same := Reduce(s, SetField{Key: "name", Value: "Acme"})
	if same.IsDirty {
		t.Fatal("unchanged value must not mark dirty")
	}

	changed := Reduce(s, SetField{Key: "name", Value: "Globex"})
	if !changed.IsDirty {
		t.Fatal("changed value must mark dirty")
	}
	if changed.FormData["name"] != "Globex" {
		t.Fatalf("unexpected value: %v", changed.FormData["name"])
	}
	// 原状态不可变
	if s.FormData["name"] != "Acme" || s.IsDirty {
		t.Fatal("reduce must not mutate the previous state")
	}
}

func TestReduceSetFieldDeepValues(t *testing.T) {
	s := NewState(1, 0, map[string]interface{}{
		"certs": []interface{}{"iso9001"},
	})
	same := Reduce(s, SetField{Key: "certs", Value: []interface{}{"iso9001"}})
	if same.IsDirty {
		t.Fatal("deep-equal slice must short-circuit")
	}
	changed := Reduce(s, SetField{Key: "certs", Value: []interface{}{"iso9001", "rohs"}})
	if !changed.IsDirty {
		t.Fatal("different slice must mark dirty")
	}
}

func TestReduceTouchAndErrors(t *testing.T) {
	s := NewState(2, 0, nil)

	s2 := Reduce(s, TouchFields{Keys: []string{"a", "b"}})
	if !s2.Touched["a"] || !s2.Touched["b"] {
		t.Fatalf("expected touched a,b got %v", s2.Touched)
	}
	if len(s.Touched) != 0 {
		t.Fatal("original touched set mutated")
	}

	s3 := Reduce(s2, SetErrors{Errors: map[string]string{"a": "必填"}})
	if s3.Errors["a"] != "必填" {
		t.Fatalf("expected error set, got %v", s3.Errors)
	}

	s4 := Reduce(s3, SetFieldError{Key: "a"})
	if _, ok := s4.Errors["a"]; ok {
		t.Fatal("empty message should clear the field error")
	}
	if s3.Errors["a"] != "必填" {
		t.Fatal("clearing must not mutate previous state")
	}
}

func TestReduceStepAndFlags(t *testing.T) {
	s := NewState(3, 0, nil)

	s = Reduce(s, SetStep{Index: 9})
	if s.CurrentStep != 2 {
		t.Fatalf("step must clamp, got %d", s.CurrentStep)
	}

	s = Reduce(s, CompleteStep{Index: 2})
	if !s.CompletedSteps[2] {
		t.Fatal("expected step 2 completed")
	}

	s = Reduce(s, SetSubmitting{Submitting: true})
	if !s.IsSubmitting {
		t.Fatal("expected submitting flag")
	}

	s = Reduce(s, SetField{Key: "x", Value: "y"})
	s = Reduce(s, MarkClean{})
	if s.IsDirty {
		t.Fatal("expected clean after MarkClean")
	}
}

func TestReduceReset(t *testing.T) {
	s := NewState(3, 1, nil)
	s = Reduce(s, SetField{Key: "x", Value: "y"})
	s = Reduce(s, TouchFields{Keys: []string{"x"}})
	s = Reduce(s, SetErrors{Errors: map[string]string{"x": "错误"}})

	fresh := Reduce(s, Reset{
		FormData:    map[string]interface{}{"supplier_name": "Acme"},
		CurrentStep: 0,
		TotalSteps:  4,
	})

	want := NewState(4, 0, map[string]interface{}{"supplier_name": "Acme"})
	if diff := cmp.Diff(want, fresh); diff != "" {
		t.Fatalf("reset state mismatch (-want +got):\n%s", diff)
	}
}
