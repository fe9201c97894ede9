package validation

import "testing"

func strPtr(s string) *string { return &s }

func TestNotEmpty(t *testing.T) {
	if NotEmpty[int](nil) {
		t.Error("NotEmpty(nil) = true, want false")
	}
	zero := 0
	if !NotEmpty(&zero) {
		t.Error("NotEmpty(&0) = false, want true")
	}
	empty := ""
	if !NotEmpty(&empty) {
		t.Error("NotEmpty(&\"\") = false, want true")
	}
}

func TestCompact(t *testing.T) {
	got := Compact([]*string{strPtr("a"), nil, strPtr(""), nil, strPtr("b")})
	want := []string{"a", "", "b"}
	if len(got) != len(want) {
		t.Fatalf("Compact() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Compact()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := Compact[int](nil); got == nil || len(got) != 0 {
		t.Errorf("Compact(nil) = %v, want empty non-nil slice", got)
	}
}

func TestAsOptionalField(t *testing.T) {
	tests := []struct {
		in   string
		want *string
	}{
		{"", nil},
		{"   ", nil},
		{"\t\n", nil},
		{"table 4", strPtr("table 4")},
		{"  Karim ", strPtr("Karim")},
	}
	for _, tt := range tests {
		got := AsOptionalField(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("AsOptionalField(%q) = %q, want nil", tt.in, *got)
		case tt.want != nil && got == nil:
			t.Errorf("AsOptionalField(%q) = nil, want %q", tt.in, *tt.want)
		case tt.want != nil && *got != *tt.want:
			t.Errorf("AsOptionalField(%q) = %q, want %q", tt.in, *got, *tt.want)
		}
	}
}
