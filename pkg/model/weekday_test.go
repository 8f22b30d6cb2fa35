package model

import "testing"

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		input   string
		want    Weekday
		wantErr bool
	}{
		{"Monday", Monday, false},
		{"monday", Monday, false},
		{"MON", Monday, false},
		{"sun", Sunday, false},
		{"0", Sunday, false},
		{"6", Saturday, false},
		{" wednesday ", Wednesday, false},
		{"7", 0, true},
		{"-1", 0, true},
		{"", 0, true},
		{"someday", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeekday(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseWeekday(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWeekday(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseWeekday(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWeekdayString(t *testing.T) {
	if got := Friday.String(); got != "Friday" {
		t.Errorf("Friday.String() = %q", got)
	}
	if Weekday(9).Valid() {
		t.Error("Weekday(9) should not be valid")
	}
}
