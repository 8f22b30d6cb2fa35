package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Morning Strength  ",
			want:  "Morning Strength",
		},
		{
			name:  "multiple spaces between words",
			input: "Morning    Strength",
			want:  "Morning Strength",
		},
		{
			name:  "tabs and newlines",
			input: "Morning\t\nStrength",
			want:  "Morning Strength",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Café Mobility & Core™ ",
			want:  "Café Mobility & Core™",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	if got := NormalizeLabel("  Early  MORNING "); got != "early morning" {
		t.Errorf("NormalizeLabel() = %q, want %q", got, "early morning")
	}
}

func TestSanitizeSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Jane Doe / PT", "jane_doe_pt"},
		{"  trainer--7  ", "trainer_7"},
		{"___", ""},
	}

	for _, tt := range tests {
		if got := SanitizeSlug(tt.input); got != tt.want {
			t.Errorf("SanitizeSlug(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+12125550123", "+12125550123"},
		{" +12125550123 ", "+12125550123"},
		{"212-555-0123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizePhone(tt.input); got != tt.want {
			t.Errorf("SanitizePhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
