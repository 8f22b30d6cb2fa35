package service

import (
	"reflect"
	"testing"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		input []Interval
		want  []Interval
	}{
		{
			name:  "empty",
			input: nil,
			want:  nil,
		},
		{
			name:  "single interval",
			input: []Interval{{540, 720}},
			want:  []Interval{{540, 720}},
		},
		{
			name:  "overlapping intervals",
			input: []Interval{{540, 660}, {600, 720}},
			want:  []Interval{{540, 720}},
		},
		{
			name:  "adjacent intervals merge",
			input: []Interval{{540, 600}, {600, 660}},
			want:  []Interval{{540, 660}},
		},
		{
			name:  "disjoint intervals stay separate",
			input: []Interval{{540, 600}, {700, 760}},
			want:  []Interval{{540, 600}, {700, 760}},
		},
		{
			name:  "unsorted input",
			input: []Interval{{700, 760}, {540, 600}, {580, 620}},
			want:  []Interval{{540, 620}, {700, 760}},
		},
		{
			name:  "contained interval absorbed",
			input: []Interval{{540, 720}, {600, 660}},
			want:  []Interval{{540, 720}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name       string
		input      []Interval
		start, end int
		want       []Interval
	}{
		{
			name:  "window splits containing interval",
			input: []Interval{{540, 720}},
			start: 600, end: 660,
			want: []Interval{{540, 600}, {660, 720}},
		},
		{
			name:  "no overlap passes through",
			input: []Interval{{540, 600}},
			start: 700, end: 760,
			want: []Interval{{540, 600}},
		},
		{
			name:  "window covers whole interval",
			input: []Interval{{540, 600}},
			start: 500, end: 700,
			want: nil,
		},
		{
			name:  "window trims left edge",
			input: []Interval{{540, 720}},
			start: 500, end: 600,
			want: []Interval{{600, 720}},
		},
		{
			name:  "window trims right edge",
			input: []Interval{{540, 720}},
			start: 660, end: 800,
			want: []Interval{{540, 660}},
		},
		{
			name:  "degenerate window is a no-op",
			input: []Interval{{540, 720}},
			start: 600, end: 600,
			want: []Interval{{540, 720}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subtract(tt.input, tt.start, tt.end)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Subtract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9am", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error, got %d", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(540); got != "09:00" {
		t.Errorf("FormatClock(540) = %q", got)
	}
	if got := FormatClock(1439); got != "23:59" {
		t.Errorf("FormatClock(1439) = %q", got)
	}
}

func TestIntervalContains(t *testing.T) {
	iv := Interval{540, 720}

	if !iv.Contains(540, 600) {
		t.Error("window at left edge should fit")
	}
	if !iv.Contains(660, 720) {
		t.Error("window at right edge should fit")
	}
	if iv.Contains(700, 760) {
		t.Error("window extending past the end should not fit")
	}
	if iv.Contains(500, 560) {
		t.Error("window starting before should not fit")
	}
}
