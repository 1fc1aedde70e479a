package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid E.164 format",
			input: "+84912345678",
			want:  "+84912345678",
		},
		{
			name:  "with spaces",
			input: "+84 91 234 5678",
			want:  "+84912345678",
		},
		{
			name:  "with dashes",
			input: "+84-91-234-5678",
			want:  "+84912345678",
		},
		{
			name:  "with parentheses",
			input: "+1 (212) 555-1234",
			want:  "+12125551234",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +84912345678  ",
			want:  "+84912345678",
		},
		{
			name:  "national format resolves to default region",
			input: "0912345678",
			want:  "+84912345678",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "mixed special chars",
			input: " +84-91.234 5678 ",
			want:  "+84912345678",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
