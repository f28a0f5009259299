package httputil

import "testing"

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text",
			input: "Pool maintenance",
			want:  "Pool maintenance",
		},
		{
			name:  "trim spaces",
			input: "  water leak  ",
			want:  "water leak",
		},
		{
			name:  "control characters removed",
			input: "closed\x00 for\x1b inspection",
			want:  "closed for inspection",
		},
		{
			name:  "newline kept",
			input: "closed\nback monday",
			want:  "closed\nback monday",
		},
		{
			name:  "unicode kept",
			input: "Sauna geschlossen – Wartung",
			want:  "Sauna geschlossen – Wartung",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeText(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateTextLength(t *testing.T) {
	if err := ValidateTextLength("reason", "ééé", 3); err != nil {
		t.Errorf("three runes should fit a limit of 3: %v", err)
	}
	if err := ValidateTextLength("reason", "abcd", 3); err == nil {
		t.Error("expected error for text over the limit")
	}
	if err := ValidateTextLength("reason", "anything", 0); err != nil {
		t.Errorf("zero max means unlimited: %v", err)
	}
}
