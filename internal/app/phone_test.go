package app

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name              string
		input             string
		wantInternational string
		wantLocal         string
	}{
		{
			name:              "local form",
			input:             "0712345678",
			wantInternational: "254712345678",
			wantLocal:         "0712345678",
		},
		{
			name:              "plus prefixed international form",
			input:             "+254712345678",
			wantInternational: "254712345678",
			wantLocal:         "0712345678",
		},
		{
			name:              "bare subscriber number",
			input:             "712345678",
			wantInternational: "254712345678",
			wantLocal:         "0712345678",
		},
		{
			name:              "international form without plus",
			input:             "254712345678",
			wantInternational: "254712345678",
			wantLocal:         "0712345678",
		},
		{
			name:              "whitespace and spacing stripped",
			input:             " 0712 345 678 ",
			wantInternational: "254712345678",
			wantLocal:         "0712345678",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got.International != tt.wantInternational {
				t.Fatalf("NormalizePhone(%q).International = %q, want %q", tt.input, got.International, tt.wantInternational)
			}
			if got.Local != tt.wantLocal {
				t.Fatalf("NormalizePhone(%q).Local = %q, want %q", tt.input, got.Local, tt.wantLocal)
			}
		})
	}
}
