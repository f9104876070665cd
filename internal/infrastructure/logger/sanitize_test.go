package logger

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "path unchanged",
			input:    "/var/media/incoming/file.mp4",
			expected: "/var/media/incoming/file.mp4",
		},
		{
			name:     "filename with spaces unchanged",
			input:    "my holiday video.mkv",
			expected: "my holiday video.mkv",
		},
		{
			name:     "unicode preserved",
			input:    "café_видео_動画.mp4",
			expected: "café_видео_動画.mp4",
		},
		{
			name:     "newline escaped",
			input:    "file\nINFO: fake entry",
			expected: "file\\nINFO: fake entry",
		},
		{
			name:     "carriage return and tab escaped",
			input:    "a\r\tb",
			expected: "a\\r\\tb",
		},
		{
			name:     "ansi escape rendered as hex",
			input:    "x\x1b[31my",
			expected: "x\\x1b[31my",
		},
		{
			name:     "null byte rendered as hex",
			input:    "trunc\x00ated",
			expected: "trunc\\x00ated",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
