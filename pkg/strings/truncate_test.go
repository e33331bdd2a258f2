package strings

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "short command unchanged",
			input:    "python api.py",
			maxLen:   DefaultCommandMaxLen,
			expected: "python api.py",
		},
		{
			name:     "exact fit unchanged",
			input:    "node w.js",
			maxLen:   9,
			expected: "node w.js",
		},
		{
			name:     "long command cut with ellipsis",
			input:    "pyinstaller --onefile --name api --distpath dist/services/api src/api.py",
			maxLen:   20,
			expected: "pyinstaller --one...",
		},
		{
			name:     "multi-line command collapses to one cell line",
			input:    "npm run build \\\n  --workspace api",
			maxLen:   DefaultCommandMaxLen,
			expected: "npm run build \\ --workspace api",
		},
		{
			name:     "tabs and repeated spaces collapse",
			input:    "go\tbuild   -o   bin/api",
			maxLen:   DefaultCommandMaxLen,
			expected: "go build -o bin/api",
		},
		{
			name:     "multi-byte input cut on rune boundary",
			input:    "日本語テスト文字列",
			maxLen:   6,
			expected: "日本語...",
		},
		{
			name:     "tiny maxLen is clamped",
			input:    "python api.py",
			maxLen:   1,
			expected: "p...",
		},
		{
			name:     "empty",
			input:    "",
			maxLen:   10,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestTruncate_NeverExceedsMaxRunes(t *testing.T) {
	input := strings.Repeat("électron ", 20)
	for maxLen := MinTruncateLen; maxLen <= 40; maxLen++ {
		got := Truncate(input, maxLen)
		if n := utf8.RuneCountInString(got); n > maxLen {
			t.Errorf("Truncate(_, %d) has %d runes", maxLen, n)
		}
		if !utf8.ValidString(got) {
			t.Errorf("Truncate(_, %d) produced invalid UTF-8: %q", maxLen, got)
		}
	}
}

func TestTail(t *testing.T) {
	output := "Collecting deps\nBuilding api\n\nerror: missing module 'flask'\nbuild failed\n"

	tests := []struct {
		name     string
		n        int
		expected string
	}{
		{name: "last lines of a failed build", n: 2, expected: "error: missing module 'flask'\nbuild failed"},
		{name: "blank lines are skipped", n: 3, expected: "Building api\nerror: missing module 'flask'\nbuild failed"},
		{name: "n larger than output", n: 10, expected: "Collecting deps\nBuilding api\nerror: missing module 'flask'\nbuild failed"},
		{name: "zero lines", n: 0, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tail(output, tt.n); got != tt.expected {
				t.Errorf("Tail(_, %d) = %q, want %q", tt.n, got, tt.expected)
			}
		})
	}
}

func TestTail_EmptyOutput(t *testing.T) {
	if got := Tail("", 5); got != "" {
		t.Errorf("Tail(\"\", 5) = %q, want empty", got)
	}
	if got := Tail("\n\n", 5); got != "" {
		t.Errorf("Tail of blank output = %q, want empty", got)
	}
}
