package archive

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func scanAll(t *testing.T, input string) []string {
	t.Helper()
	sc := NewScanner(strings.NewReader(input))
	var games []string
	for sc.Scan() {
		games = append(games, sc.Game())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if sc.Count() != len(games) {
		t.Errorf("Count() = %d, want %d", sc.Count(), len(games))
	}
	return games
}

func TestScanner(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty",
			input: "\n\n",
			want:  nil,
		},
		{
			name: "tagged games",
			input: `[Event "A"]
[White "X"]

1. e4 e5 1-0

[Event "B"]

1. d4 d5 2. c4 0-1
`,
			want: []string{
				"[Event \"A\"]\n[White \"X\"]\n\n1. e4 e5 1-0",
				"[Event \"B\"]\n\n1. d4 d5 2. c4 0-1",
			},
		},
		{
			name:  "untagged games end at result",
			input: "1. e4 *\n1. c4 1/2-1/2\n",
			want:  []string{"1. e4 *", "1. c4 1/2-1/2"},
		},
		{
			name:  "missing result",
			input: "[Event \"A\"]\n1. e4 e5\n[Event \"B\"]\n1. d4\n",
			want:  []string{"[Event \"A\"]\n1. e4 e5", "[Event \"B\"]\n1. d4"},
		},
		{
			name:  "result inside comment",
			input: "1. e4 {wins\n1-0} e5 *\n",
			want:  []string{"1. e4 {wins\n1-0} e5 *"},
		},
		{
			name:  "escape lines dropped",
			input: "% exported\n[Event \"A\"]\n1. e4 *\n",
			want:  []string{"[Event \"A\"]\n1. e4 *"},
		},
		{
			name:  "multi-line movetext",
			input: "[Event \"A\"]\n\n1. e4 e5\n2. Nf3 Nc6\n3. Bb5 *\n",
			want:  []string{"[Event \"A\"]\n\n1. e4 e5\n2. Nf3 Nc6\n3. Bb5 *"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, scanAll(t, tt.input)); diff != "" {
				t.Errorf("games mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
