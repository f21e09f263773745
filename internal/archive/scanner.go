package archive

import (
	"bufio"
	"io"
	"strings"
)

// maxLine bounds a single PGN line.
const maxLine = 4 * 1024 * 1024

// Scanner splits a multi-game PGN stream into games. A game ends at its
// result token or where the tag section of the next game begins. Escape
// lines ("%...") are dropped.
type Scanner struct {
	s     *bufio.Scanner
	game  strings.Builder
	next  string // first line of the following game, already consumed
	text  string
	count int
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLine)
	return &Scanner{s: s}
}

// Scan advances to the next game. It returns false at the end of the input
// or on a read error.
func (sc *Scanner) Scan() bool {
	sc.game.Reset()
	sc.text = ""

	var (
		movetext bool // movetext seen in the current game
		depth    int  // brace comment nesting carried across lines
	)
	if sc.next != "" {
		sc.game.WriteString(sc.next)
		sc.game.WriteByte('\n')
		sc.next = ""
	}

	for sc.s.Scan() {
		line := sc.s.Text()
		trimmed := strings.TrimSpace(line)

		if depth == 0 {
			if strings.HasPrefix(line, "%") {
				continue
			}
			if strings.HasPrefix(trimmed, "[") && movetext {
				sc.next = line
				break
			}
		}

		if trimmed != "" || sc.game.Len() > 0 {
			sc.game.WriteString(line)
			sc.game.WriteByte('\n')
		}
		if trimmed == "" || (depth == 0 && strings.HasPrefix(trimmed, "[")) {
			continue
		}

		movetext = true
		var ended bool
		depth, ended = scanMovetext(trimmed, depth)
		if ended {
			break
		}
	}

	sc.text = strings.TrimSpace(sc.game.String())
	if sc.text == "" {
		return false
	}
	sc.count++
	return true
}

// Game returns the text of the game found by the last Scan.
func (sc *Scanner) Game() string {
	return sc.text
}

// Count returns the number of games scanned so far.
func (sc *Scanner) Count() int {
	return sc.count
}

// Err returns the first read error.
func (sc *Scanner) Err() error {
	return sc.s.Err()
}

// scanMovetext tracks brace comments over one line and reports whether the
// line ends with a game termination marker outside any comment.
func scanMovetext(line string, depth int) (int, bool) {
	var last string
	for _, field := range strings.Fields(line) {
		for _, r := range field {
			switch r {
			case '{':
				depth++
			case '}':
				if depth > 0 {
					depth--
				}
			}
		}
		last = field
	}
	if depth > 0 {
		return depth, false
	}
	switch last {
	case "1-0", "0-1", "1/2-1/2", "*":
		return depth, true
	}
	return depth, false
}
