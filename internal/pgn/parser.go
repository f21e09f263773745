package pgn

import "errors"

// ErrNoGame is returned when the input holds no tags, moves or comments.
var ErrNoGame = errors.New("pgn: no game found")

// Node is one move of the raw move tree. Children[0] continues the line the
// node belongs to; later children are the variations given for that move.
type Node struct {
	// SAN is the move text as written, stripped of suffix annotations.
	SAN string

	// Comments are the comments that follow the move.
	Comments []string

	// StartingComments precede the first move of a variation.
	StartingComments []string

	// NAGs holds numeric annotation glyphs ("$1") in order of appearance.
	NAGs []string

	Children []*Node
}

// Game is a single parsed game.
type Game struct {
	Tags map[string]string

	// Root stands for the starting position. Root.Comments holds comments
	// written before the first move.
	Root *Node

	Result string
}

// Parse reads the first game in text.
func Parse(text string) (*Game, error) {
	p := &parser{toks: Tokens(text)}
	return p.game()
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token {
	if p.pos >= len(p.toks) {
		return Token{Type: EOFToken}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() {
	if p.pos < len(p.toks) {
		p.pos++
	}
}

func (p *parser) game() (*Game, error) {
	g := &Game{
		Tags: make(map[string]string),
		Root: &Node{},
	}

	// Anything before the first tag or move (stray results, brackets) is noise.
	for {
		switch p.peek().Type {
		case RAVEndToken, ResultToken, NAGToken:
			p.advance()
			continue
		}
		break
	}

	for p.peek().Type == TagToken {
		tok := p.peek()
		g.Tags[tok.Text] = tok.Value
		p.advance()
	}

	g.Result = p.line(g.Root, true)

	if len(g.Tags) == 0 && len(g.Root.Children) == 0 && len(g.Root.Comments) == 0 {
		return nil, ErrNoGame
	}
	if g.Result == "" {
		g.Result = g.Tags["Result"]
	}
	return g, nil
}

// line reads moves into parent until the line ends. For the top-level line it
// returns the game result, if one terminated it.
func (p *parser) line(parent *Node, top bool) string {
	cur := parent
	var last, lastParent *Node
	var pending []string

	for {
		tok := p.peek()
		switch tok.Type {
		case EOFToken, TagToken:
			return ""

		case ResultToken:
			p.advance()
			if top {
				return tok.Text
			}

		case RAVEndToken:
			if !top {
				return ""
			}
			p.advance()

		case MoveNumberToken:
			p.advance()

		case MoveToken:
			p.advance()
			n := &Node{SAN: tok.Text}
			if last == nil && !top {
				n.StartingComments = pending
				pending = nil
			}
			cur.Children = append(cur.Children, n)
			lastParent, last, cur = cur, n, n

		case CommentToken:
			p.advance()
			switch {
			case tok.Text == "":
			case last != nil:
				last.Comments = append(last.Comments, tok.Text)
			case top:
				parent.Comments = append(parent.Comments, tok.Text)
			default:
				pending = append(pending, tok.Text)
			}

		case NAGToken:
			p.advance()
			if last != nil {
				last.NAGs = append(last.NAGs, tok.Text)
			}

		case RAVStartToken:
			p.advance()
			if last == nil {
				// A variation with no move to be an alternative to is dropped.
				p.line(&Node{}, false)
			} else {
				p.line(lastParent, false)
			}
			if p.peek().Type == RAVEndToken {
				p.advance()
			}
		}
	}
}
