package macbase

import (
	"strings"

	"github.com/notnil/chess"

	"github.com/macbase/macbase/internal/pgn"
	"github.com/macbase/macbase/internal/position"
)

// MoveNode is one position of a game's move tree.
type MoveNode struct {
	// SAN is the move that reached this node, rendered relative to the
	// parent position. Empty for the root.
	SAN string

	// FEN is the position descriptor after the move.
	FEN string

	// Comment is attached to the position after the move.
	Comment string

	// Children[0] continues the mainline; the rest are side variations.
	Children []*MoveNode

	// Truncated is set when the first continuation written for this node was
	// illegal and dropped. Children then holds side variations only.
	Truncated bool
}

// VariationMove is a non-mainline move recorded under its parent position.
type VariationMove struct {
	SAN       string `json:"san"`
	FEN       string `json:"fen"`
	ParentFEN string `json:"parentFen"`
}

// Tree holds the views derived from a game's move tree.
type Tree struct {
	// Tags are the game's header tag pairs.
	Tags map[string]string `json:"tags"`

	// Moves is the mainline in SAN; FENs holds the descriptor after each move.
	Moves []string `json:"moves"`
	FENs  []string `json:"fens"`

	// Comments maps a descriptor to the comment on that position.
	Comments map[string]string `json:"comments"`

	// Variations maps a parent descriptor to its side moves in encounter order.
	Variations map[string][]VariationMove `json:"variations"`
}

// Empty reports whether the tree has no moves, comments or variations.
func (t *Tree) Empty() bool {
	return len(t.Moves) == 0 && len(t.Comments) == 0 && len(t.Variations) == 0
}

func emptyTree() *Tree {
	return &Tree{
		Tags:       map[string]string{},
		Moves:      []string{},
		FENs:       []string{},
		Comments:   map[string]string{},
		Variations: map[string][]VariationMove{},
	}
}

// ParsePGN parses the first game in text and flattens its move tree.
//
// ParsePGN never fails: input that holds no game yields an empty Tree. A move
// that is illegal in its position ends the branch it appears in; sibling
// branches are unaffected. When two branches transpose into the same
// position, the later comment wins.
func ParsePGN(text string) *Tree {
	game, err := pgn.Parse(text)
	if err != nil {
		return emptyTree()
	}

	root, ok := BuildTree(game)
	if !ok {
		return emptyTree()
	}

	t := emptyTree()
	for k, v := range game.Tags {
		t.Tags[k] = v
	}
	if root.Comment != "" {
		t.Comments[root.FEN] = root.Comment
	}
	t.flatten(root, true)
	return t
}

// flatten walks node's children depth first. Only the first child of a node
// on the game's mainline extends the mainline; every other child is recorded
// as a variation of node's position, and so is everything below it.
func (t *Tree) flatten(node *MoveNode, onMainline bool) {
	for i, child := range node.Children {
		if onMainline && i == 0 && !node.Truncated {
			t.Moves = append(t.Moves, child.SAN)
			t.FENs = append(t.FENs, child.FEN)
			if child.Comment != "" {
				t.Comments[child.FEN] = child.Comment
			}
			t.flatten(child, true)
			continue
		}

		t.Variations[node.FEN] = append(t.Variations[node.FEN], VariationMove{
			SAN:       child.SAN,
			FEN:       child.FEN,
			ParentFEN: node.FEN,
		})
		if child.Comment != "" {
			t.Comments[child.FEN] = child.Comment
		}
		t.flatten(child, false)
	}
}

// BuildTree replays a raw game on the rules engine. It reports false when
// the game's starting position cannot be set up.
func BuildTree(game *pgn.Game) (*MoveNode, bool) {
	start := position.Start()
	if fen, ok := game.Tags["FEN"]; ok && game.Tags["SetUp"] != "0" {
		pos, err := position.FromFEN(fen)
		if err != nil {
			return nil, false
		}
		start = pos
	}

	root := &MoveNode{
		FEN:     position.Descriptor(start),
		Comment: joinComments(game.Root.Comments),
	}
	grow(root, start, game.Root)
	return root, true
}

// grow plays raw's children from pos and attaches the legal ones to node.
func grow(node *MoveNode, pos *chess.Position, raw *pgn.Node) {
	for i, rc := range raw.Children {
		san, next, err := position.PlaySAN(pos, rc.SAN)
		if err != nil {
			if i == 0 {
				node.Truncated = true
			}
			continue
		}
		child := &MoveNode{
			SAN:     san,
			FEN:     position.Descriptor(next),
			Comment: joinComments(rc.Comments),
		}
		node.Children = append(node.Children, child)
		grow(child, next, rc)
	}
}

func joinComments(comments []string) string {
	return strings.TrimSpace(strings.Join(comments, " "))
}
