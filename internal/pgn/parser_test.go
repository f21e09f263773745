package pgn

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// mainline follows Children[0] from the root.
func mainline(g *Game) []string {
	var sans []string
	for n := g.Root; len(n.Children) > 0; n = n.Children[0] {
		sans = append(sans, n.Children[0].SAN)
	}
	return sans
}

func TestParse_TagsAndMainline(t *testing.T) {
	text := `[Event "Casual"]
[White "Anderssen, A."]
[Black "Kieseritzky, L."]
[Result "1-0"]

1. e4 e5 2. f4 exf4 3. Bc4 Qh4+ 1-0
`
	g, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	wantTags := map[string]string{
		"Event":  "Casual",
		"White":  "Anderssen, A.",
		"Black":  "Kieseritzky, L.",
		"Result": "1-0",
	}
	if diff := cmp.Diff(wantTags, g.Tags); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}

	want := []string{"e4", "e5", "f4", "exf4", "Bc4", "Qh4+"}
	if diff := cmp.Diff(want, mainline(g)); diff != "" {
		t.Errorf("mainline mismatch (-want +got):\n%s", diff)
	}
	if g.Result != "1-0" {
		t.Errorf("Result = %q, want 1-0", g.Result)
	}
}

func TestParse_Variations(t *testing.T) {
	g, err := Parse("1. e4 (1. d4 d5 (1... Nf6)) e5 2. Nf3 *")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	root := g.Root
	if len(root.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(root.Children))
	}
	if root.Children[0].SAN != "e4" || root.Children[1].SAN != "d4" {
		t.Errorf("root children = %q, %q; want e4, d4", root.Children[0].SAN, root.Children[1].SAN)
	}

	d4 := root.Children[1]
	if len(d4.Children) != 2 || d4.Children[0].SAN != "d5" || d4.Children[1].SAN != "Nf6" {
		t.Errorf("nested variation not attached to d4: %+v", d4.Children)
	}

	if diff := cmp.Diff([]string{"e4", "e5", "Nf3"}, mainline(g)); diff != "" {
		t.Errorf("mainline mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Comments(t *testing.T) {
	g, err := Parse("{Opening notes} 1. e4 {best by test} {really} e5 ( {also} 1... c5 {sharp} ) *")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if diff := cmp.Diff([]string{"Opening notes"}, g.Root.Comments); diff != "" {
		t.Errorf("root comments mismatch (-want +got):\n%s", diff)
	}

	e4 := g.Root.Children[0]
	if diff := cmp.Diff([]string{"best by test", "really"}, e4.Comments); diff != "" {
		t.Errorf("e4 comments mismatch (-want +got):\n%s", diff)
	}

	c5 := e4.Children[1]
	if c5.SAN != "c5" {
		t.Fatalf("variation move = %q, want c5", c5.SAN)
	}
	if diff := cmp.Diff([]string{"also"}, c5.StartingComments); diff != "" {
		t.Errorf("starting comments mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"sharp"}, c5.Comments); diff != "" {
		t.Errorf("c5 comments mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Annotations(t *testing.T) {
	g, err := Parse("1.e4! e5?! 2.Nf3 $14 Nc6")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if diff := cmp.Diff([]string{"e4", "e5", "Nf3", "Nc6"}, mainline(g)); diff != "" {
		t.Errorf("mainline mismatch (-want +got):\n%s", diff)
	}

	e4 := g.Root.Children[0]
	e5 := e4.Children[0]
	nf3 := e5.Children[0]
	if diff := cmp.Diff([]string{"$1"}, e4.NAGs); diff != "" {
		t.Errorf("e4 NAGs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"$6"}, e5.NAGs); diff != "" {
		t.Errorf("e5 NAGs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"$14"}, nf3.NAGs); diff != "" {
		t.Errorf("Nf3 NAGs mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RootCommentOnly(t *testing.T) {
	g, err := Parse("{Just a note} *")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(g.Root.Children) != 0 {
		t.Errorf("root has %d children, want 0", len(g.Root.Children))
	}
	if diff := cmp.Diff([]string{"Just a note"}, g.Root.Comments); diff != "" {
		t.Errorf("root comments mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_FirstGameOnly(t *testing.T) {
	text := "[Event \"A\"]\n1. e4 e5 1-0\n\n[Event \"B\"]\n1. d4 d5 0-1\n"
	g, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if g.Tags["Event"] != "A" {
		t.Errorf("Event = %q, want A", g.Tags["Event"])
	}
	if diff := cmp.Diff([]string{"e4", "e5"}, mainline(g)); diff != "" {
		t.Errorf("mainline mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NoGame(t *testing.T) {
	for _, text := range []string{"", "   \n\t", "%escaped line\n", ")))"} {
		if _, err := Parse(text); !errors.Is(err, ErrNoGame) {
			t.Errorf("Parse(%q) error = %v, want ErrNoGame", text, err)
		}
	}
}

func TestParse_Unbalanced(t *testing.T) {
	// A variation that never closes still yields the moves read so far.
	g, err := Parse("1. e4 e5 (1... c5 2. Nf3")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e4 := g.Root.Children[0]
	if len(e4.Children) != 2 {
		t.Fatalf("e4 has %d children, want 2", len(e4.Children))
	}
	if got := e4.Children[1].Children[0].SAN; got != "Nf3" {
		t.Errorf("variation continuation = %q, want Nf3", got)
	}
}
