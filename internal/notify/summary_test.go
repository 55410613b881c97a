package notify

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSummarizeProducts_FitsUnchanged(t *testing.T) {
	got := SummarizeProducts([]string{"Blue Shirt", "Red Hat"}, DefaultSummaryLimit)
	if got != "Blue Shirt, Red Hat" {
		t.Fatalf("got %q, want %q", got, "Blue Shirt, Red Hat")
	}
}

func TestSummarizeProducts_ExactlyAtLimit(t *testing.T) {
	title := strings.Repeat("a", 60)
	if got := SummarizeProducts([]string{title}, 60); got != title {
		t.Fatalf("title of exactly the limit should pass through, got %q", got)
	}
}

func TestSummarizeProducts_CollapsesToCount(t *testing.T) {
	titles := []string{
		"Organic Cotton Crew Neck T-Shirt",
		"Slim Fit Stretch Denim Jeans",
		"Leather Belt",
	}
	got := SummarizeProducts(titles, 60)
	want := "Organic Cotton Crew Neck T-Shirt & 2 more"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSummarizeProducts_LongFirstTitleWithOthers(t *testing.T) {
	first := strings.Repeat("x", 80)
	got := SummarizeProducts([]string{first, "Hat"}, 60)
	want := strings.Repeat("x", 50) + "... & more"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSummarizeProducts_SingleLongTitle(t *testing.T) {
	title := strings.Repeat("y", 75)
	got := SummarizeProducts([]string{title}, 60)
	want := strings.Repeat("y", 57) + "..."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSummarizeProducts_Empty(t *testing.T) {
	if got := SummarizeProducts(nil, 60); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestSummarizeProducts_MultibyteTitles(t *testing.T) {
	title := strings.Repeat("é", 70)
	got := SummarizeProducts([]string{title}, 60)
	if !utf8.ValidString(got) {
		t.Fatalf("summary is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 60 {
		t.Fatalf("got %d runes, want 60", n)
	}
}

func TestSummarizeProducts_BoundedAndDeterministic(t *testing.T) {
	lists := [][]string{
		{strings.Repeat("a", 61)},
		{strings.Repeat("b", 200), "c"},
		{"Widget", "Gadget", "Gizmo", "Doohickey", "Thingamajig", "Whatsit", "Contraption"},
		{strings.Repeat("d", 55), "e", "f"},
	}
	many := make([]string, 150)
	for i := range many {
		many[i] = "Sock"
	}
	lists = append(lists, many)

	for _, titles := range lists {
		if utf8.RuneCountInString(strings.Join(titles, ", ")) <= 60 {
			continue
		}
		a := SummarizeProducts(titles, 60)
		b := SummarizeProducts(titles, 60)
		if a != b {
			t.Errorf("non-deterministic summary: %q vs %q", a, b)
		}
		if n := utf8.RuneCountInString(a); n > 70 {
			t.Errorf("summary %q is %d chars, want <= 70", a, n)
		}
	}
}
