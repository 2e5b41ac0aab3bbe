package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func tagHandler(hits *[]string, tag string) tele.HandlerFunc {
	return func(c tele.Context) error {
		*hits = append(*hits, tag)
		return nil
	}
}

func TestDispatchExactMatch(t *testing.T) {
	var hits []string
	d := NewDispatch()
	d.Register("chatgpt_text_chat", tagHandler(&hits, "exact"))

	pattern, h, ok := d.Resolve("chatgpt_text_chat")
	if !ok || pattern != "chatgpt_text_chat" {
		t.Fatalf("Resolve = %q, %v", pattern, ok)
	}
	_ = h(nil)
	if len(hits) != 1 || hits[0] != "exact" {
		t.Fatalf("hits = %v", hits)
	}
}

func TestDispatchPrefixNeedsSeparator(t *testing.T) {
	var hits []string
	d := NewDispatch()
	d.Register("a", tagHandler(&hits, "a"))
	d.Register("ab", tagHandler(&hits, "ab"))

	// "ab_x" does not start with "a_", so it must match "ab".
	pattern, h, ok := d.Resolve("ab_x")
	if !ok || pattern != "ab" {
		t.Fatalf("Resolve(ab_x) = %q, %v, want ab", pattern, ok)
	}
	_ = h(nil)
	if hits[len(hits)-1] != "ab" {
		t.Fatalf("wrong handler selected: %v", hits)
	}
}

func TestDispatchExactBeatsPrefix(t *testing.T) {
	var hits []string
	d := NewDispatch()
	d.Register("x", tagHandler(&hits, "x"))
	d.Register("x_y", tagHandler(&hits, "x_y"))

	pattern, h, ok := d.Resolve("x")
	if !ok || pattern != "x" {
		t.Fatalf("Resolve(x) = %q, %v", pattern, ok)
	}
	_ = h(nil)
	if hits[len(hits)-1] != "x" {
		t.Fatalf("exact registration must win: %v", hits)
	}

	// "x_y" itself is exact for the longer pattern.
	if pattern, _, ok = d.Resolve("x_y"); !ok || pattern != "x_y" {
		t.Fatalf("Resolve(x_y) = %q, %v", pattern, ok)
	}
}

func TestDispatchUnmatchedIsNotError(t *testing.T) {
	d := NewDispatch()
	d.Register("a", func(c tele.Context) error { return nil })
	if _, _, ok := d.Resolve("zzz"); ok {
		t.Fatal("Resolve(zzz) must report unhandled")
	}
	if _, _, ok := d.Resolve(""); ok {
		t.Fatal("empty event id must report unhandled")
	}
}

// Ambiguous prefixes resolve to the first-registered pattern. This is an
// iteration-order compatibility guarantee, not an endorsed ranking; see
// the Dispatch doc comment before relying on it for new event ids.
func TestDispatchFirstRegisteredWinsAmbiguousPrefix(t *testing.T) {
	var hits []string
	d := NewDispatch()
	d.Register("freepik", tagHandler(&hits, "freepik"))
	d.Register("freepik_image", tagHandler(&hits, "freepik_image"))

	// Exact miss; both "freepik_" and "freepik_image_" prefix-match.
	pattern, h, ok := d.Resolve("freepik_image_mystic")
	if !ok || pattern != "freepik" {
		t.Fatalf("Resolve = %q, %v, want first-registered freepik", pattern, ok)
	}
	_ = h(nil)
}

func TestDispatchReplaceKeepsPosition(t *testing.T) {
	var hits []string
	d := NewDispatch()
	d.Register("p", tagHandler(&hits, "old"))
	d.Register("q", tagHandler(&hits, "q"))
	d.Register("p", tagHandler(&hits, "new"))

	if got := d.Patterns(); len(got) != 2 || got[0] != "p" || got[1] != "q" {
		t.Fatalf("Patterns = %v", got)
	}
	_, h, ok := d.Resolve("p_payload")
	if !ok {
		t.Fatal("prefix resolve failed")
	}
	_ = h(nil)
	if hits[len(hits)-1] != "new" {
		t.Fatalf("replacement handler not used: %v", hits)
	}
}

func TestDispatchDeterministic(t *testing.T) {
	var hits []string
	d := NewDispatch()
	for _, p := range []string{"pay_sub", "pay", "chat_image", "chat"} {
		d.Register(p, tagHandler(&hits, p))
	}
	for i := 0; i < 50; i++ {
		pattern, _, ok := d.Resolve("pay_sub_monthly")
		if !ok || pattern != "pay_sub" {
			t.Fatalf("iteration %d: Resolve = %q, %v", i, pattern, ok)
		}
	}
}

func TestDispatchInvalidRegistrations(t *testing.T) {
	d := NewDispatch()
	d.Register("", func(c tele.Context) error { return nil })
	d.Register("ok", nil)
	if d.Len() != 0 {
		t.Fatalf("Len = %d, want 0", d.Len())
	}
}
