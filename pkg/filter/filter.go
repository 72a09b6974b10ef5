package filter

import "strings"

// delimit marks a phrase end inside the trie. It can never collide with a
// rune from an input phrase because NUL is stripped from chat text upstream.
const delimit = '\x00'

type node map[rune]node

// Filter is a multi-pattern substring scanner backed by a rune trie.
//
// Matching is first-match: the smallest start offset wins, and among phrases
// completing at the same offset the shortest one wins. Callers must not
// assume maximal matches.
type Filter struct {
	root node
}

func New() *Filter {
	return &Filter{root: node{}}
}

// Build creates a filter containing every phrase in the set.
func Build(phrases []string) *Filter {
	f := New()
	for _, p := range phrases {
		f.Add(p)
	}
	return f
}

// Add inserts one phrase, lower-cased. Blank phrases are ignored.
func (f *Filter) Add(phrase string) {
	chars := []rune(strings.ToLower(strings.TrimSpace(phrase)))
	if len(chars) == 0 {
		return
	}

	level := f.root
	for _, ch := range chars {
		next, ok := level[ch]
		if !ok {
			next = node{}
			level[ch] = next
		}
		level = next
	}
	level[delimit] = nil
}

// Scan reports the first disallowed substring of text, if any.
// Input is case-normalized the same way phrases are at insert time.
func (f *Filter) Scan(text string) (string, bool) {
	runes := []rune(strings.ToLower(text))
	for start := 0; start < len(runes); start++ {
		level := f.root
		for i := start; i < len(runes); i++ {
			next, ok := level[runes[i]]
			if !ok {
				break
			}
			if _, end := next[delimit]; end {
				return string(runes[start : i+1]), true
			}
			level = next
		}
	}
	return "", false
}
