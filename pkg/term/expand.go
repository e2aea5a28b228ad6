package term

import (
	"sort"
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

// aliasDepthLimit bounds recursive alias substitution.
const aliasDepthLimit = 16

// expandAliases substitutes the first word of each command segment
// when it names an alias, recursively with cycle detection. Operator
// tokens reset the "first word" state so every pipeline stage gets
// alias treatment.
func expandAliases(tokens []token, aliases map[string]string, lookup func(string) string) ([]token, error) {
	out := make([]token, 0, len(tokens))
	first := true
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.op {
			out = append(out, t)
			first = true
			continue
		}
		if first && !t.literal {
			expanded, err := expandOneAlias(t, aliases, lookup, map[string]bool{}, 0)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		} else {
			out = append(out, t)
		}
		first = false
	}
	return out, nil
}

func expandOneAlias(t token, aliases map[string]string, lookup func(string) string, seen map[string]bool, depth int) ([]token, error) {
	repl, ok := aliases[t.text]
	if !ok {
		return []token{t}, nil
	}
	if depth >= aliasDepthLimit || seen[t.text] {
		return nil, fault.Newf(fault.Parse, t.text, "alias loop detected at %q", t.text)
	}
	seen[t.text] = true
	replTokens, err := tokenize(repl, lookup)
	if err != nil {
		return nil, err
	}
	if len(replTokens) == 0 {
		return nil, nil
	}
	// Only the head of the replacement may alias further.
	head, err := expandOneAlias(replTokens[0], aliases, lookup, seen, depth+1)
	if err != nil {
		return nil, err
	}
	return append(head, replTokens[1:]...), nil
}

// expandGlobs replaces unquoted tokens containing '*' or '?' with the
// lexicographically sorted VFS entries they match. A pattern with no
// matches stays as the literal pattern.
func expandGlobs(tokens []token, fs vfs.FS, cwd string) []token {
	out := make([]token, 0, len(tokens))
	for _, t := range tokens {
		if t.op || t.quoted || !vfs.HasGlob(t.text) {
			out = append(out, t)
			continue
		}
		matches := globMatches(fs, cwd, t.text)
		if len(matches) == 0 {
			out = append(out, t)
			continue
		}
		for _, m := range matches {
			out = append(out, token{text: m, quoted: true})
		}
	}
	return out
}

// globMatches lists directory entries matching the pattern. Patterns
// with a directory part match against that directory and yield full
// paths; bare patterns match the working directory and yield names.
func globMatches(fs vfs.FS, cwd, pattern string) []string {
	dir := cwd
	prefix := ""
	pat := pattern
	if i := strings.LastIndexByte(pattern, '/'); i >= 0 {
		dir = vfs.Join(cwd, pattern[:i+1])
		prefix = pattern[:i+1]
		pat = pattern[i+1:]
	}
	entries, err := fs.List(dir)
	if err != nil {
		return nil
	}
	var matches []string
	for _, e := range entries {
		if vfs.Glob(pat, e.Name) {
			matches = append(matches, prefix+e.Name)
		}
	}
	sort.Strings(matches)
	return matches
}

// expandHistory resolves !! and !n references against the ring before
// tokenization. Returns the (possibly rewritten) line.
func expandHistory(line string, h *History) (string, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "!!" {
		last, ok := h.Last()
		if !ok {
			return "", fault.New(fault.NotFound, "history is empty")
		}
		return last, nil
	}
	if strings.HasPrefix(trimmed, "!") && len(trimmed) > 1 {
		n := 0
		for _, c := range trimmed[1:] {
			if c < '0' || c > '9' {
				return line, nil
			}
			n = n*10 + int(c-'0')
		}
		entry, ok := h.Get(n)
		if !ok {
			return "", fault.Newf(fault.NotFound, trimmed, "no history entry %d", n)
		}
		return entry, nil
	}
	return line, nil
}
