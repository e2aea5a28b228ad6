package term

import "testing"

func lookupNone(string) string { return "" }

func texts(tokens []token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.text
	}
	return out
}

func TestTokenizeWords(t *testing.T) {
	tokens, err := tokenize("echo  hello\tworld", lookupNone)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	got := texts(tokens)
	want := []string{"echo", "hello", "world"}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizeSingleQuotes(t *testing.T) {
	tokens, err := tokenize(`echo 'a $X b'`, func(string) string { return "BAD" })
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if tokens[1].text != "a $X b" {
		t.Errorf("single-quoted token = %q, want verbatim", tokens[1].text)
	}
	if !tokens[1].quoted || !tokens[1].literal {
		t.Errorf("flags = quoted:%v literal:%v, want both true", tokens[1].quoted, tokens[1].literal)
	}
}

func TestTokenizeDoubleQuotes(t *testing.T) {
	lookup := func(name string) string {
		if name == "X" {
			return "val"
		}
		return ""
	}
	tokens, err := tokenize(`echo "pre $X \"q\" \\ \$lit"`, lookup)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := `pre val "q" \ $lit`
	if tokens[1].text != want {
		t.Errorf("double-quoted token = %q, want %q", tokens[1].text, want)
	}
}

func TestTokenizeQuotedRoundTrip(t *testing.T) {
	// Tokenizing "s" yields exactly s for arbitrary content.
	for _, s := range []string{"plain", "two words", "a|b;c&&d", "*glob?", "tab\tchar"} {
		tokens, err := tokenize(`"`+s+`"`, lookupNone)
		if err != nil {
			t.Fatalf("tokenize %q: %v", s, err)
		}
		if len(tokens) != 1 {
			t.Fatalf("tokenize %q produced %d tokens", s, len(tokens))
		}
		if tokens[0].text != s {
			t.Errorf("round trip of %q = %q", s, tokens[0].text)
		}
	}
}

func TestTokenizeUnterminated(t *testing.T) {
	for _, in := range []string{`echo 'open`, `echo "open`, `echo trailing\`} {
		if _, err := tokenize(in, lookupNone); err == nil {
			t.Errorf("tokenize(%q) succeeded, want parse error", in)
		}
	}
}

func TestTokenizeOperators(t *testing.T) {
	tokens, err := tokenize("a|b&&c;d>e>>f||g", lookupNone)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	var ops []string
	for _, tok := range tokens {
		if tok.op {
			ops = append(ops, tok.text)
		}
	}
	want := []string{"|", "&&", ";", ">", ">>", "||"}
	if len(ops) != len(want) {
		t.Fatalf("operators = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op[%d] = %q, want %q", i, ops[i], want[i])
		}
	}
}

func TestTokenizeQuotedOperatorIsText(t *testing.T) {
	tokens, err := tokenize(`echo "a|b"`, lookupNone)
	if err != nil {
		t.Fatal(err)
	}
	for _, tok := range tokens {
		if tok.op {
			t.Errorf("quoted operator tokenized as operator: %v", texts(tokens))
		}
	}
}

func TestTokenizeVariableExpansion(t *testing.T) {
	lookup := func(name string) string {
		switch name {
		case "A":
			return "aaa"
		case "?":
			return "7"
		}
		return ""
	}
	tokens, err := tokenize("echo $A $? $UNSET x$A", lookup)
	if err != nil {
		t.Fatal(err)
	}
	got := texts(tokens)
	want := []string{"echo", "aaa", "7", "xaaa"}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v (unset variables drop to empty words)", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizeBackslashEscape(t *testing.T) {
	tokens, err := tokenize(`echo a\ b \$X`, lookupNone)
	if err != nil {
		t.Fatal(err)
	}
	got := texts(tokens)
	if got[1] != "a b" {
		t.Errorf("escaped space token = %q, want %q", got[1], "a b")
	}
	if got[2] != "$X" {
		t.Errorf("escaped dollar = %q, want $X", got[2])
	}
}
