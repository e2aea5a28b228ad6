package term

import (
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
)

// maxLoopIterations bounds while and for loops so a runaway script
// cannot stall the frame loop.
const maxLoopIterations = 1000

// scriptNode is one parsed statement.
type scriptNode interface{ isNode() }

type cmdNode struct{ line string }

type ifNode struct {
	cond     string
	thenBody []scriptNode
	elseBody []scriptNode
}

type whileNode struct {
	cond string
	body []scriptNode
}

type forNode struct {
	varName string
	words   []string
	body    []scriptNode
}

type funcNode struct {
	name string
	body []string
}

func (cmdNode) isNode()   {}
func (ifNode) isNode()    {}
func (whileNode) isNode() {}
func (forNode) isNode()   {}
func (funcNode) isNode()  {}

// SplitScript breaks a script blob into the line form RunScript
// consumes. The coordinator uses it for startup and cron scripts.
func SplitScript(text string) []string { return splitScript(text) }

// splitScript breaks a script blob into trimmed, comment-stripped
// lines. Blank lines survive as "" and are skipped by the parser.
func splitScript(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "#") {
			l = ""
		}
		out = append(out, l)
	}
	return out
}

// parseScript builds the statement tree from script lines.
func parseScript(lines []string) ([]scriptNode, error) {
	nodes, rest, err := parseBlock(lines, "")
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fault.Newf(fault.Parse, rest[0], "unexpected %q", firstWord(rest[0]))
	}
	return nodes, nil
}

// parseBlock consumes statements until the given terminator keyword
// ("" for end of input). Returns the nodes and unconsumed lines,
// with the terminator line stripped.
func parseBlock(lines []string, until string) ([]scriptNode, []string, error) {
	var nodes []scriptNode
	for len(lines) > 0 {
		line := lines[0]
		word := firstWord(line)
		if word == until && until != "" {
			return nodes, lines[1:], nil
		}
		// else belongs to the enclosing if.
		if word == "else" && until == "fi" {
			return nodes, lines, nil
		}
		lines = lines[1:]
		if line == "" {
			continue
		}
		switch word {
		case "if":
			cond := strings.TrimSpace(line[2:])
			if cond == "" {
				return nil, nil, fault.New(fault.Parse, "if: missing condition")
			}
			thenBody, rest, err := parseBlock(lines, "fi")
			if err != nil {
				return nil, nil, err
			}
			var elseBody []scriptNode
			if len(rest) > 0 && firstWord(rest[0]) == "else" {
				// parseBlock stopped at else; consume it and parse to fi.
				elseBody, rest, err = parseBlock(rest[1:], "fi")
				if err != nil {
					return nil, nil, err
				}
			}
			lines = rest
			nodes = append(nodes, ifNode{cond: cond, thenBody: thenBody, elseBody: elseBody})
		case "while":
			cond := strings.TrimSpace(line[5:])
			if cond == "" {
				return nil, nil, fault.New(fault.Parse, "while: missing condition")
			}
			body, rest, err := parseBlock(lines, "done")
			if err != nil {
				return nil, nil, err
			}
			lines = rest
			nodes = append(nodes, whileNode{cond: cond, body: body})
		case "for":
			fields := strings.Fields(line)
			if len(fields) < 3 || fields[2] != "in" {
				return nil, nil, fault.Newf(fault.Parse, line, "for: want 'for VAR in WORDS'")
			}
			body, rest, err := parseBlock(lines, "done")
			if err != nil {
				return nil, nil, err
			}
			lines = rest
			nodes = append(nodes, forNode{varName: fields[1], words: fields[3:], body: body})
		case "function":
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return nil, nil, fault.Newf(fault.Parse, line, "function: want 'function NAME'")
			}
			var body []string
			depth := 0
			for {
				if len(lines) == 0 {
					return nil, nil, fault.Newf(fault.Parse, line, "function %s: missing 'end'", fields[1])
				}
				l := lines[0]
				lines = lines[1:]
				if firstWord(l) == "function" {
					depth++
				}
				if firstWord(l) == "end" {
					if depth == 0 {
						break
					}
					depth--
				}
				body = append(body, l)
			}
			nodes = append(nodes, funcNode{name: fields[1], body: body})
		case "fi", "done", "end":
			return nil, nil, fault.Newf(fault.Parse, line, "unexpected %q", word)
		default:
			nodes = append(nodes, cmdNode{line: line})
		}
	}
	if until != "" {
		return nil, nil, fault.Newf(fault.Parse, until, "missing %q", until)
	}
	return nodes, nil, nil
}

func firstWord(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// RunScript parses and executes script lines, returning every output
// in order. Parse failures yield a single error output.
func (in *Interpreter) RunScript(lines []string) []Output {
	nodes, err := parseScript(lines)
	if err != nil {
		in.Env.LastStatus = fault.StatusOf(err)
		return []Output{ErrOut(err)}
	}
	var outs []Output
	in.runNodes(nodes, &outs)
	return outs
}

// runNodes executes statements, appending their outputs. It stops on
// the first Exit signal and propagates it.
func (in *Interpreter) runNodes(nodes []scriptNode, outs *[]Output) bool {
	for _, n := range nodes {
		switch node := n.(type) {
		case cmdNode:
			for _, o := range in.run(node.line) {
				*outs = append(*outs, o)
				if o.Kind == KindExit {
					return false
				}
			}
		case ifNode:
			in.run(node.cond)
			body := node.thenBody
			if in.Env.LastStatus != 0 {
				body = node.elseBody
			}
			if !in.runNodes(body, outs) {
				return false
			}
		case whileNode:
			iters := 0
			for {
				in.run(node.cond)
				if in.Env.LastStatus != 0 {
					break
				}
				iters++
				if iters > maxLoopIterations {
					*outs = append(*outs, Errorf(fault.Resource, node.cond, "while: exceeded %d iterations", maxLoopIterations))
					in.Env.LastStatus = fault.Resource.Status()
					return true
				}
				if !in.runNodes(node.body, outs) {
					return false
				}
			}
			// A finished loop leaves $? from its condition; reset to
			// success so 'while ...; done && next' behaves.
			in.Env.LastStatus = 0
		case forNode:
			if len(node.words) > maxLoopIterations {
				*outs = append(*outs, Errorf(fault.Resource, node.varName, "for: exceeded %d iterations", maxLoopIterations))
				in.Env.LastStatus = fault.Resource.Status()
				return true
			}
			for _, w := range node.words {
				in.Env.Vars[node.varName] = in.expandWord(w)
				if !in.runNodes(node.body, outs) {
					return false
				}
			}
		case funcNode:
			in.Env.Functions[node.name] = node.body
		}
	}
	return true
}

// expandWord applies variable expansion to a single for-loop word.
func (in *Interpreter) expandWord(w string) string {
	tokens, err := tokenize(w, in.Env.Lookup)
	if err != nil || len(tokens) == 0 {
		return w
	}
	return tokens[0].text
}
