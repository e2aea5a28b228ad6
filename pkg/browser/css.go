package browser

import (
	"sort"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
)

// Selector is a compound simple selector: optional tag, optional id,
// any number of classes. The subset has no combinators.
type Selector struct {
	Tag     string
	ID      string
	Classes []string
}

// Matches reports whether the selector applies to the element.
func (s Selector) Matches(n *Node) bool {
	if n.Type != ElementNode {
		return false
	}
	if s.Tag != "" && s.Tag != n.Tag {
		return false
	}
	if s.ID != "" && s.ID != n.Attr("id") {
		return false
	}
	if len(s.Classes) > 0 {
		have := strings.Fields(n.Attr("class"))
		for _, want := range s.Classes {
			found := false
			for _, h := range have {
				if h == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// Specificity orders selectors: ids > classes > types, later wins on
// ties (order is the rule's source position).
type Specificity struct {
	IDs     int
	Classes int
	Types   int
	Order   int
}

func (a Specificity) less(b Specificity) bool {
	if a.IDs != b.IDs {
		return a.IDs < b.IDs
	}
	if a.Classes != b.Classes {
		return a.Classes < b.Classes
	}
	if a.Types != b.Types {
		return a.Types < b.Types
	}
	return a.Order < b.Order
}

// Rule is one parsed CSS rule (after selector-list flattening).
type Rule struct {
	Selector     Selector
	Declarations map[string]string
	spec         Specificity
}

// ParseCSS parses a stylesheet subset: selector lists, `prop: value`
// declarations, /* comments */. Parsing is total; unparseable chunks
// are skipped.
func ParseCSS(src string) []Rule {
	src = stripComments(src)
	var rules []Rule
	order := 0
	for {
		open := strings.IndexByte(src, '{')
		if open < 0 {
			break
		}
		close_ := strings.IndexByte(src[open:], '}')
		if close_ < 0 {
			break
		}
		selectors := src[:open]
		body := src[open+1 : open+close_]
		src = src[open+close_+1:]

		decls := parseDeclarations(body)
		if len(decls) == 0 {
			continue
		}
		for _, selRaw := range strings.Split(selectors, ",") {
			sel, ok := parseSelector(strings.TrimSpace(selRaw))
			if !ok {
				continue
			}
			spec := Specificity{Order: order}
			if sel.ID != "" {
				spec.IDs = 1
			}
			spec.Classes = len(sel.Classes)
			if sel.Tag != "" {
				spec.Types = 1
			}
			rules = append(rules, Rule{Selector: sel, Declarations: decls, spec: spec})
			order++
		}
	}
	return rules
}

func stripComments(s string) string {
	for {
		start := strings.Index(s, "/*")
		if start < 0 {
			return s
		}
		end := strings.Index(s[start:], "*/")
		if end < 0 {
			return s[:start]
		}
		s = s[:start] + s[start+end+2:]
	}
}

func parseSelector(raw string) (Selector, bool) {
	if raw == "" || strings.ContainsAny(raw, " >+~[") {
		// Combinators and attribute selectors are outside the subset.
		return Selector{}, false
	}
	var sel Selector
	cur := &sel.Tag
	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		switch cur {
		case &sel.Tag:
			sel.Tag = strings.ToLower(buf.String())
		case &sel.ID:
			sel.ID = buf.String()
		default:
			sel.Classes = append(sel.Classes, buf.String())
		}
		buf.Reset()
	}
	for _, r := range raw {
		switch r {
		case '#':
			flush()
			cur = &sel.ID
		case '.':
			flush()
			cur = nil
		case '*':
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return sel, true
}

// parseDeclarations splits "color: red; margin: 4px" into a map.
func parseDeclarations(body string) map[string]string {
	decls := map[string]string{}
	for _, d := range strings.Split(body, ";") {
		i := strings.IndexByte(d, ':')
		if i < 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(d[:i]))
		val := strings.TrimSpace(d[i+1:])
		if prop != "" && val != "" {
			decls[prop] = val
		}
	}
	return decls
}

// Style is the computed style for one element. color, font-size,
// text-align and font-weight inherit; everything else resets.
type Style struct {
	Color      gfx.Color
	Background gfx.Color
	HasBG      bool
	FontSize   int
	Bold       bool
	Display    string // block | inline | table | table-row | table-cell | none
	Margin     [4]int // top right bottom left
	Padding    [4]int
	Width      int // -1 means auto
	Float      string
	TextAlign  string
}

// defaultDisplay maps tags to their display type.
func defaultDisplay(tag string) string {
	switch tag {
	case "html", "body", "div", "p", "h1", "h2", "h3", "h4", "ul", "ol", "li",
		"blockquote", "pre", "hr", "form", "#root":
		return "block"
	case "table":
		return "table"
	case "tr":
		return "table-row"
	case "td", "th":
		return "table-cell"
	case "head", "style", "script", "title", "meta", "link":
		return "none"
	}
	return "inline"
}

// StyledNode pairs a DOM node with its computed style.
type StyledNode struct {
	Node     *Node
	Style    Style
	Children []*StyledNode
}

// Cascade computes styles for the whole tree. Inline style attributes
// outrank every stylesheet rule of the subset (there is no
// !important).
func Cascade(doc *Node, rules []Rule, base Style) *StyledNode {
	return cascadeNode(doc, rules, base)
}

func cascadeNode(n *Node, rules []Rule, inherited Style) *StyledNode {
	st := inherited
	// Reset non-inherited properties.
	st.Background = gfx.Color{}
	st.HasBG = false
	st.Margin = [4]int{}
	st.Padding = [4]int{}
	st.Width = -1
	st.Float = ""
	st.Display = "inline"

	if n.Type == ElementNode {
		st.Display = defaultDisplay(n.Tag)
		applyTagDefaults(n.Tag, &st)

		var matched []Rule
		for _, r := range rules {
			if r.Selector.Matches(n) {
				matched = append(matched, r)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].spec.less(matched[j].spec) })
		for _, r := range matched {
			for prop, val := range r.Declarations {
				applyDeclaration(&st, prop, val)
			}
		}
		if inline := n.Attr("style"); inline != "" {
			for prop, val := range parseDeclarations(inline) {
				applyDeclaration(&st, prop, val)
			}
		}
	}

	sn := &StyledNode{Node: n, Style: st}
	// Children inherit only the inherited property set.
	childBase := inherited
	childBase.Color = st.Color
	childBase.FontSize = st.FontSize
	childBase.TextAlign = st.TextAlign
	childBase.Bold = st.Bold
	for _, c := range n.Children {
		if c.Type == CommentNode {
			continue
		}
		sn.Children = append(sn.Children, cascadeNode(c, rules, childBase))
	}
	return sn
}

// applyTagDefaults sets the user-agent defaults for the subset.
func applyTagDefaults(tag string, st *Style) {
	switch tag {
	case "h1":
		st.FontSize = 16
		st.Bold = true
		st.Margin = [4]int{8, 0, 8, 0}
	case "h2":
		st.FontSize = 13
		st.Bold = true
		st.Margin = [4]int{6, 0, 6, 0}
	case "h3", "h4":
		st.Bold = true
		st.Margin = [4]int{4, 0, 4, 0}
	case "p":
		st.Margin = [4]int{6, 0, 6, 0}
	case "ul", "ol", "blockquote":
		st.Margin = [4]int{4, 0, 4, 16}
	case "li":
		st.Margin = [4]int{1, 0, 1, 0}
	case "pre":
		st.Margin = [4]int{4, 0, 4, 0}
	case "body":
		st.Padding = [4]int{4, 4, 4, 4}
	case "b", "strong":
		st.Bold = true
	}
}

// applyDeclaration folds one declaration into the style. Unknown
// properties and unparseable values are ignored.
func applyDeclaration(st *Style, prop, val string) {
	switch prop {
	case "color":
		if c, ok := cssColor(val); ok {
			st.Color = c
		}
	case "background-color", "background":
		if c, ok := cssColor(val); ok {
			st.Background = c
			st.HasBG = true
		}
	case "font-size":
		if px, ok := cssPx(val); ok {
			st.FontSize = px
		}
	case "font-weight":
		st.Bold = val == "bold" || val == "700"
	case "display":
		st.Display = val
	case "width":
		if px, ok := cssPx(val); ok {
			st.Width = px
		}
	case "float":
		if val == "left" || val == "right" {
			st.Float = val
		}
	case "text-align":
		st.TextAlign = val
	case "margin":
		if px, ok := cssPx(val); ok {
			st.Margin = [4]int{px, px, px, px}
		}
	case "margin-top":
		setSide(&st.Margin, 0, val)
	case "margin-right":
		setSide(&st.Margin, 1, val)
	case "margin-bottom":
		setSide(&st.Margin, 2, val)
	case "margin-left":
		setSide(&st.Margin, 3, val)
	case "padding":
		if px, ok := cssPx(val); ok {
			st.Padding = [4]int{px, px, px, px}
		}
	case "padding-top":
		setSide(&st.Padding, 0, val)
	case "padding-right":
		setSide(&st.Padding, 1, val)
	case "padding-bottom":
		setSide(&st.Padding, 2, val)
	case "padding-left":
		setSide(&st.Padding, 3, val)
	}
}

func setSide(arr *[4]int, i int, val string) {
	if px, ok := cssPx(val); ok {
		arr[i] = px
	}
}

// cssNamedColors is the small named-color set pages actually use.
var cssNamedColors = map[string]string{
	"black": "#000", "white": "#FFF", "red": "#F00", "green": "#008000",
	"blue": "#00F", "yellow": "#FF0", "gray": "#808080", "grey": "#808080",
	"orange": "#FFA500", "purple": "#800080", "silver": "#C0C0C0",
}

func cssColor(val string) (gfx.Color, bool) {
	val = strings.ToLower(strings.TrimSpace(val))
	if hex, ok := cssNamedColors[val]; ok {
		val = hex
	}
	c, err := gfx.Parse(val)
	if err != nil {
		return gfx.Color{}, false
	}
	return c, true
}

func cssPx(val string) (int, bool) {
	val = strings.TrimSuffix(strings.TrimSpace(val), "px")
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// CollectCSS gathers stylesheet text from <style> elements.
func CollectCSS(doc *Node) string {
	var b strings.Builder
	collectStyleText(doc, &b)
	return b.String()
}

func collectStyleText(n *Node, b *strings.Builder) {
	if n.Type == ElementNode && n.Tag == "style" {
		for _, c := range n.Children {
			if c.Type == TextNode {
				b.WriteString(c.Text)
				b.WriteByte('\n')
			}
		}
		return
	}
	for _, c := range n.Children {
		collectStyleText(c, b)
	}
}
