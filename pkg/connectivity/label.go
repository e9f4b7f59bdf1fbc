package connectivity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// MaxVectorWidth bounds the number of members a single vector may declare.
const MaxVectorWidth = 1024

// labelLexer splits bus notation. Range bounds are only lexed between
// brackets so that digits and dots stay part of ordinary names.
var labelLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Sep", Pattern: `[\s,]+`},
		{Name: "LBrace", Pattern: `\{`},
		{Name: "RBrace", Pattern: `\}`},
		{Name: "LBracket", Pattern: `\[`, Action: lexer.Push("Range")},
		// Text markup (~{overbar}, ^{super}, _{sub}) belongs to the name.
		{Name: "Name", Pattern: `(?:[~^_]\{[^{}]*\}|[^\s,\[\]{}])+`},
	},
	"Range": {
		{Name: "Int", Pattern: `[0-9]+`},
		{Name: "Dots", Pattern: `\.\.`},
		{Name: "RBracket", Pattern: `\]`, Action: lexer.Pop()},
	},
})

type labelAST struct {
	Group  *groupAST  `  @@`
	Vector *vectorAST `| @@`
	Plain  *string    `| @Name`
}

type vectorAST struct {
	Prefix string  `@Name "["`
	Start  int     `@Int ".."`
	End    int     `@Int "]"`
	Suffix *string `@Name?`
}

type groupAST struct {
	Prefix  *string      `@Name? "{"`
	Members []*memberAST `@@ ( Sep @@ )* "}"`
}

type memberAST struct {
	Vector *vectorAST `  @@`
	Name   *string    `| @Name`
}

var labelParser = participle.MustBuild[labelAST](
	participle.Lexer(labelLexer),
	participle.UseLookahead(4),
)

var (
	openBraceSep  = regexp.MustCompile(`\{[\s,]+`)
	closeBraceSep = regexp.MustCompile(`[\s,]+\}`)
)

// Label is the symbolic description of a label string.
type Label struct {
	Kind Kind
	// Text is the canonical spelling (as FormatLabel renders it).
	Text string
	// Name is the qualified name. Inside a prefixed group, members are
	// named PREFIX.MEMBER.
	Name   string
	Prefix string
	Suffix string
	Start  int
	End    int
	// Index is the vector position for vector members, -1 otherwise.
	Index   int
	Members []Label

	Malformed bool
	Problem   string
}

// NetLabel describes a plain net name.
func NetLabel(name string) Label {
	return Label{Kind: KindNet, Text: name, Name: name, Index: -1}
}

// VectorLabel describes PREFIX[start..end]SUFFIX. Members are listed in
// declaration order, so descending ranges produce descending indices.
// Callers bound the range; ParseLabel rejects anything wider than
// MaxVectorWidth.
func VectorLabel(prefix string, start, end int, suffix string) Label {
	l := Label{
		Kind:   KindBusVector,
		Prefix: prefix,
		Suffix: suffix,
		Start:  start,
		End:    end,
		Index:  -1,
	}
	l.Text = FormatLabel(l)
	l.Name = l.Text

	step := 1
	if end < start {
		step = -1
	}
	size := MaxVectorWidth
	if span := vectorSpan(start, end); span < MaxVectorWidth {
		size = int(span) + 1
	}
	l.Members = make([]Label, 0, size)
	for i := start; ; i += step {
		m := NetLabel(prefix + strconv.Itoa(i) + suffix)
		m.Index = i
		l.Members = append(l.Members, m)
		if i == end {
			break
		}
	}
	return l
}

// GroupLabel describes PREFIX{M1 M2 ...}. Members are given unqualified;
// they are renamed PREFIX.MEMBER when prefix is not empty.
func GroupLabel(prefix string, members ...Label) Label {
	l := Label{
		Kind:    KindBusGroup,
		Prefix:  prefix,
		Index:   -1,
		Members: make([]Label, len(members)),
	}
	for i, m := range members {
		l.Members[i] = m.qualified(prefix)
	}
	l.Text = FormatLabel(l)
	l.Name = l.Text
	return l
}

func malformedLabel(text string, problem string) Label {
	l := NetLabel(text)
	l.Malformed = true
	l.Problem = problem
	return l
}

func (l Label) qualified(prefix string) Label {
	if prefix == "" {
		return l
	}
	l.Name = prefix + "." + l.Text
	if len(l.Members) > 0 {
		members := make([]Label, len(l.Members))
		for i, m := range l.Members {
			m.Name = prefix + "." + m.Text
			members[i] = m
		}
		l.Members = members
	}
	return l
}

// IsBus reports whether the label declares a vector or a group.
func (l Label) IsBus() bool {
	return l.Kind == KindBusVector || l.Kind == KindBusGroup
}

// Width is the number of nets the label resolves to.
func (l Label) Width() int {
	switch l.Kind {
	case KindNet:
		return 1
	case KindBusVector, KindBusGroup:
		return len(l.AllMembers())
	}
	return 0
}

// AllMembers flattens nested vectors into their nets.
func (l Label) AllMembers() []Label {
	var out []Label
	for _, m := range l.Members {
		if m.Kind == KindBusVector {
			out = append(out, m.Members...)
			continue
		}
		out = append(out, m)
	}
	return out
}

// MightBeBusLabel is a cheap syntactic precheck used to skip the grammar for
// ordinary net names.
func MightBeBusLabel(text string) bool {
	return strings.ContainsAny(text, "[{")
}

// IsBusLabel runs the full grammar.
func IsBusLabel(text string) bool {
	if !MightBeBusLabel(text) {
		return false
	}
	return ParseLabel(text).IsBus()
}

// ParseLabel never fails: text that looks like bus notation but does not
// follow the grammar is returned as a Malformed net label named by the
// literal text.
func ParseLabel(text string) Label {
	if !MightBeBusLabel(text) {
		return NetLabel(text)
	}

	src := strings.TrimSpace(text)
	src = openBraceSep.ReplaceAllString(src, "{")
	src = closeBraceSep.ReplaceAllString(src, "}")

	ast, err := labelParser.ParseString("", src)
	if err != nil {
		return malformedLabel(text, err.Error())
	}

	switch {
	case ast.Group != nil:
		return buildGroup(text, ast.Group)
	case ast.Vector != nil:
		l, problem := buildVector(ast.Vector)
		if problem != "" {
			return malformedLabel(text, problem)
		}
		return l
	default:
		// Markup such as ~{RESET} parses as a single name.
		return NetLabel(text)
	}
}

func buildVector(v *vectorAST) (Label, string) {
	if vectorSpan(v.Start, v.End) >= MaxVectorWidth {
		return Label{}, fmt.Sprintf("vector %s is wider than %d members", v.Prefix, MaxVectorWidth)
	}
	suffix := ""
	if v.Suffix != nil {
		suffix = *v.Suffix
	}
	return VectorLabel(v.Prefix, v.Start, v.End, suffix), ""
}

func buildGroup(text string, g *groupAST) Label {
	prefix := ""
	if g.Prefix != nil {
		prefix = *g.Prefix
	}
	members := make([]Label, 0, len(g.Members))
	for _, m := range g.Members {
		if m.Vector != nil {
			v, problem := buildVector(m.Vector)
			if problem != "" {
				return malformedLabel(text, problem)
			}
			members = append(members, v)
			continue
		}
		members = append(members, NetLabel(*m.Name))
	}
	return GroupLabel(prefix, members...)
}

// FormatLabel renders the canonical text of a label.
func FormatLabel(l Label) string {
	switch l.Kind {
	case KindBusVector:
		return l.Prefix + "[" + strconv.Itoa(l.Start) + ".." + strconv.Itoa(l.End) + "]" + l.Suffix
	case KindBusGroup:
		parts := make([]string, len(l.Members))
		for i, m := range l.Members {
			parts[i] = FormatLabel(m)
		}
		return l.Prefix + "{" + strings.Join(parts, " ") + "}"
	default:
		return l.Text
	}
}

// expandAliases replaces alias references with the alias members. A net
// label that names an alias becomes a group; a group member that names an
// alias is spliced in place.
func expandAliases(l Label, aliases map[string][]string) Label {
	if len(aliases) == 0 || l.Malformed {
		return l
	}
	switch l.Kind {
	case KindNet:
		if members, ok := aliases[l.Text]; ok {
			g := GroupLabel("", aliasMembers(members)...)
			g.Text = l.Text
			g.Name = l.Name
			return g
		}
	case KindBusGroup:
		expanded := make([]Label, 0, len(l.Members))
		changed := false
		for _, m := range l.Members {
			if m.Kind == KindNet {
				if members, ok := aliases[m.Text]; ok {
					expanded = append(expanded, aliasMembers(members)...)
					changed = true
					continue
				}
			}
			expanded = append(expanded, unqualified(m))
		}
		if changed {
			g := GroupLabel(l.Prefix, expanded...)
			g.Text = l.Text
			g.Name = l.Name
			return g
		}
	}
	return l
}

func aliasMembers(members []string) []Label {
	out := make([]Label, 0, len(members))
	for _, text := range members {
		m := ParseLabel(text)
		if m.Kind == KindBusGroup {
			// Aliases do not nest groups; keep the literal text.
			m = NetLabel(text)
		}
		out = append(out, m)
	}
	return out
}

func unqualified(m Label) Label {
	m.Name = m.Text
	if len(m.Members) > 0 {
		members := make([]Label, len(m.Members))
		for i, mm := range m.Members {
			mm.Name = mm.Text
			members[i] = mm
		}
		m.Members = members
	}
	return m
}

// vectorSpan is the distance between the bounds, one less than the width.
// It is computed unsigned so extreme bounds cannot wrap.
func vectorSpan(start, end int) uint64 {
	if end >= start {
		return uint64(end) - uint64(start)
	}
	return uint64(start) - uint64(end)
}
