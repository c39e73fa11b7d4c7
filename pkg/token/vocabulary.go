package token

import (
	"slices"
	"strconv"
	"strings"

	"github.com/openltablets/dtinfer/pkg/typesys"
)

// ReturnParam is the [Binding.Param] value of return setter chains.
const ReturnParam = -1

// Binding is the target of a vocabulary token: a method parameter, or the
// method result, optionally followed by a chain of members.
type Binding struct {
	Chain []typesys.Member
	Param int
}

// Path renders the binding as a dotted member access on root.
func (b Binding) Path(root string) string {
	parts := make([]string, 0, len(b.Chain)+1)
	parts = append(parts, root)

	for _, m := range b.Chain {
		parts = append(parts, m.Name)
	}

	return strings.Join(parts, ".")
}

// Type returns the type the binding resolves to, given the type of its root.
func (b Binding) Type(root *typesys.Type) *typesys.Type {
	if len(b.Chain) == 0 {
		return root
	}

	return b.Chain[len(b.Chain)-1].Type
}

// Key identifies the binding independently of member metadata.
func (b Binding) Key() string {
	var sb strings.Builder

	sb.WriteString(strconv.Itoa(b.Param))

	for _, m := range b.Chain {
		sb.WriteByte('.')
		sb.WriteString(m.Name)
	}

	return sb.String()
}

func (b Binding) equal(o Binding) bool {
	return b.Param == o.Param && slices.EqualFunc(b.Chain, o.Chain, func(x, y typesys.Member) bool {
		return x.Name == y.Name && x.Type == y.Type
	})
}

// Entry is a vocabulary token with every binding it stands for.
type Entry struct {
	Token    string
	words    []string
	Bindings []Binding
}

// Vocabulary maps tokens to bindings. Entries keep insertion order.
// A Vocabulary must not be modified once it is shared.
type Vocabulary struct {
	index   map[string]int
	entries []Entry
}

// NewVocabulary creates an empty [Vocabulary].
func NewVocabulary() *Vocabulary {
	return &Vocabulary{index: map[string]int{}}
}

// Add tokenizes text and records the binding for it. Text without any word
// is ignored, as are duplicate bindings.
func (v *Vocabulary) Add(text string, b Binding) {
	words := Words(text)
	if len(words) == 0 {
		return
	}

	tok := strings.Join(words, " ")

	i, ok := v.index[tok]
	if !ok {
		v.index[tok] = len(v.entries)
		v.entries = append(v.entries, Entry{Token: tok, words: words, Bindings: []Binding{b}})

		return
	}

	if slices.ContainsFunc(v.entries[i].Bindings, b.equal) {
		return
	}

	v.entries[i].Bindings = append(v.entries[i].Bindings, b)
}

// Lookup returns the entry for an exact token.
func (v *Vocabulary) Lookup(tok string) (Entry, bool) {
	i, ok := v.index[Tokenize(tok)]
	if !ok {
		return Entry{}, false
	}

	return v.entries[i], true
}

// Entries returns the entries in insertion order.
func (v *Vocabulary) Entries() []Entry {
	return slices.Clone(v.entries)
}

// Len returns the number of distinct tokens.
func (v *Vocabulary) Len() int {
	return len(v.entries)
}

// ParamVocabulary builds the vocabulary of the parameters at the given
// indexes. Each parameter contributes its own name, and every readable member
// path up to depth members long contributes two tokens: one prefixed with
// the parameter name ("driver age") and one without it ("age").
func ParamVocabulary(in typesys.Introspector, params []typesys.Param, indexes []int, depth int) *Vocabulary {
	v := NewVocabulary()

	for _, i := range indexes {
		p := params[i]
		v.Add(p.Name, Binding{Param: i})

		walkMembers(in, p.Type, depth, func(m typesys.Member) bool { return m.Readable },
			func(chain []typesys.Member) {
				names := chainNames(chain)
				b := Binding{Param: i, Chain: slices.Clone(chain)}
				v.Add(p.Name+" "+names, b)
				v.Add(names, b)
			})
	}

	return v
}

// SetterVocabulary builds the vocabulary of writable member paths of a
// compound type. Intermediate members must themselves be compound so that
// they can be instantiated while assembling the result.
func SetterVocabulary(in typesys.Introspector, t *typesys.Type, depth int) *Vocabulary {
	v := NewVocabulary()

	walkMembers(in, t, depth,
		func(m typesys.Member) bool {
			return m.Writable && (!m.Type.IsBean() || m.Type.IsCompound())
		},
		func(chain []typesys.Member) {
			last := chain[len(chain)-1]
			if last.Type.IsBean() {
				return
			}

			v.Add(chainNames(chain), Binding{Param: ReturnParam, Chain: slices.Clone(chain)})
		})

	return v
}

// walkMembers visits member chains depth-first in declaration order.
// Types already on the current path are not entered again.
func walkMembers(
	in typesys.Introspector,
	root *typesys.Type,
	depth int,
	accept func(typesys.Member) bool,
	visit func(chain []typesys.Member),
) {
	var (
		chain []typesys.Member
		path  = []*typesys.Type{root}
		walk  func(t *typesys.Type)
	)

	walk = func(t *typesys.Type) {
		if len(chain) >= depth || !t.IsBean() {
			return
		}

		for _, m := range in.Members(t) {
			if !accept(m) || slices.Contains(path, m.Type) {
				continue
			}

			chain = append(chain, m)
			path = append(path, m.Type)

			visit(chain)
			walk(m.Type)

			chain = chain[:len(chain)-1]
			path = path[:len(path)-1]
		}
	}

	walk(root)
}

func chainNames(chain []typesys.Member) string {
	names := make([]string, len(chain))
	for i, m := range chain {
		names[i] = m.Name
	}

	return strings.Join(names, " ")
}
