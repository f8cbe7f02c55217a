package search

// Conjunction joins the children of a boolean group.
type Conjunction string

const (
	And Conjunction = "and"
	Or  Conjunction = "or"
	Not Conjunction = "not"
)

// Operator compares a field against a value in a filter condition.
type Operator string

const (
	OpEquals Operator = "="
	OpRange  Operator = "range"
)

// FilterNode is one node of a boolean filter tree: either a group
// (Conjunction plus ordered Children) or a condition (Field, Operator,
// Value). Child order is preserved through compilation.
type FilterNode struct {
	Conjunction Conjunction
	Children    []*FilterNode

	Field    string
	Operator Operator
	Value    string
}

// NewGroup builds a group node.
func NewGroup(conj Conjunction, children ...*FilterNode) *FilterNode {
	return &FilterNode{Conjunction: conj, Children: children}
}

// NewCondition builds a condition node.
func NewCondition(field string, op Operator, value string) *FilterNode {
	return &FilterNode{Field: field, Operator: op, Value: value}
}

// IsCondition reports whether the node is a field/value condition.
func (n *FilterNode) IsCondition() bool {
	return n != nil && n.Field != ""
}

// Empty reports whether the node contributes nothing to a compiled
// expression.
func (n *FilterNode) Empty() bool {
	return n == nil || (!n.IsCondition() && len(n.Children) == 0)
}

// Normalize returns an equivalent tree with redundant nesting removed:
// a child group is spliced into its parent when both share the same
// conjunction. Negating conjunctions never merge, and group boundaries
// between differing conjunctions are preserved exactly. The receiver is
// not modified.
func (n *FilterNode) Normalize() *FilterNode {
	if n == nil || n.IsCondition() {
		return n
	}

	out := &FilterNode{Conjunction: n.Conjunction}
	for _, child := range n.Children {
		child = child.Normalize()
		if child.Empty() {
			continue
		}
		if !child.IsCondition() && child.Conjunction == n.Conjunction && n.Conjunction != Not {
			out.Children = append(out.Children, child.Children...)
			continue
		}
		out.Children = append(out.Children, child)
	}
	return out
}
