package expr

// Node is a formula syntax tree node.
//
// This is a sealed interface - only types in this package implement it.
// The marker method prevents external implementations and keeps the type
// switch in the evaluator exhaustive.
type Node interface {
	exprNode() // Marker method - seals interface to this package

	// Pos is the byte offset of the node in the source formula.
	Pos() int
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value  float64
	Offset int
}

// StringLit is a quoted literal, stored unquoted.
type StringLit struct {
	Value  string
	Offset int
}

// BoolLit is true or false.
type BoolLit struct {
	Value  bool
	Offset int
}

// Ident references a bound name or a constant.
type Ident struct {
	Name   string
	Offset int
}

// Unary is a prefix operation: "-", "+" or "!".
type Unary struct {
	Op      string
	Operand Node
	Offset  int
}

// Binary is an infix operation, including the short-circuit "&&" and "||".
type Binary struct {
	Op     string
	Left   Node
	Right  Node
	Offset int
}

// Conditional is cond ? then : else.
type Conditional struct {
	Cond   Node
	Then   Node
	Else   Node
	Offset int
}

// Call invokes a whitelisted built-in function.
type Call struct {
	Func   string
	Args   []Node
	Offset int
}

func (NumberLit) exprNode()   {}
func (StringLit) exprNode()   {}
func (BoolLit) exprNode()     {}
func (Ident) exprNode()       {}
func (Unary) exprNode()       {}
func (Binary) exprNode()      {}
func (Conditional) exprNode() {}
func (Call) exprNode()        {}

func (n NumberLit) Pos() int   { return n.Offset }
func (n StringLit) Pos() int   { return n.Offset }
func (n BoolLit) Pos() int     { return n.Offset }
func (n Ident) Pos() int       { return n.Offset }
func (n Unary) Pos() int       { return n.Offset }
func (n Binary) Pos() int      { return n.Offset }
func (n Conditional) Pos() int { return n.Offset }
func (n Call) Pos() int        { return n.Offset }

// Identifiers returns the names referenced by n in first-occurrence order,
// without duplicates. Function names are not included. Constants (pi, e)
// are included because a bound name may shadow them.
func Identifiers(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Node)
	walk = func(n Node) {
		switch node := n.(type) {
		case Ident:
			if !seen[node.Name] {
				seen[node.Name] = true
				names = append(names, node.Name)
			}
		case Unary:
			walk(node.Operand)
		case Binary:
			walk(node.Left)
			walk(node.Right)
		case Conditional:
			walk(node.Cond)
			walk(node.Then)
			walk(node.Else)
		case Call:
			for _, arg := range node.Args {
				walk(arg)
			}
		}
	}
	if n != nil {
		walk(n)
	}
	return names
}

// IsConstant reports whether name is a built-in constant.
func IsConstant(name string) bool {
	_, ok := constants[name]
	return ok
}
