package types

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types.
const (
	// Literals
	NodeNumber  NodeType = "number"  // 42, 0x2a, 3.5, 1e-3
	NodeString  NodeType = "string"  // "L", 'F'
	NodeBoolean NodeType = "boolean" // True, False
	NodeNone    NodeType = "none"    // None

	// References
	NodeName NodeType = "name" // identifier resolved against the namespace

	// Operators
	NodeUnary   NodeType = "unary"   // -x, +x, ~x
	NodeBinary  NodeType = "binary"  // + - * / // % ** << >> & | ^
	NodeCompare NodeType = "compare" // a < b <= c (chained)
	NodeLogical NodeType = "logical" // and, or
	NodeNot     NodeType = "not"     // not x

	// Control flow
	NodeCondition NodeType = "condition" // a if cond else b

	// Functions
	NodeCall   NodeType = "call"   // f(x, y)
	NodeLambda NodeType = "lambda" // lambda a, b: expr
)

// ASTNode represents a node in the Abstract Syntax Tree.
type ASTNode struct {
	Type     NodeType
	Value    any     // operator symbol, identifier, or literal value
	StrValue string  // set for NodeString and NodeName
	NumValue float64 // set for NodeNumber
	IntValue int64   // set for integer NodeNumber
	IsInt    bool    // NodeNumber literal had no fraction or exponent
	Position int

	// Relations
	LHS       *ASTNode   // operand, callee, condition body, lambda body
	RHS       *ASTNode   // right operand, condition test
	Else      *ASTNode   // condition alternative
	Arguments []*ASTNode // call arguments, chained comparison operands

	// Attributes
	Ops    []string // chained comparison operators, len(Arguments)-1
	Params []string // lambda parameter names
}

// NewASTNode creates a new AST node of the specified type.
// Prefer NodeArena.Alloc when parsing to reduce per-node heap allocations.
func NewASTNode(nodeType NodeType, position int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
	}
}

// arenaChunkSize is the number of ASTNode values pre-allocated per arena chunk.
const arenaChunkSize = 32

// NodeArena is a bump-pointer allocator for ASTNode values.
//
// The arena pre-allocates fixed-size chunks of ASTNode structs and returns
// pointers into them, so a typical expression costs a single allocation.
// The arena stays reachable through the nodes it handed out; it is released
// together with the Expression that owns the tree.
//
// NodeArena is NOT thread-safe. Each parser owns its own arena.
type NodeArena struct {
	chunks [][]ASTNode
	pos    int
}

// NewNodeArena allocates an arena pre-warmed with one initial chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{
		chunks: [][]ASTNode{make([]ASTNode, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued ASTNode inside the arena,
// with Type and Position set.
func (a *NodeArena) Alloc(nodeType NodeType, position int) *ASTNode {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]ASTNode, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = nodeType
	n.Position = position
	return n
}

// Walk calls fn for n and each of its descendants in depth-first order.
// Returning false from fn skips the node's children.
func Walk(n *ASTNode, fn func(*ASTNode) bool) {
	if n == nil || !fn(n) {
		return
	}
	Walk(n.LHS, fn)
	Walk(n.RHS, fn)
	Walk(n.Else, fn)
	for _, arg := range n.Arguments {
		Walk(arg, fn)
	}
}

// String returns a string representation of the node type.
func (n *ASTNode) String() string {
	return string(n.Type)
}
