package compiler

import "github.com/Troppydash/plang-interpreter-sub000/vm"

// ---------------------------------------------------------------------------
// AST: the syntax tree handed over by the parser
// ---------------------------------------------------------------------------

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() vm.Span
	Kind() string // node kind name recorded in debug entries
	node()        // marker method
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// ScopeKind selects how an assignment binds a plain name.
type ScopeKind uint8

const (
	// ScopeNearest updates the nearest binding in the current function,
	// creating a local one if there is none.
	ScopeNearest ScopeKind = iota
	// ScopeLocal always binds in the current scope.
	ScopeLocal
	// ScopeOuter binds past the current function's boundary.
	ScopeOuter
)

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// NumberLit is a number literal.
type NumberLit struct {
	SpanVal vm.Span
	Value   float64
}

// StringLit is a string literal.
type StringLit struct {
	SpanVal vm.Span
	Value   string
}

// BooleanLit is true or false.
type BooleanLit struct {
	SpanVal vm.Span
	Value   bool
}

// NullLit is null.
type NullLit struct {
	SpanVal vm.Span
}

// Variable references a binding by name.
type Variable struct {
	SpanVal vm.Span
	Name    string
}

// ListLit is a list literal [a, b, c].
type ListLit struct {
	SpanVal  vm.Span
	Elements []Expr
}

// DictEntry is one key: value pair of a dict literal.
type DictEntry struct {
	Key   Expr
	Value Expr
}

// DictLit is a dict literal {"k": v}.
type DictLit struct {
	SpanVal vm.Span
	Entries []DictEntry
}

// Binary is a binary operator application. "and" and "or" short-circuit.
type Binary struct {
	SpanVal vm.Span
	Op      string
	Left    Expr
	Right   Expr
}

// Unary is a prefix operator application.
type Unary struct {
	SpanVal vm.Span
	Op      string
	Operand Expr
}

// Assign binds Value to Target, which must be a Variable, Member or Index.
type Assign struct {
	SpanVal vm.Span
	Target  Expr
	Value   Expr
	Scope   ScopeKind
}

// Call applies Callee to Args. A method call has a Member callee.
type Call struct {
	SpanVal vm.Span
	Callee  Expr
	Args    []Expr
}

// Member is obj.name.
type Member struct {
	SpanVal vm.Span
	Object  Expr
	Name    string
}

// Index is obj[key].
type Index struct {
	SpanVal vm.Span
	Object  Expr
	Key     Expr
}

// Param is a function parameter with an optional type guard expression.
type Param struct {
	Name  string
	Guard Expr
}

// Func is a function literal. A named function is also bound to its name.
type Func struct {
	SpanVal vm.Span
	Name    string
	Params  []Param
	Body    *Block
}

func (n *NumberLit) Span() vm.Span  { return n.SpanVal }
func (n *StringLit) Span() vm.Span  { return n.SpanVal }
func (n *BooleanLit) Span() vm.Span { return n.SpanVal }
func (n *NullLit) Span() vm.Span    { return n.SpanVal }
func (n *Variable) Span() vm.Span   { return n.SpanVal }
func (n *ListLit) Span() vm.Span    { return n.SpanVal }
func (n *DictLit) Span() vm.Span    { return n.SpanVal }
func (n *Binary) Span() vm.Span     { return n.SpanVal }
func (n *Unary) Span() vm.Span      { return n.SpanVal }
func (n *Assign) Span() vm.Span     { return n.SpanVal }
func (n *Call) Span() vm.Span       { return n.SpanVal }
func (n *Member) Span() vm.Span     { return n.SpanVal }
func (n *Index) Span() vm.Span      { return n.SpanVal }
func (n *Func) Span() vm.Span       { return n.SpanVal }

func (n *NumberLit) Kind() string  { return "Number" }
func (n *StringLit) Kind() string  { return "String" }
func (n *BooleanLit) Kind() string { return "Boolean" }
func (n *NullLit) Kind() string    { return "Null" }
func (n *Variable) Kind() string   { return "Variable" }
func (n *ListLit) Kind() string    { return "List" }
func (n *DictLit) Kind() string    { return "Dict" }
func (n *Binary) Kind() string     { return "Binary" }
func (n *Unary) Kind() string      { return "Unary" }
func (n *Assign) Kind() string     { return "Assign" }
func (n *Call) Kind() string       { return "Call" }
func (n *Member) Kind() string     { return "Member" }
func (n *Index) Kind() string      { return "Index" }
func (n *Func) Kind() string       { return "Func" }

func (n *NumberLit) node()  {}
func (n *StringLit) node()  {}
func (n *BooleanLit) node() {}
func (n *NullLit) node()    {}
func (n *Variable) node()   {}
func (n *ListLit) node()    {}
func (n *DictLit) node()    {}
func (n *Binary) node()     {}
func (n *Unary) node()      {}
func (n *Assign) node()     {}
func (n *Call) node()       {}
func (n *Member) node()     {}
func (n *Index) node()      {}
func (n *Func) node()       {}

func (n *NumberLit) expr()  {}
func (n *StringLit) expr()  {}
func (n *BooleanLit) expr() {}
func (n *NullLit) expr()    {}
func (n *Variable) expr()   {}
func (n *ListLit) expr()    {}
func (n *DictLit) expr()    {}
func (n *Binary) expr()     {}
func (n *Unary) expr()      {}
func (n *Assign) expr()     {}
func (n *Call) expr()       {}
func (n *Member) expr()     {}
func (n *Index) expr()      {}
func (n *Func) expr()       {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// ExprStmt evaluates an expression and discards its value.
type ExprStmt struct {
	SpanVal vm.Span
	X       Expr
}

// Block is a braced statement list with its own scope.
type Block struct {
	SpanVal vm.Span
	Stmts   []Stmt
}

// IfBranch is one if/elif arm.
type IfBranch struct {
	Cond Expr
	Body *Block
}

// If is an if/elif/else chain. Else may be nil.
type If struct {
	SpanVal  vm.Span
	Branches []IfBranch
	Else     *Block
}

// While loops while Cond holds.
type While struct {
	SpanVal vm.Span
	Cond    Expr
	Body    *Block
}

// For is for init; cond; step {}. Any of the three may be nil; a nil
// condition loops until a break.
type For struct {
	SpanVal vm.Span
	Init    Stmt
	Cond    Expr
	Step    Stmt
	Body    *Block
}

// Loop runs Body Count times.
type Loop struct {
	SpanVal vm.Span
	Count   Expr
	Body    *Block
}

// Each binds Name to every element produced by Iterable's iterator.
type Each struct {
	SpanVal  vm.Span
	Name     string
	Iterable Expr
	Body     *Block
}

// MatchCase runs Body when the subject equals any of Values.
type MatchCase struct {
	Values []Expr
	Body   *Block
}

// Match compares Subject against each case in order. Else may be nil.
type Match struct {
	SpanVal vm.Span
	Subject Expr
	Cases   []MatchCase
	Else    *Block
}

// Impl defines Method for values of type TypeName. The receiver is
// bound to the implicit first parameter self.
type Impl struct {
	SpanVal  vm.Span
	Method   string
	TypeName string
	Params   []Param
	Body     *Block
}

// TypeDef declares a record type.
type TypeDef struct {
	SpanVal vm.Span
	Name    string
	Fields  []string
}

// Return leaves the current function. Value may be nil.
type Return struct {
	SpanVal vm.Span
	Value   Expr
}

// Break leaves the innermost loop.
type Break struct {
	SpanVal vm.Span
}

// Continue skips to the next iteration of the innermost loop.
type Continue struct {
	SpanVal vm.Span
}

// Import brings Names from the module at Path into scope.
type Import struct {
	SpanVal vm.Span
	Path    string
	Names   []string
}

// Export publishes Names from the current module.
type Export struct {
	SpanVal vm.Span
	Names   []string
}

func (n *ExprStmt) Span() vm.Span { return n.SpanVal }
func (n *Block) Span() vm.Span    { return n.SpanVal }
func (n *If) Span() vm.Span       { return n.SpanVal }
func (n *While) Span() vm.Span    { return n.SpanVal }
func (n *For) Span() vm.Span      { return n.SpanVal }
func (n *Loop) Span() vm.Span     { return n.SpanVal }
func (n *Each) Span() vm.Span     { return n.SpanVal }
func (n *Match) Span() vm.Span    { return n.SpanVal }
func (n *Impl) Span() vm.Span     { return n.SpanVal }
func (n *TypeDef) Span() vm.Span  { return n.SpanVal }
func (n *Return) Span() vm.Span   { return n.SpanVal }
func (n *Break) Span() vm.Span    { return n.SpanVal }
func (n *Continue) Span() vm.Span { return n.SpanVal }
func (n *Import) Span() vm.Span   { return n.SpanVal }
func (n *Export) Span() vm.Span   { return n.SpanVal }

func (n *ExprStmt) Kind() string { return "ExprStmt" }
func (n *Block) Kind() string    { return "Block" }
func (n *If) Kind() string       { return "If" }
func (n *While) Kind() string    { return "While" }
func (n *For) Kind() string      { return "For" }
func (n *Loop) Kind() string     { return "Loop" }
func (n *Each) Kind() string     { return "Each" }
func (n *Match) Kind() string    { return "Match" }
func (n *Impl) Kind() string     { return "Impl" }
func (n *TypeDef) Kind() string  { return "TypeDef" }
func (n *Return) Kind() string   { return "Return" }
func (n *Break) Kind() string    { return "Break" }
func (n *Continue) Kind() string { return "Continue" }
func (n *Import) Kind() string   { return "Import" }
func (n *Export) Kind() string   { return "Export" }

func (n *ExprStmt) node() {}
func (n *Block) node()    {}
func (n *If) node()       {}
func (n *While) node()    {}
func (n *For) node()      {}
func (n *Loop) node()     {}
func (n *Each) node()     {}
func (n *Match) node()    {}
func (n *Impl) node()     {}
func (n *TypeDef) node()  {}
func (n *Return) node()   {}
func (n *Break) node()    {}
func (n *Continue) node() {}
func (n *Import) node()   {}
func (n *Export) node()   {}

func (n *ExprStmt) stmt() {}
func (n *Block) stmt()    {}
func (n *If) stmt()       {}
func (n *While) stmt()    {}
func (n *For) stmt()      {}
func (n *Loop) stmt()     {}
func (n *Each) stmt()     {}
func (n *Match) stmt()    {}
func (n *Impl) stmt()     {}
func (n *TypeDef) stmt()  {}
func (n *Return) stmt()   {}
func (n *Break) stmt()    {}
func (n *Continue) stmt() {}
func (n *Import) stmt()   {}
func (n *Export) stmt()   {}

// Linker resolves module imports and exports into ordinary statements
// compiled in place.
type Linker interface {
	Import(imp *Import) ([]Stmt, error)
	Export(exp *Export) ([]Stmt, error)
}
