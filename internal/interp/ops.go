package interp

// Op is a single executable node of a synthetic control-method body.
type Op interface{ opNode() }

// Expr is a value-producing node. Values are uint64 integers, strings, or
// nil (the null object).
type Expr interface{ exprNode() }

// Int is an integer literal.
type Int uint64

// Str is a string literal.
type Str string

// Local reads local variable slot 0..7. Reading an uninitialized slot is
// a hard error under strict execution and auto-initializes to integer
// zero under slack mode.
type Local int

// Arg reads method argument slot 0..6.
type Arg int

// Named reads a namespace object by name.
type Named string

// Add evaluates both operands as integers and sums them.
type Add struct{ A, B Expr }

// LLess compares two integers, yielding 1 when A < B and 0 otherwise.
type LLess struct{ A, B Expr }

// Call invokes another method. Usable both as an expression and as a
// standalone statement.
type Call struct {
	Method string
	Args   []Expr
}

// StoreLocal assigns to a local variable slot.
type StoreLocal struct {
	Src Expr
	Dst int
}

// StoreNamed assigns to an existing namespace object. Under strict
// execution the object must already exist; slack mode tolerates the miss
// and creates it.
type StoreNamed struct {
	Src Expr
	Dst string
}

// CreateNamed creates a named object in the namespace. Its presence in a
// method body is what the auto-serialization scan looks for.
type CreateNamed struct {
	Name string
	Val  Expr
}

// DebugWrite stores to the Debug object. Output reaches the diagnostic
// sink only when the enable_aml_debug_object switch is set.
type DebugWrite struct{ Val Expr }

// While executes Body as long as Pred is non-zero, ticking the loop
// watchdog once per iteration.
type While struct {
	Pred Expr
	Body []Op
}

// If executes Then when Pred is non-zero, Else (if any) otherwise.
type If struct {
	Pred Expr
	Then []Op
	Else []Op
}

// Return exits the method with Val's value; a nil Val returns nothing.
type Return struct{ Val Expr }

// Break exits the innermost While.
type Break struct{}

// Continue restarts the innermost While.
type Continue struct{}

func (Int) exprNode()   {}
func (Str) exprNode()   {}
func (Local) exprNode() {}
func (Arg) exprNode()   {}
func (Named) exprNode() {}
func (Add) exprNode()   {}
func (LLess) exprNode() {}
func (Call) exprNode()  {}

func (Call) opNode()        {}
func (StoreLocal) opNode()  {}
func (StoreNamed) opNode()  {}
func (CreateNamed) opNode() {}
func (DebugWrite) opNode()  {}
func (While) opNode()       {}
func (If) opNode()          {}
func (Return) opNode()      {}
func (Break) opNode()       {}
func (Continue) opNode()    {}

// ReturnKind declares the object type a method is expected to return,
// used by the return-value repair pass.
type ReturnKind int

const (
	// ReturnAny performs no repair.
	ReturnAny ReturnKind = iota
	ReturnInteger
	ReturnString
)
