package interp

// createsNamedObjects reports whether a method body contains any op that
// creates a named object. The scan is purely syntactic and runs exactly
// once per method at load time; conditional creation (inside If or While)
// still counts, because whether the branch is taken cannot be decided
// statically.
func createsNamedObjects(ops []Op) bool {
	for _, op := range ops {
		switch op := op.(type) {
		case CreateNamed:
			return true
		case While:
			if createsNamedObjects(op.Body) {
				return true
			}
		case If:
			if createsNamedObjects(op.Then) || createsNamedObjects(op.Else) {
				return true
			}
		}
	}
	return false
}
