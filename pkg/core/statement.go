package core

// Statement is a SQL text with its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}
