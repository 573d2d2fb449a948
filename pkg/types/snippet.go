package types

// Snippet holds the annotation line with surrounding context.
type Snippet struct {
	Before   []byte // lines before the annotation line
	Matching []byte // the qualified name as found in content
	After    []byte // rest of the annotation line and following lines
}
