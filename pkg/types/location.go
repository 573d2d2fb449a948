package types

// OffsetSpan is a byte range [Start, End) within scanned content.
type OffsetSpan struct {
	Start int64
	End   int64
}

// SourcePoint is a 1-based line:column position.
type SourcePoint struct {
	Line   int
	Column int
}

// SourceSpan is a start-end line:column range.
type SourceSpan struct {
	Start SourcePoint
	End   SourcePoint
}

// Location places an annotation inside a blob by bytes and by line:column.
type Location struct {
	Offset OffsetSpan
	Source SourceSpan
}

// ComputeLocation builds a Location for content[start:end].
// The end point is the column just past the last byte.
func ComputeLocation(content []byte, start, end int) Location {
	startLine, startCol := ComputeLineColumn(content, start)
	endLine, endCol := ComputeLineColumn(content, end)
	return Location{
		Offset: OffsetSpan{Start: int64(start), End: int64(end)},
		Source: SourceSpan{
			Start: SourcePoint{Line: startLine, Column: startCol},
			End:   SourcePoint{Line: endLine, Column: endCol},
		},
	}
}
