package matcher

import "bytes"

// ExtractContext returns the text around content[start:end].
//
// before runs from the start of the line lines lines above the match up to
// start; after runs from end to the end of the line lines lines below the
// match, without its newline. With lines == 0 the result is the rest of the
// match's own line on each side. Both are copies, so keeping a snippet does
// not pin content in memory.
func ExtractContext(content []byte, start, end, lines int) (before, after []byte) {
	if start < 0 || end > len(content) || start > end {
		return nil, nil
	}
	if lines < 0 {
		lines = 0
	}

	from := lineStart(content, start)
	for i := 0; i < lines && from > 0; i++ {
		from = lineStart(content, from-1)
	}

	to := lineEnd(content, end)
	for i := 0; i < lines && to < len(content); i++ {
		to = lineEnd(content, to+1)
	}

	if from < start {
		before = append([]byte{}, content[from:start]...)
	}
	if end < to {
		after = append([]byte{}, content[end:to]...)
	}
	return before, after
}

// lineStart returns the offset of the first byte of the line holding pos.
func lineStart(content []byte, pos int) int {
	return bytes.LastIndexByte(content[:pos], '\n') + 1
}

// lineEnd returns the offset of the newline ending the line holding pos,
// or len(content) on the last line.
func lineEnd(content []byte, pos int) int {
	i := bytes.IndexByte(content[pos:], '\n')
	if i < 0 {
		return len(content)
	}
	return pos + i
}
