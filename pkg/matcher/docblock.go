package matcher

import "bytes"

var (
	docOpen  = []byte("/**")
	docEmpty = []byte("/**/")
	docClose = []byte("*/")
)

// annotationLine is the text of a docblock line after its '@' marker.
type annotationLine struct {
	text   string
	offset int // byte offset of text within the scanned content
}

// docblockLines returns every '@' line of every /** ... */ block in content.
// A block may open and close on the same line.
func docblockLines(content []byte) []annotationLine {
	var out []annotationLine
	inDoc := false

	for pos := 0; pos < len(content); {
		end := bytes.IndexByte(content[pos:], '\n')
		if end < 0 {
			end = len(content)
		} else {
			end += pos
		}
		line := content[pos:end]
		lineStart := pos
		pos = end + 1

		body, bodyStart := line, 0
		if !inDoc {
			open := bytes.Index(line, docOpen)
			if open < 0 || bytes.HasPrefix(line[open:], docEmpty) {
				continue
			}
			inDoc = true
			bodyStart = open + len(docOpen)
			body = line[bodyStart:]
		}
		if i := bytes.Index(body, docClose); i >= 0 {
			body = body[:i]
			inDoc = false
		}

		if text, off, ok := annotationText(body); ok {
			out = append(out, annotationLine{text: text, offset: lineStart + bodyStart + off})
		}
	}

	return out
}

// annotationText strips the docblock gutter and the '@' marker from body.
// It returns the remaining text and its offset within body.
func annotationText(body []byte) (string, int, bool) {
	i := skipBlank(body, 0)
	if i < len(body) && body[i] == '*' {
		i = skipBlank(body, i+1)
	}
	if i >= len(body) || body[i] != '@' {
		return "", 0, false
	}
	i++

	return string(bytes.TrimRight(body[i:], "\r")), i, true
}

func skipBlank(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return i
}
