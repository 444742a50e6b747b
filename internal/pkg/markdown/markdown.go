package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
)

var md = goldmark.New()

// Render converts post content to HTML. Raw HTML in the source is dropped by goldmark's default renderer.
func Render(content string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
