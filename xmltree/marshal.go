package xmltree

import (
	"strings"
	"unicode"
)

// MarshalOptions configures serialization.
type MarshalOptions struct {
	// Indent is repeated once per nesting level. Empty means compact output.
	Indent string
}

// Marshal serializes e and its descendants without any added whitespace.
func Marshal(e *Element) []byte {
	return MarshalWithOptions(e, MarshalOptions{})
}

// MarshalIndent serializes e with one element per line.
func MarshalIndent(e *Element, indent string) []byte {
	return MarshalWithOptions(e, MarshalOptions{Indent: indent})
}

// MarshalWithOptions serializes e. Output is deterministic: the same tree always
// produces the same bytes, and parsing the output yields an equivalent tree.
func MarshalWithOptions(e *Element, opts MarshalOptions) []byte {
	var buf strings.Builder
	if opts.Indent == "" {
		writeCompact(&buf, e)
	} else {
		writeIndented(&buf, e, opts.Indent, 0)
	}
	return []byte(buf.String())
}

// Bytes serializes the document root compactly.
func (d *Document) Bytes() []byte {
	if d.Root == nil {
		return nil
	}
	return Marshal(d.Root)
}

// String serializes the document root compactly.
func (d *Document) String() string {
	return string(d.Bytes())
}

func writeCompact(buf *strings.Builder, e *Element) {
	text := elementText(e)
	writeStart(buf, e)
	if text == "" && len(e.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteString(">")
	buf.WriteString(escapeText(text))
	for _, c := range e.Children {
		writeCompact(buf, c)
	}
	writeEnd(buf, e)
}

func writeIndented(buf *strings.Builder, e *Element, indent string, depth int) {
	prefix := strings.Repeat(indent, depth)
	text := elementText(e)

	buf.WriteString(prefix)
	writeStart(buf, e)

	switch {
	case text == "" && len(e.Children) == 0:
		buf.WriteString("/>\n")
	case len(e.Children) == 0:
		buf.WriteString(">")
		buf.WriteString(escapeText(text))
		writeEnd(buf, e)
		buf.WriteString("\n")
	default:
		buf.WriteString(">")
		buf.WriteString(escapeText(text))
		buf.WriteString("\n")
		for _, c := range e.Children {
			writeIndented(buf, c, indent, depth+1)
		}
		buf.WriteString(prefix)
		writeEnd(buf, e)
		buf.WriteString("\n")
	}
}

// elementText normalizes text the same way Parse does, so a marshal/parse
// cycle is stable.
func elementText(e *Element) string {
	trimmed := strings.TrimSpace(e.Text)
	if trimmed == "" || len(e.Children) > 0 {
		return trimmed
	}
	return e.Text
}

func writeStart(buf *strings.Builder, e *Element) {
	buf.WriteString("<")
	buf.WriteString(e.Name)
	for _, a := range e.Attrs {
		buf.WriteString(" ")
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		buf.WriteString(escapeAttr(a.Value))
		buf.WriteString(`"`)
	}
}

func writeEnd(buf *strings.Builder, e *Element) {
	buf.WriteString("</")
	buf.WriteString(e.Name)
	buf.WriteString(">")
}

func escapeText(s string) string {
	var buf strings.Builder
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '\r':
			buf.WriteString("&#xD;")
		default:
			writeChar(&buf, r)
		}
	}
	return buf.String()
}

func escapeAttr(s string) string {
	var buf strings.Builder
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		case '\n':
			buf.WriteString("&#xA;")
		case '\r':
			buf.WriteString("&#xD;")
		case '\t':
			buf.WriteString("&#x9;")
		default:
			writeChar(&buf, r)
		}
	}
	return buf.String()
}

// writeChar writes r, or U+FFFD when r is outside the XML 1.0 Char production.
func writeChar(buf *strings.Builder, r rune) {
	if !isXMLChar(r) {
		r = unicode.ReplacementChar
	}
	buf.WriteRune(r)
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}
