package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrNoRoot is returned when the input contains no element at all.
var ErrNoRoot = errors.New("no root element")

// ParseBytes parses an XML document held in memory.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// ParseString parses an XML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads a single XML document. The XML declaration, DOCTYPE, comments and
// processing instructions are skipped. Namespace prefixes are kept verbatim in
// element and attribute names. Whitespace-only text is dropped, and the text of
// elements that also hold child elements is trimmed.
func Parse(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = true
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		root  *Element
		stack []*Element
		text  []*strings.Builder
	)

	for {
		tok, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("parsing XML: unexpected second root element <%s>", qualifiedName(t.Name))
			}
			el := &Element{Name: qualifiedName(t.Name)}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: qualifiedName(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				root = el
			} else {
				stack[len(stack)-1].AppendChild(el)
			}
			stack = append(stack, el)
			text = append(text, &strings.Builder{})

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parsing XML: unexpected end element </%s>", qualifiedName(t.Name))
			}
			el := stack[len(stack)-1]
			if name := qualifiedName(t.Name); name != el.Name {
				return nil, fmt.Errorf("parsing XML: element <%s> closed by </%s>", el.Name, name)
			}
			el.Text = finishText(text[len(text)-1].String(), len(el.Children) > 0)
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]

		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("parsing XML: unexpected EOF inside <%s>", stack[len(stack)-1].Name)
	}
	if root == nil {
		return nil, ErrNoRoot
	}

	return &Document{Root: root}, nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func finishText(s string, hasChildren bool) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || hasChildren {
		return trimmed
	}
	return s
}
