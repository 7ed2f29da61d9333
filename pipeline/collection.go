package pipeline

import (
	"bytes"
	"fmt"
	"io"

	"github.com/openjournals/ojs-pubmed/pubmed"
	"github.com/openjournals/ojs-pubmed/xmltree"
)

// Collection is the aggregate ArticleSet. Articles are moved into it, never
// copied, and it only grows.
type Collection struct {
	root *xmltree.Element
}

// NewCollection returns an empty ArticleSet.
func NewCollection() *Collection {
	return &Collection{root: xmltree.NewElement(pubmed.ElemArticleSet)}
}

// Add parses an enriched article document and appends all of its Article
// elements. It returns how many were added.
func (c *Collection) Add(data []byte) (int, error) {
	doc, err := xmltree.ParseBytes(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	articles := pubmed.Articles(doc)
	for _, a := range articles {
		c.root.AppendChild(a)
	}
	return len(articles), nil
}

// Len returns the number of Articles in the collection.
func (c *Collection) Len() int {
	return len(c.root.Children)
}

// Root returns the ArticleSet element.
func (c *Collection) Root() *xmltree.Element {
	return c.root
}

// Render serializes the collection: XML declaration, DOCTYPE line, then the
// ArticleSet indented by two spaces.
func (c *Collection) Render() []byte {
	var buf bytes.Buffer
	buf.WriteString(pubmed.XMLDeclaration)
	buf.WriteByte('\n')
	buf.WriteString(pubmed.DocType)
	buf.WriteByte('\n')
	buf.Write(xmltree.MarshalIndent(c.root, "  "))
	return buf.Bytes()
}

// WriteTo writes the rendered collection to w.
func (c *Collection) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Render())
	return int64(n), err
}
