// Package xmltree provides a small ordered XML element tree with parent links.
//
// It covers exactly what PubMed article records need: named elements, ordered
// attributes, text content and child elements. Every element knows its owning
// parent, so editors can insert siblings without scanning the whole document.
//
//	doc, err := xmltree.ParseBytes(data)
//	title := doc.Find("VernacularTitle")
//	title.InsertAfter(xmltree.NewText("ArticleTitle", "Evaluation of X"))
//	out := doc.Bytes()
package xmltree

// Attr is a single attribute. Names keep their namespace prefix (e.g. "xml:lang").
type Attr struct {
	Name  string
	Value string
}

// Element is a tagged node owning an ordered list of child elements.
type Element struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Element

	parent *Element
}

// Document is a parsed XML document. Only the root element is retained.
type Document struct {
	Root *Element
}

// NewElement creates a detached element.
func NewElement(name string, attrs ...Attr) *Element {
	return &Element{Name: name, Attrs: attrs}
}

// NewText creates a detached element holding text.
func NewText(name, text string, attrs ...Attr) *Element {
	return &Element{Name: name, Attrs: attrs, Text: text}
}

// Parent returns the owning element, or nil for a root or detached element.
func (e *Element) Parent() *Element {
	return e.parent
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets an attribute, replacing an existing value in place.
func (e *Element) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// Child returns the first direct child with the given name.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the direct children with the given name.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the first descendant (document order, excluding e) with the given name.
func (e *Element) Find(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant (document order, excluding e) with the given name.
func (e *Element) FindAll(name string) []*Element {
	var out []*Element
	e.walk(func(n *Element) {
		if n != e && n.Name == name {
			out = append(out, n)
		}
	})
	return out
}

// Ancestor returns the nearest ancestor with the given name.
func (e *Element) Ancestor(name string) *Element {
	for p := e.parent; p != nil; p = p.parent {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Index returns the position of e among its parent's children, or -1.
func (e *Element) Index() int {
	if e.parent == nil {
		return -1
	}
	for i, c := range e.parent.Children {
		if c == e {
			return i
		}
	}
	return -1
}

// AppendChild adds c as the last child of e, detaching it from any previous parent.
func (e *Element) AppendChild(c *Element) {
	c.Detach()
	c.parent = e
	e.Children = append(e.Children, c)
}

// InsertChildAt inserts c at position i. Out-of-range positions are clamped.
func (e *Element) InsertChildAt(i int, c *Element) {
	c.Detach()
	if i < 0 {
		i = 0
	}
	if i > len(e.Children) {
		i = len(e.Children)
	}
	c.parent = e
	e.Children = append(e.Children, nil)
	copy(e.Children[i+1:], e.Children[i:])
	e.Children[i] = c
}

// InsertAfter inserts n as the next sibling of e. It reports false when e has no parent.
func (e *Element) InsertAfter(n *Element) bool {
	i := e.Index()
	if i < 0 {
		return false
	}
	e.parent.InsertChildAt(i+1, n)
	return true
}

// InsertBefore inserts n as the previous sibling of e. It reports false when e has no parent.
func (e *Element) InsertBefore(n *Element) bool {
	i := e.Index()
	if i < 0 {
		return false
	}
	e.parent.InsertChildAt(i, n)
	return true
}

// RemoveChild removes c from e's children.
func (e *Element) RemoveChild(c *Element) bool {
	for i, child := range e.Children {
		if child == c {
			e.Children = append(e.Children[:i], e.Children[i+1:]...)
			c.parent = nil
			return true
		}
	}
	return false
}

// Detach removes e from its parent, if any.
func (e *Element) Detach() {
	if e.parent != nil {
		e.parent.RemoveChild(e)
	}
}

// SetChildren replaces all children of e. Previous children not present in
// children are detached.
func (e *Element) SetChildren(children []*Element) {
	for _, c := range e.Children {
		c.parent = nil
	}
	e.Children = make([]*Element, 0, len(children))
	for _, c := range children {
		if c.parent != nil {
			c.parent.RemoveChild(c)
		}
		c.parent = e
		e.Children = append(e.Children, c)
	}
}

// Copy returns a deep, detached copy of e.
func (e *Element) Copy() *Element {
	cp := &Element{Name: e.Name, Text: e.Text}
	if len(e.Attrs) > 0 {
		cp.Attrs = append([]Attr(nil), e.Attrs...)
	}
	for _, c := range e.Children {
		cp.AppendChild(c.Copy())
	}
	return cp
}

func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.Children {
		c.walk(fn)
	}
}

// Find returns the first element with the given name, including the root.
func (d *Document) Find(name string) *Element {
	if d.Root == nil {
		return nil
	}
	if d.Root.Name == name {
		return d.Root
	}
	return d.Root.Find(name)
}

// FindAll returns every element with the given name, including the root.
func (d *Document) FindAll(name string) []*Element {
	if d.Root == nil {
		return nil
	}
	var out []*Element
	d.Root.walk(func(n *Element) {
		if n.Name == name {
			out = append(out, n)
		}
	})
	return out
}
