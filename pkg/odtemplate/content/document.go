package content

import (
	"bytes"
	"fmt"
	"io"

	"github.com/beevik/etree"
)

// OpenDocument namespace URIs used by the template handlers.
const (
	NSOffice = "urn:oasis:names:tc:opendocument:xmlns:office:1.0"
	NSStyle  = "urn:oasis:names:tc:opendocument:xmlns:style:1.0"
	NSText   = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"
	NSTable  = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
)

var defaultPrefixes = map[string]string{
	NSOffice: "office",
	NSStyle:  "style",
	NSText:   "text",
	NSTable:  "table",
}

// Document is a parsed content.xml. It is not safe for concurrent use; the
// pipeline hands it to one handler at a time.
type Document struct {
	tree     *etree.Document
	prefixes map[string]string // namespace URI -> prefix

	styles *etree.Element
	decls  *etree.Element

	styleIndex map[styleKey]*etree.Element
	declIndex  map[string]*etree.Element
}

// Parse reads a content.xml part and builds the style and field indices.
func Parse(r io.Reader) (*Document, error) {
	tree := etree.NewDocument()
	if _, err := tree.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	return newDocument(tree)
}

// ParseBytes is Parse for an in-memory part.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

func newDocument(tree *etree.Document) (*Document, error) {
	root := tree.Root()
	if root == nil {
		return nil, fmt.Errorf("failed to parse content: no root element")
	}

	d := &Document{
		tree:       tree,
		prefixes:   make(map[string]string, len(defaultPrefixes)),
		styleIndex: make(map[styleKey]*etree.Element),
		declIndex:  make(map[string]*etree.Element),
	}
	for uri, prefix := range defaultPrefixes {
		d.prefixes[uri] = prefix
	}
	for _, attr := range root.Attr {
		if attr.Space != "xmlns" {
			continue
		}
		if _, known := defaultPrefixes[attr.Value]; known {
			d.prefixes[attr.Value] = attr.Key
		}
	}

	if !d.is(root, NSOffice, "document-content") {
		return nil, fmt.Errorf("failed to parse content: unexpected root element %s", root.FullTag())
	}

	d.styles = d.child(root, NSOffice, "automatic-styles")
	if err := d.indexStyles(); err != nil {
		return nil, err
	}

	d.decls = d.find(root, NSText, "user-field-decls")
	if err := d.indexFieldDecls(); err != nil {
		return nil, err
	}

	return d, nil
}

// Root returns the office:document-content element.
func (d *Document) Root() *etree.Element {
	return d.tree.Root()
}

// Key returns the qualified name for local in namespace uri, using the
// prefix this document binds to it.
func (d *Document) Key(uri, local string) string {
	return d.prefixes[uri] + ":" + local
}

// Prefix returns the prefix bound to uri.
func (d *Document) Prefix(uri string) string {
	return d.prefixes[uri]
}

// Attr returns the value of the attribute uri:local on el, or "".
func (d *Document) Attr(el *etree.Element, uri, local string) string {
	return el.SelectAttrValue(d.Key(uri, local), "")
}

// SetAttr creates or replaces the attribute uri:local on el.
func (d *Document) SetAttr(el *etree.Element, uri, local, value string) {
	el.CreateAttr(d.Key(uri, local), value)
}

// WriteTo serializes the document.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return d.tree.WriteTo(w)
}

// Bytes serializes the document into memory.
func (d *Document) Bytes() ([]byte, error) {
	return d.tree.WriteToBytes()
}

func (d *Document) is(el *etree.Element, uri, local string) bool {
	return el != nil && el.Space == d.prefixes[uri] && el.Tag == local
}

func (d *Document) child(parent *etree.Element, uri, local string) *etree.Element {
	for _, c := range parent.ChildElements() {
		if d.is(c, uri, local) {
			return c
		}
	}
	return nil
}

// find returns the first descendant of parent matching uri:local in document
// order.
func (d *Document) find(parent *etree.Element, uri, local string) *etree.Element {
	var found *etree.Element
	walk(parent, func(el *etree.Element) bool {
		if found != nil {
			return false
		}
		if d.is(el, uri, local) {
			found = el
			return false
		}
		return true
	})
	return found
}

// findAll returns every descendant of parent matching uri:local.
func (d *Document) findAll(parent *etree.Element, uri, local string) []*etree.Element {
	var out []*etree.Element
	walk(parent, func(el *etree.Element) bool {
		if d.is(el, uri, local) {
			out = append(out, el)
		}
		return true
	})
	return out
}

// body returns the element holding the document's content, e.g. office:text
// or office:spreadsheet.
func (d *Document) body() *etree.Element {
	body := d.child(d.Root(), NSOffice, "body")
	if body == nil {
		return nil
	}
	children := body.ChildElements()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// walk visits the descendants of el depth-first. fn returns false to skip the
// subtree of the visited element.
func walk(el *etree.Element, fn func(*etree.Element) bool) {
	for _, c := range el.ChildElements() {
		if fn(c) {
			walk(c, fn)
		}
	}
}

// insertBefore inserts child into parent just before ref, or appends it when
// ref is nil.
func insertBefore(parent, ref, child *etree.Element) {
	if ref == nil {
		parent.AddChild(child)
		return
	}
	parent.InsertChildAt(ref.Index(), child)
}
