package content

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// FamilyTableCell is the style family of table cell styles.
const FamilyTableCell = "table-cell"

type styleKey struct {
	family string
	name   string
}

func (d *Document) indexStyles() error {
	if d.styles == nil {
		return nil
	}
	for _, el := range d.styles.ChildElements() {
		if !d.is(el, NSStyle, "style") {
			continue
		}
		key := d.styleKeyOf(el)
		if key.name == "" {
			continue
		}
		if _, dup := d.styleIndex[key]; dup {
			return fmt.Errorf("failed to parse content: duplicate %s style %q", key.family, key.name)
		}
		d.styleIndex[key] = el
	}
	return nil
}

func (d *Document) styleKeyOf(el *etree.Element) styleKey {
	return styleKey{
		family: d.Attr(el, NSStyle, "family"),
		name:   d.Attr(el, NSStyle, "name"),
	}
}

// Styles returns office:automatic-styles, creating it in front of office:body
// if the document has none.
func (d *Document) Styles() *etree.Element {
	if d.styles != nil {
		return d.styles
	}
	root := d.Root()
	el := etree.NewElement(d.Key(NSOffice, "automatic-styles"))
	insertBefore(root, d.child(root, NSOffice, "body"), el)
	d.styles = el
	return el
}

// Style returns the automatic style with the given family and name.
func (d *Document) Style(family, name string) *etree.Element {
	return d.styleIndex[styleKey{family, name}]
}

// HasStyle reports whether the catalog holds a style of family named name.
func (d *Document) HasStyle(family, name string) bool {
	_, ok := d.styleIndex[styleKey{family, name}]
	return ok
}

// AddStyle appends a style:style element to the catalog. The name must not be
// taken within its family.
func (d *Document) AddStyle(el *etree.Element) error {
	key := d.styleKeyOf(el)
	if key.name == "" {
		return fmt.Errorf("style has no name")
	}
	if _, dup := d.styleIndex[key]; dup {
		return fmt.Errorf("%s style %q already exists", key.family, key.name)
	}
	d.Styles().AddChild(el)
	d.styleIndex[key] = el
	return nil
}

// CloneStyle copies the style family/name under newName and adds the copy to
// the catalog.
func (d *Document) CloneStyle(family, name, newName string) (*etree.Element, error) {
	src := d.Style(family, name)
	if src == nil {
		return nil, fmt.Errorf("%s style %q not found", family, name)
	}
	el := src.Copy()
	d.SetAttr(el, NSStyle, "name", newName)
	if err := d.AddStyle(el); err != nil {
		return nil, err
	}
	return el, nil
}

// RemoveStyle detaches a style from the catalog. It reports whether the style
// existed.
func (d *Document) RemoveStyle(family, name string) bool {
	key := styleKey{family, name}
	el, ok := d.styleIndex[key]
	if !ok {
		return false
	}
	if parent := el.Parent(); parent != nil {
		parent.RemoveChild(el)
	}
	delete(d.styleIndex, key)
	return true
}

// ReferencedStyles collects every style name used by a *style-name attribute
// anywhere in the document, including references between styles.
func (d *Document) ReferencedStyles() map[string]bool {
	refs := make(map[string]bool)
	collect := func(el *etree.Element) {
		for _, a := range el.Attr {
			if a.Space != "" && a.Space != "xmlns" && strings.HasSuffix(a.Key, "style-name") {
				refs[a.Value] = true
			}
		}
	}
	collect(d.Root())
	walk(d.Root(), func(el *etree.Element) bool {
		collect(el)
		return true
	})
	return refs
}
