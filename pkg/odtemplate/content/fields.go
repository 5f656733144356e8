package content

import (
	"fmt"

	"github.com/beevik/etree"
)

// FieldDeclaration is a typed user field as declared in text:user-field-decls.
type FieldDeclaration struct {
	Name      string
	ValueType string
	Value     string
}

// ValueAttr returns the local name of the office attribute that stores a value
// of the given type.
func ValueAttr(valueType string) string {
	switch valueType {
	case "string":
		return "string-value"
	case "boolean":
		return "boolean-value"
	default:
		return "value"
	}
}

func (d *Document) indexFieldDecls() error {
	if d.decls == nil {
		return nil
	}
	for _, el := range d.decls.ChildElements() {
		if !d.is(el, NSText, "user-field-decl") {
			continue
		}
		name := d.Attr(el, NSText, "name")
		if _, dup := d.declIndex[name]; dup {
			return fmt.Errorf("failed to parse content: duplicate field declaration %q", name)
		}
		d.declIndex[name] = el
	}
	return nil
}

// FieldDecls returns text:user-field-decls, creating it at the top of the body
// container if the document has none.
func (d *Document) FieldDecls() *etree.Element {
	if d.decls != nil {
		return d.decls
	}
	parent := d.body()
	if parent == nil {
		parent = d.Root()
	}
	el := etree.NewElement(d.Key(NSText, "user-field-decls"))
	var first *etree.Element
	if children := parent.ChildElements(); len(children) > 0 {
		first = children[0]
	}
	insertBefore(parent, first, el)
	d.decls = el
	return el
}

// FieldDecl returns the declaration element for name.
func (d *Document) FieldDecl(name string) *etree.Element {
	return d.declIndex[name]
}

// Declaration reads the declaration of name.
func (d *Document) Declaration(name string) (FieldDeclaration, bool) {
	el, ok := d.declIndex[name]
	if !ok {
		return FieldDeclaration{}, false
	}
	return d.declarationOf(el), true
}

func (d *Document) declarationOf(el *etree.Element) FieldDeclaration {
	valueType := d.Attr(el, NSOffice, "value-type")
	return FieldDeclaration{
		Name:      d.Attr(el, NSText, "name"),
		ValueType: valueType,
		Value:     d.Attr(el, NSOffice, ValueAttr(valueType)),
	}
}

// FieldDeclarations returns every declaration in document order.
func (d *Document) FieldDeclarations() []FieldDeclaration {
	if d.decls == nil {
		return nil
	}
	var out []FieldDeclaration
	for _, el := range d.decls.ChildElements() {
		if d.is(el, NSText, "user-field-decl") {
			out = append(out, d.declarationOf(el))
		}
	}
	return out
}

// SetFieldValue writes value into the slot that matches the declared type of
// name. It reports whether the declaration exists.
func (d *Document) SetFieldValue(name, value string) bool {
	el, ok := d.declIndex[name]
	if !ok {
		return false
	}
	valueType := d.Attr(el, NSOffice, "value-type")
	d.SetAttr(el, NSOffice, ValueAttr(valueType), value)
	return true
}

// DeclareField adds a declaration, or overwrites the existing one with the same
// name.
func (d *Document) DeclareField(decl FieldDeclaration) *etree.Element {
	el, ok := d.declIndex[decl.Name]
	if !ok {
		el = d.FieldDecls().CreateElement(d.Key(NSText, "user-field-decl"))
		d.declIndex[decl.Name] = el
	}
	slot := ValueAttr(decl.ValueType)
	for _, other := range valueSlots {
		if other != slot {
			el.RemoveAttr(d.Key(NSOffice, other))
		}
	}
	d.SetAttr(el, NSOffice, "value-type", decl.ValueType)
	d.SetAttr(el, NSOffice, slot, decl.Value)
	d.SetAttr(el, NSText, "name", decl.Name)
	return el
}

// valueSlots lists every office attribute a declaration can hold its value in.
var valueSlots = []string{"value", "string-value", "boolean-value", "date-value", "time-value"}

// RemoveFieldDecl deletes the declaration of name. It reports whether one
// existed.
func (d *Document) RemoveFieldDecl(name string) bool {
	el, ok := d.declIndex[name]
	if !ok {
		return false
	}
	if parent := el.Parent(); parent != nil {
		parent.RemoveChild(el)
	}
	delete(d.declIndex, name)
	return true
}

func (d *Document) isFieldRef(el *etree.Element) bool {
	return d.is(el, NSText, "user-field-get") || d.is(el, NSText, "user-field-input")
}

// FieldRefs returns the field references below root that are bound to name.
func (d *Document) FieldRefs(root *etree.Element, name string) []*etree.Element {
	var out []*etree.Element
	walk(root, func(el *etree.Element) bool {
		if d.isFieldRef(el) && d.Attr(el, NSText, "name") == name {
			out = append(out, el)
		}
		return true
	})
	return out
}

// FieldRefNames returns the distinct field names referenced below root, in
// document order.
func (d *Document) FieldRefNames(root *etree.Element) []string {
	var names []string
	seen := make(map[string]bool)
	walk(root, func(el *etree.Element) bool {
		if d.isFieldRef(el) {
			name := d.Attr(el, NSText, "name")
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		return true
	})
	return names
}

// IsFieldReferenced reports whether any reference in the document is bound to
// name.
func (d *Document) IsFieldReferenced(name string) bool {
	found := false
	walk(d.Root(), func(el *etree.Element) bool {
		if found {
			return false
		}
		if d.isFieldRef(el) && d.Attr(el, NSText, "name") == name {
			found = true
		}
		return !found
	})
	return found
}
