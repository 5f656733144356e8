package odtemplate

import (
	"context"
	"fmt"
	"regexp"

	"github.com/beevik/etree"
	"github.com/benjaminschreck/go-odtemplate/pkg/odtemplate/content"
	"go.uber.org/zap"
)

// TableData maps table names to the rows to render into them. Each row maps
// field names to values; wrap a value in Typed to force its category.
//
// Example:
//
//	data := TableData{
//	    "items": {
//	        {"product": "Widget", "unit_price": 1.5},
//	        {"product": "Gadget", "unit_price": 2.5},
//	    },
//	}
type TableData map[string][]map[string]any

// TableHandler returns a handler that replaces the template row of every table
// named in data with one generated row per dataset row. Tables not named in data
// are left alone.
func TableHandler(data TableData) Handler {
	return HandlerFunc(func(ctx context.Context, doc *content.Document) error {
		for _, table := range doc.Tables() {
			name := doc.TableName(table)
			rows, ok := data[name]
			if !ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := expandTable(doc, table, name, rows); err != nil {
				return err
			}
			GetLogger().Debug("table expanded", zap.String("table", name), zap.Int("rows", len(rows)))
		}
		return nil
	})
}

// templateRow picks the prototype row: the second of exactly two rows (header
// plus template), otherwise the first.
func templateRow(rows []*etree.Element) *etree.Element {
	if len(rows) == 2 {
		return rows[1]
	}
	return rows[0]
}

func expandTable(doc *content.Document, table *etree.Element, name string, dataset []map[string]any) error {
	rows := doc.TableRows(table)
	if len(rows) == 0 {
		return nil
	}
	tmpl := templateRow(rows)

	index := len(rows)
	anchor := lastSibling(rows, tmpl)
	for _, values := range dataset {
		index++
		row := tmpl.Copy()
		content.InsertAfter(anchor, row)
		anchor = row

		if err := restyleRow(doc, name, row, index); err != nil {
			return err
		}
		rescopeFields(doc, name, row, index, values)
	}

	content.Detach(tmpl)
	reclaim(doc, tmpl)
	return nil
}

// lastSibling returns the last row that shares tmpl's container. Generated
// rows are appended behind it.
func lastSibling(rows []*etree.Element, tmpl *etree.Element) *etree.Element {
	last := tmpl
	for _, row := range rows {
		if row.Parent() == tmpl.Parent() && row.Index() > last.Index() {
			last = row
		}
	}
	return last
}

var rowStyleSuffix = regexp.MustCompile(`^(.*[^0-9])[0-9]+$`)

// rowStyleName replaces the trailing digits of a style name with the row index.
func rowStyleName(table, style string, index int) (string, error) {
	m := rowStyleSuffix.FindStringSubmatch(style)
	if m == nil {
		return "", &StyleNameError{Table: table, Style: style}
	}
	return fmt.Sprintf("%s%d", m[1], index), nil
}

// restyleRow gives every cell of a generated row its own copy of its automatic
// style, named after the row index. Cells sharing a style in the template share
// the copy within the row.
func restyleRow(doc *content.Document, table string, row *etree.Element, index int) error {
	renamed := make(map[string]string)
	styleKey := doc.Key(content.NSTable, "style-name")

	for _, cell := range doc.RowCells(row) {
		attr := cell.SelectAttr(styleKey)
		if attr == nil {
			continue
		}
		src := attr.Value
		if !doc.HasStyle(content.FamilyTableCell, src) {
			// common styles live in styles.xml and are shared on purpose
			continue
		}
		newName, ok := renamed[src]
		if !ok {
			base, err := rowStyleName(table, src, index)
			if err != nil {
				return err
			}
			newName = base
			for k := 1; doc.HasStyle(content.FamilyTableCell, newName); k++ {
				newName = fmt.Sprintf("%s_%d", base, k)
			}
			if _, err := doc.CloneStyle(content.FamilyTableCell, src, newName); err != nil {
				return err
			}
			renamed[src] = newName
		}
		attr.Value = newName
	}
	return nil
}

// rescopeFields renames every field referenced in a generated row to
// {table}.{index}.{field} and declares it with the row's value. A field that
// has neither a declaration nor a usable row value keeps its name, so no
// reference points at an undeclared field.
func rescopeFields(doc *content.Document, table string, row *etree.Element, index int, values map[string]any) {
	nameKey := doc.Key(content.NSText, "name")

	for _, field := range doc.FieldRefNames(row) {
		refs := doc.FieldRefs(row, field)
		if len(refs) == 0 {
			continue
		}
		decl, ok := rowDeclaration(doc, field, values)
		if !ok {
			continue
		}

		newName := fmt.Sprintf("%s.%d.%s", table, index, field)
		for _, ref := range refs {
			ref.CreateAttr(nameKey, newName)
		}
		decl.Name = newName
		doc.DeclareField(decl)
	}
}

// rowDeclaration builds the declaration for one field of a generated row. The
// row value is resolved against the type of the template's declaration; without
// a usable value the authored declaration is copied.
func rowDeclaration(doc *content.Document, field string, values map[string]any) (content.FieldDeclaration, bool) {
	orig, declared := doc.Declaration(field)
	v, supplied := values[field]
	category, raw := categorize(v)

	if !declared {
		if !supplied || category == "" {
			return content.FieldDeclaration{}, false
		}
		res, ok := Resolve(field, storageType(category), Values{category: {field: raw}})
		if !ok {
			return content.FieldDeclaration{}, false
		}
		return content.FieldDeclaration{ValueType: res.Type, Value: res.String()}, true
	}

	if supplied && category != "" {
		if res, ok := Resolve(field, orig.ValueType, Values{category: {field: raw}}); ok {
			orig.Value = res.String()
		}
	}
	return orig, true
}

// reclaim drops the field declarations and automatic styles that only the
// detached template row used.
func reclaim(doc *content.Document, tmpl *etree.Element) {
	for _, field := range doc.FieldRefNames(tmpl) {
		if !doc.IsFieldReferenced(field) {
			doc.RemoveFieldDecl(field)
		}
	}

	styleKey := doc.Key(content.NSTable, "style-name")
	var referenced map[string]bool
	for _, cell := range doc.RowCells(tmpl) {
		style := cell.SelectAttrValue(styleKey, "")
		if style == "" || !doc.HasStyle(content.FamilyTableCell, style) {
			continue
		}
		if referenced == nil {
			referenced = doc.ReferencedStyles()
		}
		if !referenced[style] {
			doc.RemoveStyle(content.FamilyTableCell, style)
		}
	}
}
