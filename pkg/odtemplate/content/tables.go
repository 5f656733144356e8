package content

import "github.com/beevik/etree"

// Tables returns every table:table in the document, outer tables before the
// tables nested in their cells.
func (d *Document) Tables() []*etree.Element {
	return d.findAll(d.Root(), NSTable, "table")
}

// TableName returns the table:name of a table element.
func (d *Document) TableName(table *etree.Element) string {
	return d.Attr(table, NSTable, "name")
}

// TableRows returns the rows that belong to table itself. Rows grouped in
// table:table-header-rows, table:table-rows or table:table-row-group are
// included; rows of tables nested in cells are not.
func (d *Document) TableRows(table *etree.Element) []*etree.Element {
	var rows []*etree.Element
	var collect func(parent *etree.Element)
	collect = func(parent *etree.Element) {
		for _, el := range parent.ChildElements() {
			switch {
			case d.is(el, NSTable, "table-row"):
				rows = append(rows, el)
			case d.is(el, NSTable, "table-header-rows"),
				d.is(el, NSTable, "table-rows"),
				d.is(el, NSTable, "table-row-group"):
				collect(el)
			}
		}
	}
	collect(table)
	return rows
}

// RowCells returns the cells of a row, covered cells included.
func (d *Document) RowCells(row *etree.Element) []*etree.Element {
	var cells []*etree.Element
	for _, el := range row.ChildElements() {
		if d.is(el, NSTable, "table-cell") || d.is(el, NSTable, "covered-table-cell") {
			cells = append(cells, el)
		}
	}
	return cells
}

// InsertAfter places el directly behind ref under ref's parent.
func InsertAfter(ref, el *etree.Element) {
	parent := ref.Parent()
	parent.InsertChildAt(ref.Index()+1, el)
}

// Detach removes el from its parent.
func Detach(el *etree.Element) {
	if parent := el.Parent(); parent != nil {
		parent.RemoveChild(el)
	}
}
