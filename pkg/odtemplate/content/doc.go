// Package content provides a namespace-aware model of an OpenDocument content
// part (content.xml).
//
// An OpenDocument file is a ZIP container. The body text, tables and the
// automatic styles they use live in a single XML part, content.xml. This
// package wraps the parsed tree of that part and exposes the anchors the
// template handlers work with.
//
// # Structure Organization
//
//   - document.go: parsing, serialization and namespace prefix resolution
//   - styles.go: the automatic style catalog (office:automatic-styles)
//   - fields.go: user field declarations and their references
//   - tables.go: tables, rows and cells
//
// # Key Concepts
//
// Style catalog: office:automatic-styles, indexed by family and name once at
// parse time.
//
// Field declaration: a text:user-field-decl element. Its name is unique within
// text:user-field-decls; the index is built and the uniqueness checked when the
// document is parsed.
//
// Field reference: a text:user-field-get or text:user-field-input element bound
// to a declaration by text:name.
//
// # XML Namespaces
//
// Prefixes are resolved from the xmlns declarations on the root element, so a
// document that binds the ODF namespaces to unusual prefixes is handled the same
// way as one produced by LibreOffice:
//   - office: urn:oasis:names:tc:opendocument:xmlns:office:1.0
//   - style: urn:oasis:names:tc:opendocument:xmlns:style:1.0
//   - text: urn:oasis:names:tc:opendocument:xmlns:text:1.0
//   - table: urn:oasis:names:tc:opendocument:xmlns:table:1.0
package content
