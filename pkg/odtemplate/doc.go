// Package odtemplate fills OpenDocument templates (.ott, .odt) with data.
//
// A template is a zip archive. Filling it streams every entry into a new
// archive: content.xml is parsed and run through a chain of handlers, mimetype
// is stored uncompressed, and everything else is copied byte for byte.
//
// # Quick Start
//
//	tmpl, err := odtemplate.Open(ctx, "invoice.ott")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tmpl.ApplyValues(odtemplate.Values{
//	    "string": {"customer": "ACME Corp"},
//	    "date":   {"due": time.Now()},
//	}).ApplyTable(odtemplate.TableData{
//	    "items": {
//	        {"product": "Widget", "unit_price": 1.5},
//	        {"product": "Gadget", "unit_price": 2.5},
//	    },
//	})
//
//	out, err := os.Create("invoice.odt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer out.Close()
//
//	if _, err := tmpl.WriteTo(out); err != nil {
//	    log.Fatal(err)
//	}
//
// # Fields
//
// Values are bound to user field declarations (text:user-field-decl) by name.
// A value fills a field when its category equals the declared value type, or
// when the category is stored as that type: dates and currencies are stored as
// floats. Dates become spreadsheet serial day numbers (1970-01-01 is 25569)
// and Currency amounts are divided by 100.
//
// # Tables
//
// A table named in TableData is expanded from its template row: the second
// row when the table has exactly two rows (header and template), the first
// row otherwise. Each generated row gets its own copy of every automatic cell
// style, named after the row number (ce1 becomes ce3 for row 3), and its
// fields are renamed to {table}.{row}.{field}.
//
// # Lifecycle
//
// Ready, End, Finalized and Failed expose the run lifecycle as channels. End
// fires once every entry has been written, Finalized once the archive is
// sealed and its size is known. A failed run never finalizes.
//
// # Configuration
//
// Configuration comes from ODTEMPLATE_* environment variables, a YAML file
// (LoadConfig) or a Config passed to NewWithConfig:
//
//	ODTEMPLATE_LOG_LEVEL          debug, info, warn, error, off
//	ODTEMPLATE_CONTENT_ENTRY      entry run through handlers (content.xml)
//	ODTEMPLATE_UNCOMPRESSED_ENTRY entry stored uncompressed (mimetype)
//	ODTEMPLATE_COMPRESSION_LEVEL  deflate level for the content entry
//	ODTEMPLATE_CACHE_MAX_SIZE     number of cached template sources
//	ODTEMPLATE_CACHE_TTL          cache entry lifetime, e.g. 5m
//	ODTEMPLATE_MAX_CONTENT_SIZE   content entry size limit in bytes
package odtemplate
