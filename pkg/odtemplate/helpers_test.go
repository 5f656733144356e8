package odtemplate

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/benjaminschreck/go-odtemplate/pkg/odtemplate/content"
)

const contentHeader = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0" office:version="1.2">`

// invoiceContent has a plain field, an items table with a header row and a
// template row, and a notes table the tests never expand.
const invoiceContent = contentHeader + `
<office:automatic-styles>
<style:style style:name="ce1" style:family="table-cell"><style:table-cell-properties fo:border="0.5pt solid #000000"/></style:style>
<style:style style:name="ce2" style:family="table-cell"><style:table-cell-properties fo:background-color="#eeeeee"/></style:style>
<style:style style:name="P1" style:family="paragraph"/>
</office:automatic-styles>
<office:body>
<office:text>
<text:user-field-decls>
<text:user-field-decl office:value-type="string" office:string-value="Anonymous" text:name="name"/>
<text:user-field-decl office:value-type="string" office:string-value="" text:name="product"/>
<text:user-field-decl office:value-type="float" office:value="0" text:name="unit_price"/>
<text:user-field-decl office:value-type="float" office:value="0" text:name="due"/>
</text:user-field-decls>
<text:p text:style-name="P1">Dear <text:user-field-get text:name="name">Anonymous</text:user-field-get></text:p>
<table:table table:name="items">
<table:table-column/>
<table:table-header-rows>
<table:table-row><table:table-cell table:style-name="ce2"><text:p>Product</text:p></table:table-cell><table:table-cell table:style-name="ce2"><text:p>Price</text:p></table:table-cell></table:table-row>
</table:table-header-rows>
<table:table-row><table:table-cell table:style-name="ce1"><text:p><text:user-field-get text:name="product"/></text:p></table:table-cell><table:table-cell table:style-name="ce1"><text:p><text:user-field-get text:name="unit_price">0</text:user-field-get></text:p></table:table-cell></table:table-row>
</table:table>
<table:table table:name="notes">
<table:table-row><table:table-cell table:style-name="Default"><text:p>note</text:p></table:table-cell></table:table-row>
</table:table>
</office:text>
</office:body>
</office:document-content>`

func parseContent(t *testing.T, src string) *content.Document {
	t.Helper()
	doc, err := content.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("content.Parse() error = %v", err)
	}
	return doc
}

func serialize(t *testing.T, doc *content.Document) string {
	t.Helper()
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	return string(out)
}

type testEntry struct {
	name   string
	data   string
	method uint16
}

// defaultEntries is the entry layout of a minimal ODF text document.
func defaultEntries(contentXML string) []testEntry {
	return []testEntry{
		{name: "mimetype", data: "application/vnd.oasis.opendocument.text", method: zip.Deflate},
		{name: "META-INF/manifest.xml", data: `<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0"/>`, method: zip.Deflate},
		{name: "styles.xml", data: strings.Repeat("<style/>", 64), method: zip.Deflate},
		{name: "content.xml", data: contentXML, method: zip.Deflate},
		{name: "Pictures/logo.png", data: "\x89PNG\r\n\x1a\nnot really a png", method: zip.Store},
		{name: "meta.xml", data: `<office:document-meta/>`, method: zip.Deflate},
	}
}

func buildArchive(t *testing.T, entries []testEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		if err != nil {
			t.Fatalf("CreateHeader(%s) error = %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.data)); err != nil {
			t.Fatalf("Write(%s) error = %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close() error = %v", err)
	}
	return buf.Bytes()
}

func readArchive(t *testing.T, data []byte) *zip.Reader {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	return zr
}

func readEntry(t *testing.T, f *zip.File) []byte {
	t.Helper()
	rc, err := f.Open()
	if err != nil {
		t.Fatalf("Open(%s) error = %v", f.Name, err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		t.Fatalf("read %s error = %v", f.Name, err)
	}
	return buf.Bytes()
}

func readRaw(t *testing.T, f *zip.File) []byte {
	t.Helper()
	r, err := f.OpenRaw()
	if err != nil {
		t.Fatalf("OpenRaw(%s) error = %v", f.Name, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read raw %s error = %v", f.Name, err)
	}
	return buf.Bytes()
}

func entryByName(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
