package extract

import (
    "errors"
    "fmt"
    "io"
    "strings"

    "github.com/PuerkitoBio/goquery"
    "golang.org/x/net/html"
)

// Default class names used by the IRC formatting documentation page.
const (
    DefaultTableClass = "rgb-table"
    DefaultHexClass   = "hexcode"
    DefaultCodeClass  = "colorcode"
)

// ErrTableNotFound is returned when the document has no element carrying the
// table class. Nothing is extracted in that case.
var ErrTableNotFound = errors.New("color table not found")

// ColorEntry is one row of the color table: the hex RGB value and the IRC
// color code, both verbatim from the page.
type ColorEntry struct {
    Hex  string `json:"hex" yaml:"hex"`
    Code string `json:"code" yaml:"code"`
}

// FromHTML extracts color entries using the default class names.
func FromHTML(r io.Reader) ([]ColorEntry, error) {
    return TableExtractor{}.Extract(r)
}

// fromDocument walks every <td> of the first table-classed element in
// document order and keeps cells that carry both a hex and a code child.
func fromDocument(doc *goquery.Document, tableClass, hexClass, codeClass string) ([]ColorEntry, error) {
    tables := doc.Find(classSelector(tableClass))
    if tables.Length() == 0 {
        return nil, fmt.Errorf("%w: no element with class %q", ErrTableNotFound, tableClass)
    }
    table := tables.First()

    entries := make([]ColorEntry, 0, 16)
    table.Find("td").Each(func(_ int, cell *goquery.Selection) {
        hex := cellText(cell, hexClass)
        code := cellText(cell, codeClass)
        if hex == "" || code == "" {
            // header and spacer cells
            return
        }
        entries = append(entries, ColorEntry{Hex: hex, Code: code})
    })
    return entries, nil
}

func cellText(cell *goquery.Selection, class string) string {
    sel := cell.Find(classSelector(class))
    if sel.Length() == 0 {
        return ""
    }
    return strings.TrimSpace(sel.First().Text())
}

func classSelector(class string) string {
    return "." + strings.TrimPrefix(strings.TrimSpace(class), ".")
}

func parse(r io.Reader) (*goquery.Document, error) {
    root, err := html.Parse(r)
    if err != nil {
        return nil, fmt.Errorf("parse html: %w", err)
    }
    return goquery.NewDocumentFromNode(root), nil
}
