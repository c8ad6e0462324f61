package extract

import "io"

// Extractor defines a minimal interface for color table extraction.
// Implementations should be deterministic and avoid side effects.
type Extractor interface {
    // Extract parses raw HTML and returns qualifying entries in document order.
    Extract(r io.Reader) ([]ColorEntry, error)
}

// TableExtractor locates the table and its cells by CSS class. Empty class
// fields fall back to the defaults used by the documentation page.
type TableExtractor struct {
    TableClass string
    HexClass   string
    CodeClass  string
}

func (e TableExtractor) Extract(r io.Reader) ([]ColorEntry, error) {
    doc, err := parse(r)
    if err != nil {
        return nil, err
    }
    return fromDocument(doc, orDefault(e.TableClass, DefaultTableClass), orDefault(e.HexClass, DefaultHexClass), orDefault(e.CodeClass, DefaultCodeClass))
}

func orDefault(v, def string) string {
    if v == "" {
        return def
    }
    return v
}
