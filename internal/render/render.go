package render

import (
    "bufio"
    "encoding/json"
    "fmt"
    "io"
    "strings"

    yaml "gopkg.in/yaml.v3"

    "github.com/hyperifyio/ircolors/internal/extract"
)

// Format selects how color entries are written.
type Format string

const (
    // FormatRust writes one `(Rgb::from_hex(0xHEX), CODE),` initializer per line.
    FormatRust Format = "rust"
    // FormatGo writes one `{Hex: 0xHEX, Code: CODE},` composite literal per line.
    FormatGo Format = "go"
    FormatJSON Format = "json"
    FormatYAML Format = "yaml"
)

// Formats lists the supported formats in the order shown in help text.
var Formats = []Format{FormatRust, FormatGo, FormatJSON, FormatYAML}

// ParseFormat resolves a case-insensitive format name. Empty means rust.
func ParseFormat(s string) (Format, error) {
    s = strings.ToLower(strings.TrimSpace(s))
    if s == "" {
        return FormatRust, nil
    }
    if s == "yml" {
        return FormatYAML, nil
    }
    for _, f := range Formats {
        if string(f) == s {
            return f, nil
        }
    }
    return "", fmt.Errorf("unknown format %q (want one of %s)", s, joinFormats())
}

func joinFormats() string {
    names := make([]string, len(Formats))
    for i, f := range Formats {
        names[i] = string(f)
    }
    return strings.Join(names, ", ")
}

// Write renders entries to w in the given format.
func Write(w io.Writer, f Format, entries []extract.ColorEntry) error {
    switch f {
    case FormatRust, "":
        return writeLines(w, entries, "(Rgb::from_hex(0x%s), %s),\n")
    case FormatGo:
        return writeLines(w, entries, "{Hex: 0x%s, Code: %s},\n")
    case FormatJSON:
        if entries == nil {
            entries = []extract.ColorEntry{}
        }
        enc := json.NewEncoder(w)
        enc.SetIndent("", "  ")
        return enc.Encode(entries)
    case FormatYAML:
        if len(entries) == 0 {
            _, err := io.WriteString(w, "[]\n")
            return err
        }
        enc := yaml.NewEncoder(w)
        enc.SetIndent(2)
        if err := enc.Encode(entries); err != nil {
            return fmt.Errorf("encode yaml: %w", err)
        }
        return enc.Close()
    default:
        return fmt.Errorf("unknown format %q", string(f))
    }
}

func writeLines(w io.Writer, entries []extract.ColorEntry, layout string) error {
    bw := bufio.NewWriter(w)
    for _, e := range entries {
        if _, err := fmt.Fprintf(bw, layout, e.Hex, e.Code); err != nil {
            return err
        }
    }
    return bw.Flush()
}
