package extract

import (
    "bytes"
    "fmt"
    "strings"
    "testing"
)

// Benchmark FromHTML on tables of increasing size.
func BenchmarkFromHTML(b *testing.B) {
    small := []byte(pageFixture)
    medium := makeTable(10, 10)
    large := makeTable(100, 16)

    b.Run("small", func(b *testing.B) {
        for i := 0; i < b.N; i++ {
            _, _ = FromHTML(bytes.NewReader(small))
        }
    })
    b.Run("medium", func(b *testing.B) {
        for i := 0; i < b.N; i++ {
            _, _ = FromHTML(bytes.NewReader(medium))
        }
    })
    b.Run("large", func(b *testing.B) {
        for i := 0; i < b.N; i++ {
            _, _ = FromHTML(bytes.NewReader(large))
        }
    })
}

func makeTable(rows, cols int) []byte {
    var sb strings.Builder
    sb.WriteString("<html><body><table class=\"rgb-table\">")
    for r := 0; r < rows; r++ {
        sb.WriteString("<tr>")
        for c := 0; c < cols; c++ {
            n := r*cols + c
            fmt.Fprintf(&sb, "<td><span class=\"colorcode\">%d</span><code class=\"hexcode\">%06X</code></td>", n, n*4099)
        }
        sb.WriteString("</tr>")
    }
    sb.WriteString("</table></body></html>")
    return []byte(sb.String())
}
