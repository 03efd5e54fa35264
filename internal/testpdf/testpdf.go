// Package testpdf builds minimal but structurally valid PDF documents so
// tests can exercise real page handling without binary fixtures checked in.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"
)

// MultiPage returns a complete single-xref PDF with the given number of
// blank pages. Offsets in the cross-reference table are computed from the
// assembled body, so the result parses under strict readers as well.
func MultiPage(pageCount int) []byte {
	var b bytes.Buffer
	var offsets []int

	addObj := func(body string) {
		offsets = append(offsets, b.Len())
		b.WriteString(body)
	}

	b.WriteString("%PDF-1.4\n")

	kids := make([]string, pageCount)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}

	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pageCount))

	for i := 0; i < pageCount; i++ {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents %d 0 R >>\nendobj\n",
			3+i, 3+pageCount+i))
	}

	const content = "BT ET"
	for i := 0; i < pageCount; i++ {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			3+pageCount+i, len(content), content))
	}

	xrefOffset := b.Len()
	size := 3 + 2*pageCount
	fmt.Fprintf(&b, "xref\n0 %d\n", size)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xrefOffset)

	return b.Bytes()
}
