package reassembler

import (
	"bytes"
	"fmt"
	"strconv"
)

// pdfWriter emits a minimal PDF 1.4 file. Output depends only on the page
// streams and dimensions: no dates, no file identifier.
type pdfWriter struct {
	buf     bytes.Buffer
	offsets []int
}

func newPDFWriter() *pdfWriter {
	w := &pdfWriter{}
	w.buf.WriteString("%PDF-1.4\n%\xE2\xE3\xCF\xD3\n")
	return w
}

func (w *pdfWriter) Bytes() []byte { return w.buf.Bytes() }

// Object numbers: 1 catalog, 2 page tree, then page/content/image triples.
func pageObj(i int) int    { return 3 + 3*i }
func contentObj(i int) int { return 4 + 3*i }
func imageObj(i int) int   { return 5 + 3*i }

func (w *pdfWriter) writeDocument(width, height int, dpi float64, streams [][]byte) {
	pw := formatNum(float64(width) * 72 / dpi)
	ph := formatNum(float64(height) * 72 / dpi)

	w.object(1, "<< /Type /Catalog /Pages 2 0 R >>")

	var kids bytes.Buffer
	for i := range streams {
		if i > 0 {
			kids.WriteByte(' ')
		}
		fmt.Fprintf(&kids, "%d 0 R", pageObj(i))
	}
	w.object(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), len(streams)))

	content := []byte(fmt.Sprintf("q %s 0 0 %s 0 0 cm /Im0 Do Q\n", pw, ph))
	for i, s := range streams {
		w.object(pageObj(i), fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources << /XObject << /Im0 %d 0 R >> >> /Contents %d 0 R >>",
			pw, ph, imageObj(i), contentObj(i)))
		w.stream(contentObj(i), "", content)
		w.stream(imageObj(i), fmt.Sprintf(
			"/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /FlateDecode ",
			width, height), s)
	}
	w.trailer()
}

func (w *pdfWriter) begin(num int) {
	for len(w.offsets) < num {
		w.offsets = append(w.offsets, 0)
	}
	w.offsets[num-1] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n", num)
}

func (w *pdfWriter) object(num int, body string) {
	w.begin(num)
	w.buf.WriteString(body)
	w.buf.WriteString("\nendobj\n")
}

func (w *pdfWriter) stream(num int, dict string, data []byte) {
	w.begin(num)
	fmt.Fprintf(&w.buf, "<< %s/Length %d >>\nstream\n", dict, len(data))
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\nendobj\n")
}

func (w *pdfWriter) trailer() {
	xref := w.buf.Len()
	size := len(w.offsets) + 1
	fmt.Fprintf(&w.buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xref)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
