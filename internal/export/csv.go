package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/odyssey-erp/backoffice/internal/listctl"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// csvStreamer writes CRLF-terminated rows and flushes periodically. Quoting
// is decided per cell so string columns can be quoted unconditionally.
type csvStreamer struct {
	buf          *bufio.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	return &csvStreamer{buf: bufio.NewWriterSize(w, csvBufferSize), flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeRow(cells []Cell) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	for i, cell := range cells {
		if i > 0 {
			if err := s.buf.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := s.buf.WriteString(encodeCell(cell)); err != nil {
			return err
		}
	}
	if _, err := s.buf.WriteString("\r\n"); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func encodeCell(cell Cell) string {
	if !cell.Quote && !strings.ContainsAny(cell.Text, ",\"\r\n") {
		return cell.Text
	}
	return `"` + strings.ReplaceAll(cell.Text, `"`, `""`) + `"`
}

// WriteCSV writes a header of field labels followed by one row per entity.
func WriteCSV[E any](w io.Writer, fields []listctl.Field[E], rows []E, f Formatter) error {
	if len(rows) == 0 {
		return ErrNothingToExport
	}
	streamer := newCSVStreamer(w)
	labels := header(fields)
	head := make([]Cell, len(labels))
	for i, label := range labels {
		head[i] = Cell{Text: label, Quote: true}
	}
	if err := streamer.writeRow(head); err != nil {
		return err
	}
	cells := make([]Cell, len(fields))
	for _, row := range rows {
		for i, field := range fields {
			cells[i] = f.Format(field.Kind, field.Value(row))
		}
		if err := streamer.writeRow(cells); err != nil {
			return err
		}
	}
	return streamer.Flush()
}
