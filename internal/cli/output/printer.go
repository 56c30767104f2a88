package output

import (
	"io"

	"github.com/fatih/color"
)

// Printer writes operation outcome lines and formatted results.
type Printer struct {
	w         io.Writer
	formatter Formatter
	ok        *color.Color
	fail      *color.Color
}

// NewPrinter creates a printer writing to w. Color is also suppressed when
// w is not a terminal or NO_COLOR is set.
func NewPrinter(w io.Writer, format Format, noColor bool) *Printer {
	p := &Printer{
		w:         w,
		formatter: NewFormatter(format),
		ok:        color.New(color.FgGreen, color.Bold),
		fail:      color.New(color.FgRed),
	}
	if noColor {
		p.ok.DisableColor()
		p.fail.DisableColor()
	}
	return p
}

// Success prints a success line such as "REGISTER OK".
func (p *Printer) Success(line string) {
	_, _ = p.ok.Fprintln(p.w, line)
}

// Failure prints a failure line such as "USERNAME IN USE".
func (p *Printer) Failure(line string) {
	_, _ = p.fail.Fprintln(p.w, line)
}

// Result formats data with the configured formatter.
func (p *Printer) Result(data any) error {
	return p.formatter.Format(p.w, data)
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}
