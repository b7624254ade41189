// Package header writes the generated C header of debugging constants.
package header

import (
	"fmt"
	"io"
	"strings"

	"genv8constants/internal/extract"
)

// DefaultGuard is the include guard macro of the generated header.
const DefaultGuard = "V8_CONSTANTS_H"

const preamble = `/*
 * File automatically generated by genv8constants. Do not edit.
 *
 * The following offsets are dynamically from libv8_base.a.  See src/v8ustack.d
 * for details on how these values are used.
 */

#ifndef %[1]s
#define %[1]s

`

const footer = `
#endif /* %s */
`

const (
	signBit = 0x80000000
	wrap32  = 0x100000000
)

// FormatValue renders v as a C hex literal. Values with bit 31 set are
// written as negative 32-bit quantities, whatever the symbol width.
func FormatValue(v uint64) string {
	if v&signBit == 0 {
		return fmt.Sprintf("0x%x", v)
	}
	if v <= wrap32 {
		return fmt.Sprintf("-0x%x", wrap32-v)
	}
	// 64-bit values above 2^32 go negative twice; the downstream unwinder
	// has always been fed this form.
	return fmt.Sprintf("-0x-%x", v-wrap32)
}

// Writer emits one #define per constant between the preamble and the
// footer. The first write error sticks and is returned by every later call.
type Writer struct {
	w     io.Writer
	guard string
	err   error
}

// NewWriter writes the preamble to w.
func NewWriter(w io.Writer, guard string) *Writer {
	if guard == "" {
		guard = DefaultGuard
	}
	hw := &Writer{w: w, guard: guard}
	hw.printf(preamble, guard)
	return hw
}

func (hw *Writer) printf(format string, args ...interface{}) {
	if hw.err != nil {
		return
	}
	_, hw.err = fmt.Fprintf(hw.w, format, args...)
}

// Define writes the constant with its name upper-cased.
func (hw *Writer) Define(c extract.Constant) error {
	hw.printf("#define %s %s\n", strings.ToUpper(c.Name), FormatValue(c.Value))
	return hw.err
}

// Close writes the footer. It does not close the underlying writer.
func (hw *Writer) Close() error {
	hw.printf(footer, hw.guard)
	return hw.err
}

// Err reports the first write error, if any.
func (hw *Writer) Err() error { return hw.err }
