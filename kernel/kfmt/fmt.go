// Package kfmt provides a minimal formatted output facility that can be
// safely used before the Go runtime memory allocator is available.
package kfmt

import "io"

// numBufSize defines the buffer size for formatting numbers. It is large
// enough for a zero-padded 64-bit value in any supported base plus a sign.
const numBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// numBuf holds digits while formatting numbers. Sharing a single
	// package-level buffer keeps Fprintf allocation-free.
	numBuf [numBufSize]byte

	// singleByte is a shared one-byte window used for emitting string and
	// format data without triggering a []byte conversion allocation.
	singleByte = []byte{0}

	// earlyBuffer captures Printf output generated before an output sink
	// has been registered via SetOutputSink.
	earlyBuffer ringBuffer

	// outputSink is the io.Writer where Printf sends its output. If nil,
	// output is redirected to earlyBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the target for calls to Printf to w and drains any
// output accumulated in the early boot buffer into it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyBuffer)
	}
}

// GetOutputSink returns the io.Writer that Printf output is sent to.
func GetOutputSink() io.Writer {
	if outputSink == nil {
		return &earlyBuffer
	}
	return outputSink
}

// Printf writes a formatted string to the currently active output sink. It
// supports a subset of the fmt.Printf verbs:
//
//	%s	string or byte slice
//	%o	integer, base 8
//	%d	integer, base 10
//	%x	integer, base 16, lower-case
//	%t	"true" or "false"
//
// An optional decimal width may precede a verb. Strings and base-10 values
// shorter than the width are left-padded with spaces; base-8 and base-16
// values are left-padded with zeroes.
//
// Printf supports the built-in integer, string and bool types but will not
// invoke Stringer implementations; the itables required for interface
// dispatch may not have been initialized yet when it runs.
func Printf(format string, args ...interface{}) {
	Fprintf(GetOutputSink(), format, args...)
}

// Fprintf behaves exactly like Printf but writes the formatted output to the
// supplied io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var argIndex, padLen int

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			writeByte(w, format[i])
			continue
		}

		padLen = 0
	scanVerb:
		for i++; i < len(format); i++ {
			switch ch := format[i]; {
			case ch == '%':
				writeByte(w, '%')
				break scanVerb
			case ch >= '0' && ch <= '9':
				padLen = padLen*10 + int(ch-'0')
			case ch == 'd' || ch == 'o' || ch == 'x' || ch == 's' || ch == 't':
				if argIndex >= len(args) {
					w.Write(errMissingArg)
					break scanVerb
				}

				switch ch {
				case 'o':
					fmtInt(w, args[argIndex], 8, padLen)
				case 'd':
					fmtInt(w, args[argIndex], 10, padLen)
				case 'x':
					fmtInt(w, args[argIndex], 16, padLen)
				case 's':
					fmtString(w, args[argIndex], padLen)
				case 't':
					fmtBool(w, args[argIndex])
				}

				argIndex++
				break scanVerb
			default:
				w.Write(errNoVerb)
				break scanVerb
			}
		}
	}

	for ; argIndex < len(args); argIndex++ {
		w.Write(errExtraArg)
	}
}

// writeByte emits a single byte through the shared one-byte window.
func writeByte(w io.Writer, b byte) {
	singleByte[0] = b
	w.Write(singleByte)
}

// fmtString writes a string or []byte value, left-padding it with spaces up
// to padLen characters.
func fmtString(w io.Writer, v interface{}, padLen int) {
	switch val := v.(type) {
	case string:
		for i := len(val); i < padLen; i++ {
			writeByte(w, ' ')
		}
		// converting the string to a byte slice would allocate so the
		// contents are emitted one byte at a time.
		for i := 0; i < len(val); i++ {
			writeByte(w, val[i])
		}
	case []byte:
		for i := len(val); i < padLen; i++ {
			writeByte(w, ' ')
		}
		w.Write(val)
	default:
		w.Write(errWrongArgType)
	}
}

// fmtBool writes the string representation of a boolean value.
func fmtBool(w io.Writer, v interface{}) {
	val, ok := v.(bool)
	if !ok {
		w.Write(errWrongArgType)
		return
	}

	if val {
		w.Write(trueValue)
	} else {
		w.Write(falseValue)
	}
}

// fmtInt writes a formatted version of integer value v in the requested
// base, applying the padding specified by padLen. All built-in signed and
// unsigned integer types are supported.
func fmtInt(w io.Writer, v interface{}, base, padLen int) {
	var (
		uval             uint64
		sval             int64
		signed, negative bool
	)

	switch num := v.(type) {
	case uint8:
		uval = uint64(num)
	case uint16:
		uval = uint64(num)
	case uint32:
		uval = uint64(num)
	case uint64:
		uval = num
	case uint:
		uval = uint64(num)
	case uintptr:
		uval = uint64(num)
	case int8:
		sval, signed = int64(num), true
	case int16:
		sval, signed = int64(num), true
	case int32:
		sval, signed = int64(num), true
	case int64:
		sval, signed = num, true
	case int:
		sval, signed = int64(num), true
	default:
		w.Write(errWrongArgType)
		return
	}

	if signed {
		if sval < 0 {
			negative = true
			uval = uint64(-sval)
		} else {
			uval = uint64(sval)
		}
	}

	if padLen >= numBufSize {
		padLen = numBufSize - 1
	}

	// Emit the digits right to left into numBuf
	pos := numBufSize
	for {
		pos--

		digit := byte(uval % uint64(base))
		if digit < 10 {
			numBuf[pos] = '0' + digit
		} else {
			numBuf[pos] = 'a' + digit - 10
		}

		uval /= uint64(base)
		if uval == 0 {
			break
		}
	}

	padCh := byte(' ')
	if base != 10 {
		padCh = '0'
	}

	switch {
	case negative && padCh == '0':
		// The sign precedes any zero padding
		for pos > 1 && numBufSize-pos < padLen-1 {
			pos--
			numBuf[pos] = padCh
		}
		pos--
		numBuf[pos] = '-'
	case negative:
		pos--
		numBuf[pos] = '-'
		for pos > 0 && numBufSize-pos < padLen {
			pos--
			numBuf[pos] = ' '
		}
	default:
		for pos > 0 && numBufSize-pos < padLen {
			pos--
			numBuf[pos] = padCh
		}
	}

	w.Write(numBuf[pos:])
}
