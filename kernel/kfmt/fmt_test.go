package kfmt

import (
	"bytes"
	"testing"
)

func TestFprintf(t *testing.T) {
	specs := []struct {
		format string
		args   []interface{}
		exp    string
	}{
		{"no verbs", nil, "no verbs"},
		{"literal %% escape", nil, "literal % escape"},
		{"%s and %s", []interface{}{"foo", []byte("bar")}, "foo and bar"},
		{"%5s|", []interface{}{"ab"}, "   ab|"},
		{"%d", []interface{}{42}, "42"},
		{"%d", []interface{}{-42}, "-42"},
		{"%5d|", []interface{}{123}, "  123|"},
		{"%5d|", []interface{}{-123}, " -123|"},
		{"%x", []interface{}{uint64(0xbadf00d)}, "badf00d"},
		{"%10x|", []interface{}{uint32(0xf00)}, "0000000f00|"},
		{"%o", []interface{}{uint8(8)}, "010"},
		{"%t %t", []interface{}{true, false}, "true false"},
		{"%d", []interface{}{uintptr(0x1000)}, "4096"},
		{"%d %d %d %d", []interface{}{int8(-1), int16(2), int32(-3), int64(4)}, "-1 2 -3 4"},
		{"%d %d %d", []interface{}{uint(1), uint16(2), uint64(3)}, "1 2 3"},
		{"%d", nil, "(MISSING)"},
		{"%q", []interface{}{"huh"}, "%!(NOVERB)%!(EXTRA)"},
		{"%d", []interface{}{"not a number"}, "%!(WRONGTYPE)"},
		{"%t", []interface{}{42}, "%!(WRONGTYPE)"},
		{"%s", []interface{}{42}, "%!(WRONGTYPE)"},
		{"ok", []interface{}{1, 2}, "ok%!(EXTRA)%!(EXTRA)"},
	}

	var buf bytes.Buffer
	for specIndex, spec := range specs {
		buf.Reset()
		Fprintf(&buf, spec.format, spec.args...)

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected output %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestPrintfBeforeAndAfterSinkRegistration(t *testing.T) {
	defer func() {
		outputSink = nil
		earlyBuffer.readIndex = 0
		earlyBuffer.writeIndex = 0
	}()

	outputSink = nil
	Printf("early: %d\n", 1)

	// Registering a sink must drain the early buffer into it and redirect
	// any further output.
	var buf bytes.Buffer
	SetOutputSink(&buf)
	Printf("late: %d\n", 2)

	if exp, got := "early: 1\nlate: 2\n", buf.String(); got != exp {
		t.Fatalf("expected sink to contain %q; got %q", exp, got)
	}
}
