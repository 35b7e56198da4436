// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/polyboot/lib/testutil"
)

func module(sections ...testutil.Section) []byte {
	return testutil.Program{Sections: sections}.Bytes()
}

func TestParseExtractsSegments(t *testing.T) {
	data := module(
		testutil.Section{Name: ShellSegment, Data: []byte("<html></html>")},
		testutil.Section{Name: ConfigSegment, Data: []byte{1, 0, 0, 0}},
		testutil.Section{Name: PayloadDataSegment, Data: []byte("payload")},
	)

	c, err := Parse(data, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !bytes.Equal(c.Payload(), data) {
		t.Error("payload is not the whole module")
	}

	shell, err := c.Segment(ShellSegment)
	if err != nil {
		t.Fatalf("Segment(shell): %v", err)
	}
	if string(shell) != "<html></html>" {
		t.Errorf("shell = %q", shell)
	}

	names := c.Names()
	want := []string{ShellSegment, ConfigSegment, PayloadDataSegment}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestParseCopiesInput(t *testing.T) {
	data := module(testutil.Section{Name: "notes", Data: []byte("abc")})
	c, err := Parse(data, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for i := range data {
		data[i] = 0xff
	}
	notes, err := c.Segment("notes")
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if string(notes) != "abc" {
		t.Errorf("segment changed with caller buffer: %q", notes)
	}
}

func TestParseEmptySegmentData(t *testing.T) {
	c, err := Parse(module(testutil.Section{Name: ConfigSegment}), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, present, err := c.Optional(ConfigSegment)
	if err != nil || !present {
		t.Fatalf("Optional = present %v, err %v", present, err)
	}
	if len(data) != 0 {
		t.Errorf("data = %v, want empty", data)
	}
}

func TestParseMalformed(t *testing.T) {
	valid := module()
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", valid[:6]},
		{"bad magic", append([]byte("\x00ASM"), valid[4:]...)},
		{"bad version", append(append([]byte{}, valid[:4]...), append([]byte{2, 0, 0, 0}, valid[8:]...)...)},
		{"section past end", append(append([]byte{}, valid...), 0x00, 0x10, 0x01, 'a')},
		{"truncated size", append(append([]byte{}, valid...), 0x00, 0x80)},
		{"oversized LEB", append(append([]byte{}, valid...), 0x00, 0xff, 0xff, 0xff, 0xff, 0x7f)},
		{"name past section", append(append([]byte{}, valid...), 0x00, 0x02, 0x05, 'a')},
		{"invalid UTF-8 name", append(append([]byte{}, valid...), 0x00, 0x02, 0x01, 0xff)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(test.data, Options{})
			if !errors.Is(err, ErrMalformedContainer) {
				t.Errorf("Parse error = %v, want ErrMalformedContainer", err)
			}
		})
	}
}

func TestParseRejectsDuplicateReserved(t *testing.T) {
	data := module(
		testutil.Section{Name: ConfigSegment, Data: []byte{1}},
		testutil.Section{Name: ConfigSegment, Data: []byte{2}},
	)
	_, err := Parse(data, Options{})
	if !errors.Is(err, ErrAmbiguousSegment) {
		t.Fatalf("Parse error = %v, want ErrAmbiguousSegment", err)
	}
	var segmentErr *SegmentError
	if !errors.As(err, &segmentErr) || segmentErr.Name != ConfigSegment {
		t.Errorf("error does not name the segment: %v", err)
	}
}

func TestDuplicateUnreservedKept(t *testing.T) {
	data := module(
		testutil.Section{Name: "blob", Data: []byte("one")},
		testutil.Section{Name: "blob", Data: []byte("two")},
	)
	c, err := Parse(data, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := len(c.Segments()); got != 2 {
		t.Errorf("len(Segments()) = %d, want 2", got)
	}
	if _, err := c.Segment("blob"); !errors.Is(err, ErrAmbiguousSegment) {
		t.Errorf("Segment(blob) error = %v, want ErrAmbiguousSegment", err)
	}
	if _, _, err := c.Optional("blob"); !errors.Is(err, ErrAmbiguousSegment) {
		t.Errorf("Optional(blob) error = %v, want ErrAmbiguousSegment", err)
	}
}

func TestParseUncompilablePayload(t *testing.T) {
	// A type section of garbage followed by two custom sections. No
	// engine would compile it, but the segments are still readable.
	data := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	data = append(data, 0x01, 0x03, 0xff, 0xff, 0xff)
	shellOffset := len(data)
	data = AppendSegment(data, ShellSegment, []byte("<p>fallback</p>"))
	notesOffset := len(data)
	data = AppendSegment(data, "notes", nil)

	c, err := Parse(data, Options{Required: []string{ShellSegment}})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	segments := c.Segments()
	if len(segments) != 2 {
		t.Fatalf("Segments() = %+v, want two", segments)
	}
	if segments[0].Offset != shellOffset || segments[1].Offset != notesOffset {
		t.Errorf("offsets = %d, %d, want %d, %d", segments[0].Offset, segments[1].Offset, shellOffset, notesOffset)
	}
	if string(segments[0].Data) != "<p>fallback</p>" {
		t.Errorf("shell = %q", segments[0].Data)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	cut := module(testutil.Section{Name: "cut", Data: []byte("abcdef")})
	truncated := cut[:len(cut)-3]

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{name: "reserved and unknown", data: module(
			testutil.Section{Name: "zeta", Data: []byte("z")},
			testutil.Section{Name: ShellSegment, Data: []byte("<html></html>")},
			testutil.Section{Name: "alpha", Data: []byte("a")},
			testutil.Section{Name: ConfigSegment, Data: []byte{1, 0, 0, 0}},
		)},
		{name: "repeated unknown", data: module(
			testutil.Section{Name: "blob", Data: []byte("first")},
			testutil.Section{Name: "other", Data: nil},
			testutil.Section{Name: "blob", Data: []byte("second")},
		)},
		{name: "appended", data: AppendSegment(AppendSegment(module(), "b", []byte("2")), "a", []byte("1"))},
		{name: "duplicate reserved", data: module(
			testutil.Section{Name: "notes", Data: []byte("n")},
			testutil.Section{Name: ConfigSegment, Data: []byte{1}},
			testutil.Section{Name: ConfigSegment, Data: []byte{2}},
		), err: ErrAmbiguousSegment},
		{name: "truncated", data: truncated, err: ErrMalformedContainer},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			first, firstErr := Parse(test.data, Options{})
			second, secondErr := Parse(test.data, Options{})

			if !errors.Is(firstErr, test.err) || !errors.Is(secondErr, test.err) {
				t.Fatalf("Parse errors = %v, %v, want %v both times", firstErr, secondErr, test.err)
			}
			if firstErr != nil {
				if firstErr.Error() != secondErr.Error() {
					t.Errorf("error text differs: %q then %q", firstErr, secondErr)
				}
				return
			}

			a, b := first.Segments(), second.Segments()
			if len(a) != len(b) {
				t.Fatalf("segment counts differ: %d then %d", len(a), len(b))
			}
			for i := range a {
				if a[i].Name != b[i].Name || a[i].Offset != b[i].Offset || !bytes.Equal(a[i].Data, b[i].Data) {
					t.Errorf("segment %d differs: %+v then %+v", i, a[i], b[i])
				}
			}
			if !bytes.Equal(first.Payload(), second.Payload()) {
				t.Error("payloads differ")
			}
		})
	}
}

func TestRequiredSegments(t *testing.T) {
	data := module(testutil.Section{Name: ShellSegment, Data: []byte("x")})

	if _, err := Parse(data, Options{Required: []string{ShellSegment}}); err != nil {
		t.Errorf("present required segment: %v", err)
	}

	_, err := Parse(data, Options{Required: []string{ConfigSegment}})
	var segmentErr *SegmentError
	if !errors.As(err, &segmentErr) || !errors.Is(err, ErrMissingSegment) || segmentErr.Name != ConfigSegment {
		t.Errorf("Parse error = %v, want missing %s", err, ConfigSegment)
	}
}

func TestSegmentMissing(t *testing.T) {
	c, err := Parse(module(), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := c.Segment(GlueSegment); !errors.Is(err, ErrMissingSegment) {
		t.Errorf("Segment error = %v, want ErrMissingSegment", err)
	}
	if _, present, err := c.Optional(GlueSegment); present || err != nil {
		t.Errorf("Optional = present %v, err %v; want absent without error", present, err)
	}
	if c.Has(GlueSegment) {
		t.Error("Has reported an absent segment")
	}
}

func TestAppendSegment(t *testing.T) {
	base := module()
	original := bytes.Clone(base)

	extended := AppendSegment(base, ConfigSegment, []byte("script"))
	if !bytes.Equal(base, original) {
		t.Error("AppendSegment modified its input")
	}

	c, err := Parse(extended, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := c.Segment(ConfigSegment)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if string(data) != "script" {
		t.Errorf("data = %q, want script", data)
	}

	// Matches the fixture encoder byte for byte.
	if want := append(bytes.Clone(base), testutil.CustomSection(ConfigSegment, []byte("script"))...); !bytes.Equal(extended, want) {
		t.Error("AppendSegment encoding differs from a plain custom section")
	}
}

func TestReserved(t *testing.T) {
	for _, name := range []string{ShellSegment, ConfiguratorSegment, GlueSegment, ConfigSegment} {
		if !Reserved(name) {
			t.Errorf("Reserved(%q) = false", name)
		}
	}
	for _, name := range []string{ConfiguratorDataSegment, PayloadDataSegment, ""} {
		if Reserved(name) {
			t.Errorf("Reserved(%q) = true", name)
		}
	}
}
