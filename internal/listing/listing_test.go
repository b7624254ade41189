package listing

import (
	"strings"
	"testing"

	"github.com/kr/pretty"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Event
	}{
		{"00000000 <v8dbg_foo>:", Event{Kind: Label, Name: "v8dbg_foo", Width: 4}},
		{"0000000000000000 <v8dbg_bar>:", Event{Kind: Label, Name: "v8dbg_bar", Width: 8}},
		{"0000000000000000 <_ZN2v88internal4Heap3GetEv>:", Event{Kind: Label, Name: "_ZN2v88internal4Heap3GetEv", Width: 8}},
		{"00000000 <operator<(a, b)>:", Event{Kind: Label, Name: "operator<(a, b)", Width: 4}},
		// Not a label, but columns 6..8 still read as an octet.
		{"00000010 <v8dbg_foo>:", Event{Kind: Octets, Octets: []byte{0x10}}},
		{"000000000000 <v8dbg_foo>:", Event{Kind: Irrelevant}},
		{"   0:\t78 56                \tjs     0x58", Event{Kind: Octets, Octets: []byte{0x78, 0x56}}},
		{"   2:\t34 12                \txor    $0x12,%al", Event{Kind: Octets, Octets: []byte{0x34, 0x12}}},
		{"   0:\tff ff ff ff          \t(bad)", Event{Kind: Octets, Octets: []byte{0xff, 0xff, 0xff}}},
		{"   0:\tAB cD 01 ", Event{Kind: Octets, Octets: []byte{0xab, 0xcd, 0x01}}},
		{"   4:\t00", Event{Kind: Irrelevant}},
		{"   4:\t00 ", Event{Kind: Octets, Octets: []byte{0x00}}},
		{"   4:\t0g 00 ", Event{Kind: Irrelevant}},
		{"   4:\t01 zz 02 ", Event{Kind: Octets, Octets: []byte{0x01}}},
		{"   4:\tadd    %al,(%rax)", Event{Kind: Irrelevant}},
		{"Disassembly of section .data.v8dbg_foo:", Event{Kind: Irrelevant}},
		{"In archive libv8_base.a:", Event{Kind: Irrelevant}},
		{"", Event{Kind: Irrelevant}},
	}
	for _, test := range tests {
		got := Classify(test.line)
		if diff := pretty.Diff(got, test.want); len(diff) > 0 {
			t.Errorf("Classify(%q) = %# v\ndiff: %v", test.line, pretty.Formatter(got), diff)
		}
	}
}

func TestScanner(t *testing.T) {
	in := strings.Join([]string{
		"",
		"Disassembly of section .data:",
		"",
		"00000000 <v8dbg_foo>:",
		"   0:\t78 56                \tjs     0x58",
	}, "\n")

	s := NewScanner(strings.NewReader(in))
	var kinds []Kind
	for s.Scan() {
		kinds = append(kinds, s.Event().Kind)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	want := []Kind{Irrelevant, Irrelevant, Irrelevant, Label, Octets}
	if diff := pretty.Diff(kinds, want); len(diff) > 0 {
		t.Errorf("kinds = %v want %v", kinds, want)
	}
	if s.Line() != 5 {
		t.Errorf("Line() = %d want 5", s.Line())
	}
}

func TestScannerLongLine(t *testing.T) {
	name := "v8dbg_" + strings.Repeat("x", 200*1024)
	s := NewScanner(strings.NewReader("00000000 <" + name + ">:\n"))
	if !s.Scan() {
		t.Fatalf("Scan() = false, err %v", s.Err())
	}
	if ev := s.Event(); ev.Kind != Label || ev.Name != name {
		t.Errorf("Event() = kind %v, name of length %d", ev.Kind, len(ev.Name))
	}
}
