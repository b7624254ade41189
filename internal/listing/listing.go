// Package listing classifies the lines of an objdump -z -D text listing.
//
// The layout knowledge lives here and nowhere else. Octets are read from
// fixed character columns rather than whitespace-separated fields because
// some mnemonics ("adc", "add") look like hex numbers.
package listing

import (
	"bufio"
	"io"
	"regexp"
)

// Kind tags the variant held by an Event.
type Kind int

const (
	Irrelevant Kind = iota
	Octets
	Label
)

func (k Kind) String() string {
	switch k {
	case Octets:
		return "octets"
	case Label:
		return "label"
	}
	return "irrelevant"
}

// Event is the classification of one listing line.
type Event struct {
	Kind Kind

	// Octets holds up to three instruction bytes, in listing order.
	Octets []byte

	// Name and Width are set for labels. Width is the size in bytes of a
	// stored value, derived from the address field: 8 hex digits for 32-bit
	// objects, 16 for 64-bit ones.
	Name  string
	Width int
}

const (
	octetMargin  = 6
	octetStride  = 3
	octetColumns = 3
)

var labelPattern = regexp.MustCompile(`^(00000000|0000000000000000) <(.*)>:`)

// Classify turns a single listing line (without its newline) into an Event.
func Classify(line string) Event {
	if m := labelPattern.FindStringSubmatch(line); m != nil {
		return Event{Kind: Label, Name: m[2], Width: len(m[1]) / 2}
	}

	var octets []byte
	for i := 0; i < octetColumns; i++ {
		idx := octetMargin + i*octetStride
		if idx+octetStride > len(line) {
			break
		}
		b, ok := parseOctet(line[idx : idx+octetStride])
		if !ok {
			break
		}
		octets = append(octets, b)
	}
	if len(octets) == 0 {
		return Event{Kind: Irrelevant}
	}
	return Event{Kind: Octets, Octets: octets}
}

// parseOctet accepts exactly two hex digits followed by a space.
func parseOctet(col string) (byte, bool) {
	if len(col) != octetStride || col[2] != ' ' {
		return 0, false
	}
	hi, ok := unhex(col[0])
	if !ok {
		return 0, false
	}
	lo, ok := unhex(col[1])
	if !ok {
		return 0, false
	}
	return hi<<4 | lo, true
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// maxLine bounds a single listing line. objdump prints demangled C++ names
// in label lines, and those run well past bufio's default.
const maxLine = 4 << 20

// Scanner reads a listing one line at a time and classifies each line.
type Scanner struct {
	s     *bufio.Scanner
	event Event
	lines int
}

func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Scanner{s: s}
}

// Scan advances to the next line. It returns false at end of input or on a
// read error; see Err.
func (s *Scanner) Scan() bool {
	if !s.s.Scan() {
		return false
	}
	s.lines++
	s.event = Classify(s.s.Text())
	return true
}

// Event returns the classification of the most recent line.
func (s *Scanner) Event() Event { return s.event }

// Line returns the 1-based number of the most recent line.
func (s *Scanner) Line() int { return s.lines }

func (s *Scanner) Err() error { return s.s.Err() }
