// Package extract rebuilds the values of debug-marker symbols from a
// classified disassembly listing.
package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"genv8constants/internal/listing"
)

// DefaultPrefix marks the symbols that carry debugging offsets.
const DefaultPrefix = "v8dbg"

// Constant is a finished symbol: its name as found in the archive and the
// little-endian value stored in its first Width bytes.
type Constant struct {
	Name  string
	Value uint64
	Width int
}

// State is the single in-flight symbol record. The zero value has no open
// record and a width of 4 bytes.
type State struct {
	name     string
	open     bool
	value    uint64
	consumed int
	width    int
}

func (s State) byteWidth() int {
	if s.width == 0 {
		return 4
	}
	return s.width
}

// Step applies one listing event and returns the new state. When ev is a
// label, the record open before it is flushed and returned.
func (s State) Step(ev listing.Event, prefix string) (State, *Constant) {
	switch ev.Kind {
	case listing.Octets:
		if !s.open {
			return s, nil
		}
		for _, b := range ev.Octets {
			if s.consumed >= s.byteWidth() {
				break
			}
			s.value += uint64(b) << (uint(s.consumed) * 8)
			s.consumed++
		}
		return s, nil

	case listing.Label:
		var c *Constant
		s, c = s.Flush()
		s.width = ev.Width
		if strings.HasPrefix(ev.Name, prefix) {
			s.name = ev.Name
			s.open = true
		}
		return s, c
	}
	return s, nil
}

// Flush closes the open record. Records that never saw an octet produce
// nothing, and neither does a second Flush.
func (s State) Flush() (State, *Constant) {
	var c *Constant
	if s.open && s.consumed > 0 {
		c = &Constant{Name: s.name, Value: s.value, Width: s.byteWidth()}
	}
	return State{width: s.width}, c
}

// A Sink receives each finished constant in listing order.
type Sink interface {
	Define(Constant) error
}

// Extractor drives a listing through State into a Sink.
type Extractor struct {
	Prefix string
	Log    zerolog.Logger
}

// Run consumes r to the end and returns the number of constants defined.
func (e *Extractor) Run(r io.Reader, sink Sink) (int, error) {
	prefix := e.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	var (
		st State
		c  *Constant
		n  int
	)
	define := func(line int) error {
		if c == nil {
			return nil
		}
		e.Log.Debug().Str("name", c.Name).Uint64("value", c.Value).Int("width", c.Width).Int("line", line).Msg("constant")
		if err := sink.Define(*c); err != nil {
			return err
		}
		n++
		return nil
	}

	s := listing.NewScanner(r)
	for s.Scan() {
		st, c = st.Step(s.Event(), prefix)
		if err := define(s.Line()); err != nil {
			return n, err
		}
	}
	if err := s.Err(); err != nil {
		return n, fmt.Errorf("reading listing at line %d: %w", s.Line()+1, err)
	}

	_, c = st.Flush()
	if err := define(s.Line()); err != nil {
		return n, err
	}
	return n, nil
}
