package slideshow

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Seconds is a duration serialized as decimal seconds with one fractional digit.
type Seconds float64

// SecondsOf converts d to Seconds.
func SecondsOf(d time.Duration) Seconds {
	return Seconds(d.Seconds())
}

// Duration converts s back to a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

func (s Seconds) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(s), 'f', 1, 64)), nil
}

func (s *Seconds) UnmarshalText(b []byte) error {
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	*s = Seconds(v)
	return nil
}

// Static shows one file for Duration.
type Static struct {
	XMLName  xml.Name `xml:"static"`
	Duration Seconds  `xml:"duration"`
	File     string   `xml:"file"`
}

// Transition cross-fades From into To over Duration.
type Transition struct {
	XMLName  xml.Name `xml:"transition"`
	Duration Seconds  `xml:"duration"`
	From     string   `xml:"from"`
	To       string   `xml:"to"`
}

// Entry is one child of the background element. Exactly one field is set.
type Entry struct {
	Static     *Static
	Transition *Transition
}

// Background is a GNOME slideshow descriptor. Entry order is preserved.
type Background struct {
	Entries []Entry
}

// Statics returns the static entries in document order.
func (b *Background) Statics() []Static {
	var out []Static
	for _, e := range b.Entries {
		if e.Static != nil {
			out = append(out, *e.Static)
		}
	}
	return out
}

// Transitions returns the transition entries in document order.
func (b *Background) Transitions() []Transition {
	var out []Transition
	for _, e := range b.Entries {
		if e.Transition != nil {
			out = append(out, *e.Transition)
		}
	}
	return out
}

// Files returns the static files in document order.
func (b *Background) Files() []string {
	statics := b.Statics()
	files := make([]string, 0, len(statics))
	for _, s := range statics {
		files = append(files, s.File)
	}
	return files
}

func (b *Background) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "background"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, entry := range b.Entries {
		var err error
		switch {
		case entry.Static != nil:
			err = e.Encode(entry.Static)
		case entry.Transition != nil:
			err = e.Encode(entry.Transition)
		}
		if err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func (b *Background) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if start.Name.Local != "background" {
		return fmt.Errorf("unexpected root element <%s>", start.Name.Local)
	}
	b.Entries = nil
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "static":
				s := new(Static)
				if err := d.DecodeElement(s, &t); err != nil {
					return err
				}
				b.Entries = append(b.Entries, Entry{Static: s})
			case "transition":
				tr := new(Transition)
				if err := d.DecodeElement(tr, &t); err != nil {
					return err
				}
				b.Entries = append(b.Entries, Entry{Transition: tr})
			default:
				// starttime and friends are valid but unused
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// Cycle checks that the transitions link every static file into one loop, in the
// order the statics appear, and returns the visiting order starting at the first file.
func (b *Background) Cycle() ([]string, error) {
	files := b.Files()
	if len(files) == 0 {
		return nil, ErrNoImages
	}
	next := make(map[string]string, len(files))
	for _, t := range b.Transitions() {
		if _, dup := next[t.From]; dup {
			return nil, fmt.Errorf("%w: %s has more than one outgoing transition", ErrBrokenCycle, t.From)
		}
		next[t.From] = t.To
	}
	if len(next) != len(files) {
		return nil, fmt.Errorf("%w: %d statics but %d transitions", ErrBrokenCycle, len(files), len(next))
	}

	order := make([]string, 0, len(files))
	seen := make(map[string]bool, len(files))
	cur := files[0]
	for range files {
		if seen[cur] {
			return nil, fmt.Errorf("%w: %s revisited early", ErrBrokenCycle, cur)
		}
		seen[cur] = true
		order = append(order, cur)
		to, ok := next[cur]
		if !ok {
			return nil, fmt.Errorf("%w: no transition from %s", ErrBrokenCycle, cur)
		}
		cur = to
	}
	if cur != files[0] {
		return nil, fmt.Errorf("%w: loop does not return to %s", ErrBrokenCycle, files[0])
	}
	for i, f := range files {
		if order[i] != f {
			return nil, fmt.Errorf("%w: transition order differs from static order at %s", ErrBrokenCycle, f)
		}
	}
	return order, nil
}
