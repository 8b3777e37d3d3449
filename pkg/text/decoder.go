// Package text turns archive entry names of unknown encoding into UTF-8.
package text

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// DefaultEncodings is the candidate order used when none is configured.
var DefaultEncodings = []string{
	"utf-8",
	"shift_jis",
	"windows-31j",
	"euc-jp",
	"gb2312",
	"gbk",
	"gb18030",
}

var replacement = []byte(string(utf8.RuneError))

type candidate struct {
	label string
	enc   encoding.Encoding // nil for utf-8
}

// Decoder tries its candidates in order. Once a candidate succeeds, later
// calls start from it; earlier candidates are not tried again.
type Decoder struct {
	candidates []candidate
	pos        int
}

// NewDecoder builds a decoder from encoding labels. Unknown labels are
// dropped. No labels means DefaultEncodings.
func NewDecoder(labels []string) *Decoder {
	if len(labels) == 0 {
		labels = DefaultEncodings
	}
	d := &Decoder{}
	for _, label := range labels {
		if c, ok := lookup(label); ok {
			d.candidates = append(d.candidates, c)
		}
	}
	if len(d.candidates) == 0 {
		d.candidates = []candidate{{label: "utf-8"}}
	}
	return d
}

// UnknownEncodings returns the labels NewDecoder would drop.
func UnknownEncodings(labels []string) []string {
	var unknown []string
	for _, label := range labels {
		if _, ok := lookup(label); !ok {
			unknown = append(unknown, label)
		}
	}
	return unknown
}

func lookup(label string) (candidate, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "utf-8" || label == "utf8" {
		return candidate{label: "utf-8"}, true
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return candidate{}, false
	}
	return candidate{label: label, enc: enc}, true
}

// ToUTF8 decodes raw with the first candidate that accepts it. If none
// does, raw is returned unchanged.
func (d *Decoder) ToUTF8(raw []byte) string {
	for i := d.pos; i < len(d.candidates); i++ {
		if s, ok := d.candidates[i].decode(raw); ok {
			d.pos = i
			return s
		}
	}
	return string(raw)
}

// Encoding returns the label of the candidate the decoder currently starts
// from.
func (d *Decoder) Encoding() string {
	if d.pos >= len(d.candidates) {
		return ""
	}
	return d.candidates[d.pos].label
}

func (c candidate) decode(raw []byte) (string, bool) {
	if c.enc == nil {
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}

	out, _, err := transform.Bytes(c.enc.NewDecoder(), raw)
	if err != nil {
		return "", false
	}
	// x/text decoders substitute U+FFFD for bytes they cannot map.
	if bytes.Contains(out, replacement) && !bytes.Contains(raw, replacement) {
		return "", false
	}
	return string(out), true
}
