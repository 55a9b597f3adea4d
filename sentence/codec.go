// Package sentence encodes and decodes checksum-framed NMEA 0183 / PMTK lines.
//
// A line looks like
//
//	$<talker><type>,<field0>,<field1>,...*<HH>\r\n
//
// where <type> is always the last three characters of the address and HH is
// the XOR of every byte between '$' and '*', written as two hex digits.
package sentence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	StartMarker   = '$'
	ChecksumSep   = '*'
	FieldSep      = ','
	LineDelimiter = "\r\n"

	typeLen  = 3
	reserved = "$*,\r\n"
)

var (
	// ErrInvalidType is returned by Encode when the type is not exactly three characters.
	ErrInvalidType = errors.New("sentence: type must be 3 characters")
	// ErrReservedChar is returned by Encode when a talker or field would break framing.
	ErrReservedChar = errors.New("sentence: reserved character in talker or field")
)

// Frame is one decoded line. Raw holds the line without its trailing CR/LF.
type Frame struct {
	Talker string
	Type   string
	Fields []string
	Raw    string
}

// Field returns field i, or "" when the frame has fewer fields.
func (f Frame) Field(i int) string {
	if i < 0 || i >= len(f.Fields) {
		return ""
	}
	return f.Fields[i]
}

func (f Frame) Address() string {
	return f.Talker + f.Type
}

func (f Frame) String() string {
	return f.Raw
}

// Checksum is the XOR of every byte in payload.
func Checksum(payload string) byte {
	cs := byte(0)
	for i := 0; i < len(payload); i++ {
		cs ^= payload[i]
	}
	return cs
}

// Encode builds a complete line, CR/LF included.
func Encode(talker, typ string, fields []string) (string, error) {
	if len(typ) != typeLen || strings.ContainsAny(typ, reserved) {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	if strings.ContainsAny(talker, reserved) {
		return "", fmt.Errorf("%w: talker %q", ErrReservedChar, talker)
	}
	var b strings.Builder
	b.WriteString(talker)
	b.WriteString(typ)
	for i, f := range fields {
		if strings.ContainsAny(f, reserved) {
			return "", fmt.Errorf("%w: field %d %q", ErrReservedChar, i, f)
		}
		b.WriteByte(FieldSep)
		b.WriteString(f)
	}
	payload := b.String()
	return fmt.Sprintf("%c%s%c%02X%s", StartMarker, payload, ChecksumSep, Checksum(payload), LineDelimiter), nil
}

// MustEncode is Encode for callers that build frames from constants.
func MustEncode(talker, typ string, fields []string) string {
	raw, err := Encode(talker, typ, fields)
	if err != nil {
		panic(err)
	}
	return raw
}

// Validate reports whether raw is a well formed line with a matching checksum.
// A trailing CR/LF is allowed.
func Validate(raw string) bool {
	s := strings.TrimRight(raw, LineDelimiter)
	if len(s) == 0 || s[0] != StartMarker {
		return false
	}
	star := strings.IndexByte(s, ChecksumSep)
	if star < 0 || len(s)-star-1 != 2 {
		return false
	}
	want, err := strconv.ParseUint(s[star+1:], 16, 8)
	if err != nil {
		return false
	}
	payload := s[1:star]
	address := payload
	if i := strings.IndexByte(payload, FieldSep); i >= 0 {
		address = payload[:i]
	}
	if len(address) < typeLen {
		return false
	}
	return Checksum(payload) == byte(want)
}

// Decode splits a line that passed Validate. Lines that did not pass Validate
// come back with only Raw set.
func Decode(raw string) Frame {
	s := strings.TrimRight(raw, LineDelimiter)
	star := strings.IndexByte(s, ChecksumSep)
	if len(s) == 0 || s[0] != StartMarker || star < 0 {
		return Frame{Raw: s}
	}
	parts := strings.Split(s[1:star], string(FieldSep))
	address := parts[0]
	if len(address) < typeLen {
		return Frame{Raw: s}
	}
	f := Frame{
		Talker: address[:len(address)-typeLen],
		Type:   address[len(address)-typeLen:],
		Raw:    s,
	}
	if len(parts) > 1 {
		f.Fields = parts[1:]
	}
	return f
}

// Parse validates and decodes raw in one step.
func Parse(raw string) (Frame, error) {
	if !Validate(raw) {
		return Frame{}, fmt.Errorf("sentence: invalid line %q", strings.TrimRight(raw, LineDelimiter))
	}
	return Decode(raw), nil
}
