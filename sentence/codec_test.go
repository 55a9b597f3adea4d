package sentence

import (
	"errors"
	"testing"
)

func sameFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEncode_KnownLines(t *testing.T) {
	cases := []struct {
		talker, typ string
		fields      []string
		want        string
	}{
		{"PMTK", "605", nil, "$PMTK605*31\r\n"},
		{"PMTK", "251", []string{"115200"}, "$PMTK251,115200*1F\r\n"},
		{"PMTK", "300", []string{"1000"}, "$PMTK300,1000*1C\r\n"},
		{"PMTK", "314", []string{"0", "1", "0", "1", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0"}, "$PMTK314,0,1,0,1,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0*28\r\n"},
	}
	for _, tc := range cases {
		got, err := Encode(tc.talker, tc.typ, tc.fields)
		if err != nil {
			t.Fatalf("Encode(%s%s): %v", tc.talker, tc.typ, err)
		}
		if got != tc.want {
			t.Fatalf("Encode(%s%s) = %q, want %q", tc.talker, tc.typ, got, tc.want)
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := []struct {
		talker, typ string
		fields      []string
	}{
		{"PMTK", "605", nil},
		{"PMTK", "001", []string{"314", "3"}},
		{"GP", "GGA", []string{"172814.0", "3723.46587704", "N", "12202.26957864", "W", "2", "6", "1.2", "18.893", "M", "-25.669", "M", "2.0", "0031"}},
		{"GN", "RMC", []string{"", "", ""}},
		{"", "GGA", []string{"1"}},
		{"PMTK", "251", []string{""}},
	}
	for _, tc := range cases {
		raw, err := Encode(tc.talker, tc.typ, tc.fields)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if !Validate(raw) {
			t.Fatalf("Validate(%q) = false", raw)
		}
		f := Decode(raw)
		if f.Talker != tc.talker || f.Type != tc.typ || !sameFields(f.Fields, tc.fields) {
			t.Fatalf("Decode(%q) = %+v, want %s/%s/%q", raw, f, tc.talker, tc.typ, tc.fields)
		}
		if f.Raw+LineDelimiter != raw {
			t.Fatalf("Raw = %q, want %q without CRLF", f.Raw, raw)
		}
	}
}

func TestEncode_Rejects(t *testing.T) {
	if _, err := Encode("PMTK", "60", nil); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("short type: err = %v", err)
	}
	if _, err := Encode("PM$TK", "605", nil); !errors.Is(err, ErrReservedChar) {
		t.Fatalf("talker: err = %v", err)
	}
	if _, err := Encode("PMTK", "251", []string{"1,2"}); !errors.Is(err, ErrReservedChar) {
		t.Fatalf("field: err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	good := MustEncode("PMTK", "001", []string{"314", "3"})
	cases := []struct {
		name string
		line string
		want bool
	}{
		{"encoded", good, true},
		{"no crlf", "$PMTK001,314,3*36", true},
		{"lower hex", "$GPGGA,172814.0,3723.46587704,N,12202.26957864,W,2,6,1.2,18.893,M,-25.669,M,2.0,0031*4f", true},
		{"corrupt checksum", "$PMTK001,314,3*37", false},
		{"corrupt payload", "$PMTK001,314,2*36", false},
		{"missing start", "PMTK001,314,3*36", false},
		{"missing star", "$PMTK001,314,3", false},
		{"short checksum", "$PMTK001,314,3*3", false},
		{"long checksum", "$PMTK001,314,3*366", false},
		{"not hex", "$PMTK001,314,3*G6", false},
		{"short address", "$AB*03", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Validate(tc.line); got != tc.want {
				t.Fatalf("Validate(%q) = %v, want %v", tc.line, got, tc.want)
			}
		})
	}
}

func TestValidate_EveryCorruptedChecksum(t *testing.T) {
	payload := "PMTK001,300,3"
	cs := Checksum(payload)
	for i := 0; i < 256; i++ {
		if byte(i) == cs {
			continue
		}
		line := "$" + payload + "*" + hex2(byte(i))
		if Validate(line) {
			t.Fatalf("Validate accepted checksum %02X for %q", i, payload)
		}
	}
}

func hex2(b byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}

func TestDecode_Frame(t *testing.T) {
	f := Decode("$PMTK001,251,3*36\r\n")
	if f.Talker != "PMTK" || f.Type != "001" {
		t.Fatalf("address = %s/%s", f.Talker, f.Type)
	}
	if f.Field(0) != "251" || f.Field(1) != "3" || f.Field(2) != "" {
		t.Fatalf("fields = %q", f.Fields)
	}
	if f.Address() != "PMTK001" {
		t.Fatalf("Address() = %q", f.Address())
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("$PMTK705,AXN_2.10*00"); err == nil {
		t.Fatalf("expected error for bad checksum")
	}
	f, err := Parse("$PMTK605*31")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Type != "605" || len(f.Fields) != 0 {
		t.Fatalf("frame = %+v", f)
	}
}
