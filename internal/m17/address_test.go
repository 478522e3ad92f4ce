package m17

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestAddressKnownVector(t *testing.T) {
	addr, err := NewAddressFromCallsign("W2FBI")
	if err != nil {
		t.Fatalf("NewAddressFromCallsign: %v", err)
	}
	if addr.Numeric() != 0x161AE1F {
		t.Fatalf("numeric = %#x, want 0x161AE1F", addr.Numeric())
	}

	b := addr.Bytes()
	back, err := NewAddressFromBytes(b[:])
	if err != nil {
		t.Fatalf("NewAddressFromBytes: %v", err)
	}
	if back.Callsign() != "W2FBI" {
		t.Fatalf("callsign = %q, want W2FBI", back.Callsign())
	}
}

func TestAddressRoundTrip(t *testing.T) {
	tests := []string{
		"W2FBI",
		"N0CALL",
		"KC1AWV",
		"AB1CDE-9",
		"X",
		"ABCDEFGHI",
		"W1AW/P",
	}

	for _, cs := range tests {
		addr, err := NewAddressFromCallsign(cs)
		if err != nil {
			t.Errorf("encode %q: %v", cs, err)
			continue
		}
		if got := addr.Callsign(); got != cs {
			t.Errorf("round trip %q -> %q", cs, got)
		}
	}
}

func TestAddressBroadcast(t *testing.T) {
	addr, err := NewAddressFromCallsign("@ALL")
	if err != nil {
		t.Fatalf("encode @ALL: %v", err)
	}
	if !addr.IsBroadcast() {
		t.Fatal("expected broadcast")
	}
	if addr.Numeric() != BroadcastAddress {
		t.Fatalf("numeric = %#x, want %#x", addr.Numeric(), BroadcastAddress)
	}
	if addr.Callsign() != "@ALL" {
		t.Fatalf("callsign = %q, want @ALL", addr.Callsign())
	}
}

func TestAddressHash(t *testing.T) {
	addr, err := NewAddressFromCallsign("#PARROT")
	if err != nil {
		t.Fatalf("encode #PARROT: %v", err)
	}
	if !addr.IsHash() {
		t.Fatal("expected hash address")
	}
	if addr.IsRegular() || addr.IsBroadcast() {
		t.Fatal("hash address misclassified")
	}
	if got := addr.Callsign(); got != "#PARROT" {
		t.Fatalf("callsign = %q, want #PARROT", got)
	}
}

func TestAddressEmptyCallsign(t *testing.T) {
	addr, err := NewAddressFromCallsign("")
	if err != nil {
		t.Fatalf("encode empty: %v", err)
	}
	if addr.Numeric() != 0 {
		t.Fatalf("numeric = %d, want 0", addr.Numeric())
	}
	if addr.Callsign() != "" {
		t.Fatalf("callsign = %q, want empty", addr.Callsign())
	}
}

func TestAddressErrors(t *testing.T) {
	if _, err := NewAddressFromCallsign("TOOLONGCALL"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("too long: err = %v", err)
	}
	if _, err := NewAddressFromCallsign("BAD$CALL"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("invalid char: err = %v", err)
	}
	if _, err := NewAddressFromCallsign("#TOOLONGX9"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("hash too long: err = %v", err)
	}
	if _, err := NewAddressFromNumeric(1 << 48); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("out of range: err = %v", err)
	}
	if _, err := NewAddressFromBytes([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("short bytes: err = %v", err)
	}
}

func TestAddressLowercaseNormalized(t *testing.T) {
	a, err := NewAddressFromCallsign("w2fbi")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if a.Numeric() != 0x161AE1F {
		t.Fatalf("numeric = %#x, want 0x161AE1F", a.Numeric())
	}
}

func TestAddressBytesRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64Range(0, BroadcastAddress).Draw(t, "numeric")
		addr, err := NewAddressFromNumeric(n)
		if err != nil {
			t.Fatalf("from numeric: %v", err)
		}
		b := addr.Bytes()
		back, err := NewAddressFromBytes(b[:])
		if err != nil {
			t.Fatalf("from bytes: %v", err)
		}
		if back.Numeric() != n {
			t.Fatalf("round trip %#x -> %#x", n, back.Numeric())
		}
	})
}

func TestAddressCallsignRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// build a callsign that survives decode: no leading/trailing
		// spaces, first digit nonzero
		n := rapid.IntRange(1, 9).Draw(t, "len")
		cs := make([]byte, n)
		for i := range cs {
			cs[i] = CallsignAlphabet[rapid.IntRange(1, 39).Draw(t, "char")]
		}

		addr, err := NewAddressFromCallsign(string(cs))
		if err != nil {
			t.Fatalf("encode %q: %v", cs, err)
		}
		if got := addr.Callsign(); got != string(cs) {
			t.Fatalf("round trip %q -> %q", cs, got)
		}
	})
}
