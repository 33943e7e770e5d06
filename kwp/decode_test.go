package kwp

import (
	"testing"

	"kwpdash/signal"
)

// TestDecodeTuple_FormulaTable covers every documented k in spec.md §4.1's
// formula table (the round-trip law from §8: decode(k, a, b) yields the
// value the table specifies, exactly).
func TestDecodeTuple_FormulaTable(t *testing.T) {
	cases := []struct {
		k, a, b uint8
		want    float32
		unit    string
	}{
		{1, 10, 20, 0.2 * 10 * 20, "rpm"},
		{2, 10, 20, 0.002 * 10 * 20, "%"},
		{3, 10, 20, 0.002 * 10 * 20, "deg"},
		{4, 10, 20, absF32(20-127) * 0.01 * 10, "ATDC"},
		{5, 10, 20, 10 * (20 - 100) * 0.1, "°C"},
		{6, 10, 20, 0.001 * 10 * 20, "V"},
		{7, 10, 20, 0.01 * 10 * 20, "km/h"},
		{8, 10, 20, 0.1 * 10 * 20, ""},
		{14, 10, 20, 0.005 * 10 * 20, "bar"},
		{18, 10, 20, 0.04 * 10 * 20, "mbar"},
		{19, 10, 20, 0.01 * 10 * 20, "l"},
		{36, 10, 20, 2560*10 + 10*20, "km"},
	}
	for _, c := range cases {
		got := decodeTuple(c.k, c.a, c.b)
		if !got.known {
			t.Fatalf("k=%d: decodeTuple reported unknown", c.k)
		}
		if got.value != c.want {
			t.Fatalf("k=%d: value = %v, want %v", c.k, got.value, c.want)
		}
		if got.unit != c.unit {
			t.Fatalf("k=%d: unit = %q, want %q", c.k, got.unit, c.unit)
		}
	}
}

func TestDecodeTuple_UnknownKIsNotFatal(t *testing.T) {
	got := decodeTuple(99, 1, 2)
	if got.known {
		t.Fatalf("k=99 should be unknown")
	}
}

func TestSplitTuples_IgnoresTrailingPartialTuple(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7} // 2 full tuples + 1 stray byte
	got := splitTuples(payload)
	if len(got) != 2 {
		t.Fatalf("splitTuples returned %d tuples, want 2", len(got))
	}
}

// TestApplyTuple_GroupDecodeMutatesExperimentalAndRoutedField covers the
// "group decode of a synthesized 0xE7 block" round-trip law from spec.md §8.
func TestApplyTuple_GroupDecodeMutatesExperimentalAndRoutedField(t *testing.T) {
	sig := signal.New()
	applyTuple(sig, AddrInstruments, 1, 0, measurementTuple{K: 1, A: 100, B: 50})

	if sig.Experimental.Slots[0].Value != 1000 {
		t.Fatalf("Experimental slot 0 value = %v, want 1000", sig.Experimental.Slots[0].Value)
	}
	if sig.Instruments.VehicleSpeed != 1000 {
		t.Fatalf("routed VehicleSpeed = %v, want 1000", sig.Instruments.VehicleSpeed)
	}
}
