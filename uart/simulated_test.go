package uart

import "testing"

func TestSimulated_FeedThenRead(t *testing.T) {
	s := NewSimulated()
	s.Feed(0x01, 0x02)
	if s.Available() != 2 {
		t.Fatalf("Available() = %d, want 2", s.Available())
	}
	if v := s.Read(); v != 0x01 {
		t.Fatalf("Read() = %d, want 1", v)
	}
	if v := s.Read(); v != 0x02 {
		t.Fatalf("Read() = %d, want 2", v)
	}
	if v := s.Read(); v != -1 {
		t.Fatalf("Read() = %d, want -1 once empty", v)
	}
}

func TestSimulated_WriteRecordsHistory(t *testing.T) {
	s := NewSimulated()
	_ = s.Write(0xAA)
	_ = s.Write(0xBB)
	got := s.Written()
	if len(got) != 2 || got[0] != 0xAA || got[1] != 0xBB {
		t.Fatalf("Written() = %v, want [0xAA, 0xBB]", got)
	}
}

func TestSimulated_BeginRecordsBaudHistory(t *testing.T) {
	s := NewSimulated()
	_ = s.Begin(9600)
	_ = s.Begin(10400)
	if got := s.BaudHistory(); len(got) != 2 || got[0] != 9600 || got[1] != 10400 {
		t.Fatalf("BaudHistory() = %v, want [9600, 10400]", got)
	}
}

func TestSimulated_FlushDiscardsPending(t *testing.T) {
	s := NewSimulated()
	s.Feed(0x01, 0x02, 0x03)
	_ = s.Flush()
	if s.Available() != 0 {
		t.Fatalf("Available() = %d after Flush, want 0", s.Available())
	}
}
