package conv

import "testing"

func TestUtoa(t *testing.T) {
	var buf [20]byte
	cases := map[uint64]string{
		0:                    "0",
		7:                    "7",
		24_000_000:           "24000000",
		18446744073709551615: "18446744073709551615",
	}
	for n, want := range cases {
		if got := string(Utoa(buf[:], n)); got != want {
			t.Fatalf("Utoa(%d)=%q want %q", n, got, want)
		}
	}
	if got := Utoa(nil, 5); len(got) != 0 {
		t.Fatalf("Utoa into empty buffer wrote %q", got)
	}
}

func TestHex(t *testing.T) {
	var buf [8]byte
	if got := string(U32Hex(buf[:], 0x2000000)); got != "02000000" {
		t.Fatalf("U32Hex=%q", got)
	}
	if got := U32Hex(buf[:4], 1); len(got) != 0 {
		t.Fatalf("short buffer wrote %q", got)
	}
	if got := Addr(0x40000000); got != "0x40000000" {
		t.Fatalf("Addr=%q", got)
	}
}
