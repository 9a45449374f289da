package auhost

import "testing"

func TestG711Tables(t *testing.T) {
	tests := []struct {
		name  string
		table *[256]int16
		code  byte
		want  int16
	}{
		{"a-law smallest positive", &aLawTable, 0xD5, 8},
		{"a-law smallest negative", &aLawTable, 0x55, -8},
		{"a-law max", &aLawTable, 0xAA, 32256},
		{"a-law min", &aLawTable, 0x2A, -32256},
		{"mu-law zero", &muLawTable, 0xFF, 0},
		{"mu-law negative zero", &muLawTable, 0x7F, 0},
		{"mu-law max", &muLawTable, 0x80, 32124},
		{"mu-law min", &muLawTable, 0x00, -32124},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.table[tt.code]; got != tt.want {
				t.Fatalf("table[%#x]=%d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestG711TablesAreSymmetric(t *testing.T) {
	for code := range 128 {
		if aLawTable[code] != -aLawTable[code|0x80] {
			t.Fatalf("a-law %#x=%d, %#x=%d", code, aLawTable[code], code|0x80, aLawTable[code|0x80])
		}

		if muLawTable[code] != -muLawTable[code|0x80] {
			t.Fatalf("mu-law %#x=%d, %#x=%d", code, muLawTable[code], code|0x80, muLawTable[code|0x80])
		}
	}
}
