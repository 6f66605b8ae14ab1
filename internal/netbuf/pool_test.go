package netbuf

import "testing"

func TestGet_SizeBuckets(t *testing.T) {
	tests := []struct {
		name        string
		requestSize int
		expectCap   int
	}{
		{"1500 bucket - exact", 1500, 1500},
		{"1500 bucket - smaller", 1000, 1500},
		{"9000 bucket - exact", 9000, 9000},
		{"9000 bucket - smaller", 4000, 9000},
		{"65507 bucket - exact", 65507, 65507},
		{"65507 bucket - smaller", 20000, 65507},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := Get(tt.requestSize)
			if len(buf) != tt.requestSize {
				t.Errorf("Get(%d) returned len=%d, want %d", tt.requestSize, len(buf), tt.requestSize)
			}
			if cap(buf) != tt.expectCap {
				t.Errorf("Get(%d) returned cap=%d, want %d", tt.requestSize, cap(buf), tt.expectCap)
			}
			Put(buf)
		})
	}
}

func TestPut_NonStandardCap(t *testing.T) {
	buf := make([]byte, 3000)
	Put(buf) // must not panic
}
