package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"3500", 3500, true},
		{" 5000 ", 5000, true},
		{"12,000", 12000, true},
		{"¥12,000", 12000, true},
		{"1", 1, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"12.5", 0, false},
		{"abc", 0, false},
		{"３５００", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got)
		}
	}
}

func TestFormatYen(t *testing.T) {
	cases := map[int64]string{
		0:       "¥0",
		127000:  "¥127,000",
		223000:  "¥223,000",
		1500000: "¥1,500,000",
		-5000:   "-¥5,000",
	}
	for in, want := range cases {
		if got := FormatYen(in); got != want {
			t.Fatalf("FormatYen(%d) = %q, want %q", in, got, want)
		}
	}
}
