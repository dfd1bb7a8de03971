package utils

import "testing"

func TestFastEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b []byte
		want bool
	}{
		{"equal", []byte("abc"), []byte("abc"), true},
		{"different length", []byte("abc"), []byte("ab"), false},
		{"different content", []byte("abc"), []byte("abd"), false},
		{"both empty", []byte{}, []byte{}, true},
		{"both nil", nil, nil, true},
		{"nil vs empty", nil, []byte{}, true},
	}
	for _, c := range cases {
		if got := FastEqual(c.a, c.b); got != c.want {
			t.Errorf("%s: FastEqual(%v, %v) = %v, want %v", c.name, c.a, c.b, got, c.want)
		}
	}
}
