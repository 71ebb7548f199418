package natsort

import (
	"slices"
	"testing"
)

func TestLess(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"numeric suffix", "chunk_2.msgpack", "chunk_10.msgpack", true},
		{"numeric suffix reversed", "chunk_10.msgpack", "chunk_2.msgpack", false},
		{"plain text", "alpha", "beta", true},
		{"equal", "same_01", "same_01", false},
		{"leading zeros equal value", "f002", "f2", false},
		{"leading zeros ordered", "f002", "f3", true},
		{"prefix is smaller", "file_1", "file_1b", true},
		{"multiple runs", "b7_c2", "b7_c10", true},
		{"digits before text", "1", "a", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Less(tc.a, tc.b); got != tc.want {
				t.Fatalf("Less(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestSortCallbackFilenames(t *testing.T) {
	files := []string{
		"astro_5941664_beam0147_00245449_10.msgpack",
		"astro_5941664_beam0147_00245449_2.msgpack",
		"astro_5941664_beam0147_00245449_1.msgpack",
		"astro_5941664_beam0147_00245449_21.msgpack",
	}
	Sort(files)
	want := []string{
		"astro_5941664_beam0147_00245449_1.msgpack",
		"astro_5941664_beam0147_00245449_2.msgpack",
		"astro_5941664_beam0147_00245449_10.msgpack",
		"astro_5941664_beam0147_00245449_21.msgpack",
	}
	if !slices.Equal(files, want) {
		t.Fatalf("Sort() = %v, want %v", files, want)
	}
}
