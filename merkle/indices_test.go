package merkle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTreeDepth(t *testing.T) {
	tests := []struct {
		leafCount uint64
		want      int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{6, 3},
		{8, 3},
		{9, 4},
		{15, 4},
		{16, 4},
		{17, 5},
		{1 << 40, 40},
		{1<<40 + 1, 41},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TreeDepth(tt.leafCount), "leafCount %d", tt.leafCount)
	}
}

func TestParentPositions(t *testing.T) {
	tests := []struct {
		name      string
		positions []uint64
		want      []uint64
	}{
		{"empty", nil, []uint64{}},
		{"siblings collapse", []uint64{0, 1}, []uint64{0}},
		{"proof example", []uint64{3, 4}, []uint64{1, 2}},
		{"unsorted input", []uint64{9, 2, 3, 8}, []uint64{1, 4}},
		{"duplicates", []uint64{5, 5, 4}, []uint64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParentPositions(tt.positions))
		})
	}
}

func TestSiblingAndParentPosition(t *testing.T) {
	assert.Equal(t, uint64(1), SiblingPosition(0))
	assert.Equal(t, uint64(0), SiblingPosition(1))
	assert.Equal(t, uint64(5), SiblingPosition(4))
	assert.Equal(t, uint64(2), ParentPosition(4))
	assert.Equal(t, uint64(2), ParentPosition(5))
}

func TestLayerWidth(t *testing.T) {
	// six leaves: 6, 3, 2, 1
	assert.Equal(t, uint64(6), LayerWidth(6, 0))
	assert.Equal(t, uint64(3), LayerWidth(6, 1))
	assert.Equal(t, uint64(2), LayerWidth(6, 2))
	assert.Equal(t, uint64(1), LayerWidth(6, 3))
	assert.Equal(t, uint64(1), LayerWidth(6, 10))
	assert.Equal(t, uint64(0), LayerWidth(0, 2))
	assert.Equal(t, uint64(3), LayerWidth(9, 2))
}

func TestProofPositionsByLayer(t *testing.T) {
	type args struct {
		leafPositions []uint64
		leafCount     uint64
	}
	tests := []struct {
		name string
		args args
		want [][]uint64
	}{
		{
			name: "single leaf tree needs nothing",
			args: args{[]uint64{0}, 1},
			want: [][]uint64{},
		},
		{
			name: "two leaves",
			args: args{[]uint64{1}, 2},
			want: [][]uint64{{0}},
		},
		{
			name: "both leaves of a pair",
			args: args{[]uint64{0, 1}, 2},
			want: [][]uint64{{}},
		},
		{
			name: "six leaves, positions 3 and 4",
			args: args{[]uint64{3, 4}, 6},
			want: [][]uint64{{2, 5}, {0}, {}},
		},
		{
			name: "order and duplicates do not matter",
			args: args{[]uint64{4, 3, 4}, 6},
			want: [][]uint64{{2, 5}, {0}, {}},
		},
		{
			// 4 has no sibling on the leaf layer, 2 has none on layer 1
			name: "five leaves, last leaf",
			args: args{[]uint64{4}, 5},
			want: [][]uint64{{}, {}, {0}},
		},
		{
			name: "seven leaves, first leaf",
			args: args{[]uint64{0}, 7},
			want: [][]uint64{{1}, {1}, {1}},
		},
		{
			name: "every leaf",
			args: args{[]uint64{0, 1, 2, 3, 4}, 5},
			want: [][]uint64{{}, {}, {}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProofPositionsByLayer(tt.args.leafPositions, tt.args.leafCount)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, TreeDepth(tt.args.leafCount))
		})
	}
}
