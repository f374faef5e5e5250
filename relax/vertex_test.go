package relax

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestGridEnumeratorSweep(t *testing.T) {
	for _, tc := range []struct {
		name string
		xP   []float64
		yP   []float64
		want VertexPath
	}{
		{
			name: "x longer",
			xP:   []float64{0, 1, 2},
			yP:   []float64{5, 9},
			want: VertexPath{
				Origin:    []Vertex{{0, 5, 0}, {1, 5, 5}, {2, 5, 10}},
				NonOrigin: []Vertex{{0, 9, 0}, {1, 9, 9}, {2, 9, 18}},
			},
		},
		{
			name: "y longer",
			xP:   []float64{1, 2},
			yP:   []float64{0, 2, 4},
			want: VertexPath{
				Origin:    []Vertex{{1, 0, 0}, {1, 2, 2}, {1, 4, 4}},
				NonOrigin: []Vertex{{2, 0, 0}, {2, 2, 4}, {2, 4, 8}},
			},
		},
		{
			name: "tie sweeps x",
			xP:   []float64{0, 1},
			yP:   []float64{3, 4},
			want: VertexPath{
				Origin:    []Vertex{{0, 3, 0}, {1, 3, 3}},
				NonOrigin: []Vertex{{0, 4, 0}, {1, 4, 4}},
			},
		},
		{
			name: "negative quadrant",
			xP:   []float64{-2, -1, 0},
			yP:   []float64{-3, 3},
			want: VertexPath{
				Origin:    []Vertex{{-2, -3, 6}, {-1, -3, 3}, {0, -3, 0}},
				NonOrigin: []Vertex{{-2, 3, -6}, {-1, 3, -3}, {0, 3, 0}},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GridEnumerator{}.EnumerateVertices(tc.xP, tc.yP)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("vertex path mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGridEnumeratorTooShort(t *testing.T) {
	_, err := GridEnumerator{}.EnumerateVertices([]float64{1}, []float64{0, 1})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = GridEnumerator{}.EnumerateVertices([]float64{0, 1}, nil)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestCheckVertexPath(t *testing.T) {
	path, err := GridEnumerator{}.EnumerateVertices([]float64{0, 1, 2}, []float64{0, 3})
	require.NoError(t, err)
	require.NoError(t, checkVertexPath(path, 2))

	require.ErrorIs(t, checkVertexPath(path, 3), ErrContract)

	short := VertexPath{Origin: path.Origin[:2], NonOrigin: path.NonOrigin}
	require.ErrorIs(t, checkVertexPath(short, 2), ErrContract)

	bent := VertexPath{
		Origin:    append([]Vertex(nil), path.Origin...),
		NonOrigin: append([]Vertex(nil), path.NonOrigin...),
	}
	bent.Origin[1].Z = 7
	err = checkVertexPath(bent, 2)
	require.ErrorIs(t, err, ErrContract)
	require.ErrorContains(t, err, "origin vertex 2")

	bent.Origin[1] = path.Origin[1]
	bent.NonOrigin[2].Z -= 0.25
	err = checkVertexPath(bent, 2)
	require.ErrorIs(t, err, ErrContract)
	require.ErrorContains(t, err, "non origin vertex 3")
}
