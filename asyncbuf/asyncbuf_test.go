package asyncbuf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetDataAccumulatesAcrossRefills(t *testing.T) {
	next := 0
	gen := func(size int) ([]int, error) {
		out := make([]int, size)
		for i := range out {
			out[i] = next
			next++
		}
		return out, nil
	}

	buf := New(4, gen)

	got, err := buf.GetData(10)
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i, v := range got {
		require.Equal(t, i, v, "FIFO order must be preserved across refills")
	}
	require.NoError(t, buf.Close())
}

func TestGetDataSmallerThanBuffer(t *testing.T) {
	buf := New(8, func(size int) ([]int, error) {
		out := make([]int, size)
		for i := range out {
			out[i] = i
		}
		return out, nil
	})

	first, err := buf.GetData(3)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, first)

	second, err := buf.GetData(3)
	require.NoError(t, err)
	require.Equal(t, []int{3, 4, 5}, second)
	require.NoError(t, buf.Close())
}

func TestRefillErrorPropagates(t *testing.T) {
	buf := New(4, func(size int) ([]int, error) {
		return nil, fmt.Errorf("boom")
	})
	_, err := buf.GetData(1)
	require.Error(t, err)
	require.NoError(t, buf.Close())
}

func TestCloseIsIdempotent(t *testing.T) {
	buf := New(2, func(size int) ([]int, error) { return make([]int, size), nil })
	require.NoError(t, buf.Close())
	require.NoError(t, buf.Close())
}
