package bins_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gpucache/accelcache/bins"
)

func TestPower(t *testing.T) {
	require.Equal(t, uint64(1), bins.Power(2, 0))
	require.Equal(t, uint64(2), bins.Power(2, 1))
	require.Equal(t, uint64(256), bins.Power(2, 8))
	require.Equal(t, uint64(1<<30), bins.Power(2, 30))
	require.Equal(t, uint64(729), bins.Power(3, 6))
}

func TestFindRoundsUpBelowMinBin(t *testing.T) {
	bin, rounded, err := bins.Find(1, 2, 8, 30)
	require.NoError(t, err)
	require.Equal(t, 8, bin)
	require.Equal(t, 256, rounded)
}

func TestFindExactBoundary(t *testing.T) {
	bin, rounded, err := bins.Find(256, 2, 8, 30)
	require.NoError(t, err)
	require.Equal(t, 8, bin)
	require.Equal(t, 256, rounded)

	bin, rounded, err = bins.Find(257, 2, 8, 30)
	require.NoError(t, err)
	require.Equal(t, 9, bin)
	require.Equal(t, 512, rounded)
}

func TestFindAtMaxBinSucceeds(t *testing.T) {
	_, rounded, err := bins.Find(1<<30, 2, 8, 30)
	require.NoError(t, err)
	require.Equal(t, 1<<30, rounded)
}

func TestFindAboveMaxBinIsTooLarge(t *testing.T) {
	_, _, err := bins.Find(1<<30+1, 2, 8, 30)
	require.Error(t, err)
	require.ErrorIs(t, err, bins.ErrTooLarge)
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "1 GB", bins.FormatBytes(1<<30))
	require.Equal(t, "4 MB", bins.FormatBytes(4<<20))
	require.Equal(t, "2 kB", bins.FormatBytes(2<<10))
	require.Equal(t, "3 B", bins.FormatBytes(3))
}
