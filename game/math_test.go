package game

import (
	"math"
	"slices"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpVectorIsUnitLength(t *testing.T) {
	const steps = 24
	for i := 0; i < steps; i++ {
		for j := 0; j < steps; j++ {
			for k := 0; k < steps; k++ {
				r := Rotator{
					Pitch: -math32.Pi + 2*math32.Pi*float32(i)/steps,
					Yaw:   -math32.Pi + 2*math32.Pi*float32(j)/steps,
					Roll:  -math32.Pi + 2*math32.Pi*float32(k)/steps,
				}
				up := UpVector(r)
				require.InDeltaf(t, 1, up.Len(), 1e-5, "|up| for %+v", r)
			}
		}
	}
}

func TestUpVectorKnownOrientations(t *testing.T) {
	half := float32(math.Pi / 2)
	cases := []struct {
		name string
		r    Rotator
		want mgl32.Vec3
	}{
		{"upright", Rotator{}, mgl32.Vec3{0, 0, 1}},
		{"upright yawed", Rotator{Yaw: 1.3}, mgl32.Vec3{0, 0, 1}},
		{"nose up", Rotator{Pitch: half}, mgl32.Vec3{-1, 0, 0}},
		{"rolled right", Rotator{Roll: half}, mgl32.Vec3{0, 1, 0}},
		{"rolled right facing y", Rotator{Yaw: half, Roll: half}, mgl32.Vec3{-1, 0, 0}},
		{"upside down", Rotator{Roll: math32.Pi}, mgl32.Vec3{0, 0, -1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := UpVector(c.r)
			assert.Truef(t, Vec3ApproxEq(got, c.want), "got %v, want %v", got, c.want)
		})
	}
}

func TestStickyImpulseUpright(t *testing.T) {
	impulse := StickyImpulse(Rotator{}, 300, 1.0/120.0)
	assert.InDelta(t, 0, impulse.X(), 1e-6)
	assert.InDelta(t, 0, impulse.Y(), 1e-6)
	assert.InDelta(t, -2.5, impulse.Z(), 1e-5)
}

func TestStickyImpulsePointsAwayFromUp(t *testing.T) {
	r := Rotator{Pitch: 0.4, Yaw: -2.1, Roll: 0.9}
	impulse := StickyImpulse(r, 300, 0.01)
	assert.InDelta(t, -3, impulse.Dot(UpVector(r)), 1e-4)
}

func TestStickyImpulseZeroDelta(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{}, StickyImpulse(Rotator{Roll: 0.3}, 300, 0))
}

func TestRound32(t *testing.T) {
	assert.Equal(t, float32(1.23), Round32(1.2345, 2))
	assert.Equal(t, float32(-0.5), Round32(-0.49, 1))
}

func TestFinite(t *testing.T) {
	assert.True(t, Finite(mgl32.Vec3{1, 2, 3}))
	assert.False(t, Finite(mgl32.Vec3{1, math32.NaN(), 3}))
	assert.False(t, Finite(mgl32.Vec3{math32.Inf(1), 0, 0}))
}

func TestStatistics(t *testing.T) {
	data := []float32{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5, Mean(slices.Values(data)), 1e-6)
	assert.InDelta(t, 4, Variance(slices.Values(data)), 1e-6)
	assert.InDelta(t, 2, StandardDeviation(slices.Values(data)), 1e-6)
	assert.Zero(t, Mean(slices.Values([]float32(nil))))
	assert.Zero(t, StandardDeviation(slices.Values([]float32(nil))))
}
