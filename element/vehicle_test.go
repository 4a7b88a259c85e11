package element

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVehicle(t *testing.T) {
	t.Parallel()

	t.Run("stopped when idle", func(t *testing.T) {
		t.Parallel()
		v, err := NewVehicle(1, 5, 1, 2, 3, 0)
		require.NoError(t, err)

		assert.Equal(t, int64(1), v.ID())
		assert.Equal(t, 5.0, v.TopSpeed())
		assert.Equal(t, 1.0, v.BaseAcceleration())
		assert.Equal(t, 2.0, v.FollowDistance())
		assert.Equal(t, 3.0, v.LookaheadDistance())
		assert.Equal(t, 5.0, v.SensingRange())
		assert.Equal(t, 0.0, v.Speed())
		assert.Equal(t, 1.0, v.Acceleration())
		assert.Equal(t, StatusStopped, v.Status())
	})

	t.Run("cruising when moving", func(t *testing.T) {
		t.Parallel()
		v, err := NewVehicle(2, 10, 1, 10, 50, 4)
		require.NoError(t, err)
		assert.Equal(t, 4.0, v.Speed())
		assert.Equal(t, StatusCruising, v.Status())
	})

	t.Run("negative acceleration allowed", func(t *testing.T) {
		t.Parallel()
		_, err := NewVehicle(3, 10, -1, 0, 0, 0)
		assert.NoError(t, err)
	})
}

func TestNewVehicleRejectsInvalidParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                                  string
		top, accel, follow, lookahead, speed0 float64
	}{
		{"negative top speed", -1, 1, 2, 3, 0},
		{"negative follow distance", 5, 1, -2, 3, 0},
		{"negative lookahead distance", 5, 1, 2, -3, 0},
		{"nan acceleration", 5, math.NaN(), 2, 3, 0},
		{"infinite top speed", math.Inf(1), 1, 2, 3, 0},
		{"infinite initial speed", 5, 1, 2, 3, math.Inf(-1)},
		{"negative initial speed", 5, 1, 2, 3, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := NewVehicle(1, tt.top, tt.accel, tt.follow, tt.lookahead, tt.speed0)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestKinematicsIntegrate(t *testing.T) {
	t.Parallel()

	t.Run("caps at top speed", func(t *testing.T) {
		k := kinematics{speed: 4.5, acceleration: 1, status: StatusAccelerating}
		k.integrate(5)
		assert.Equal(t, kinematics{speed: 5, acceleration: 0, status: StatusCruising}, k)
	})

	t.Run("reaching top speed exactly keeps status", func(t *testing.T) {
		k := kinematics{speed: 4, acceleration: 1, status: StatusAccelerating}
		k.integrate(5)
		assert.Equal(t, kinematics{speed: 5, acceleration: 1, status: StatusAccelerating}, k)
	})

	t.Run("stops and clears braking", func(t *testing.T) {
		k := kinematics{speed: 1, acceleration: -3, status: StatusBraking}
		k.integrate(5)
		assert.Equal(t, kinematics{speed: 0, acceleration: 0, status: StatusStopped}, k)
	})

	t.Run("zero top speed", func(t *testing.T) {
		k := kinematics{speed: 0, acceleration: 1, status: StatusAccelerating}
		k.integrate(0)
		assert.Equal(t, kinematics{speed: 0, acceleration: 0, status: StatusStopped}, k)
	})
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "STOPPED", StatusStopped.String())
	assert.Equal(t, "ACCELERATING", StatusAccelerating.String())
	assert.Equal(t, "CRUISING", StatusCruising.String())
	assert.Equal(t, "BRAKING", StatusBraking.String())
	assert.Equal(t, "UNKNOWN", Status(42).String())
	assert.Len(t, AllStatuses(), 4)
}
