package simulator

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"laneCA/config"
	"laneCA/element"
	"laneCA/recorder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator(t *testing.T, cfgJSON string, opts ...Option) *Simulator {
	t.Helper()
	cfg, err := config.Parse([]byte(cfgJSON))
	require.NoError(t, err)

	sim, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(sim.Close)
	return sim
}

// drainRecorders 清空其他测试留在全局缓存中的数据
func drainRecorders(t *testing.T) {
	t.Helper()
	files := NewDataFiles(t.TempDir(), "drain", true)
	require.NoError(t, InitDataFiles(files))
	require.NoError(t, WriteData(files))
}

func positions(lane *element.Lane) map[int64]float64 {
	out := make(map[int64]float64, lane.Len())
	for position, vehicle := range lane.VehiclesByPosition() {
		out[vehicle.ID()] = position
	}
	return out
}

func readRecords(t *testing.T, filename string) [][]string {
	t.Helper()
	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestNewPlacesVehicles(t *testing.T) {
	sim := newTestSimulator(t, `{
		"simulation": {"seed": 1},
		"lanes": [{"length": 100}, {"length": 50, "circular": true}],
		"vehicles": [
			{"lane": 0, "position": 10, "template": {"topSpeed": 5, "acceleration": 1, "followDistance": 2, "followMargin": 1, "lookaheadDistance": 3}},
			{"lane": 1, "position": 20, "template": {"topSpeed": 5, "acceleration": 1, "followDistance": 2, "lookaheadDistance": 3, "initialSpeed": 2}}
		]
	}`)

	require.Equal(t, 2, sim.NumLanes())
	assert.Equal(t, map[int64]float64{1: 10}, positions(sim.Lane(0)))
	assert.Equal(t, map[int64]float64{2: 20}, positions(sim.Lane(1)))
	assert.True(t, sim.Lane(1).Circular())

	v, ok := sim.Lane(0).Vehicle(1)
	require.True(t, ok)
	assert.Equal(t, 3.0, v.FollowDistance())

	generated, completed, blocked := sim.State().GetVehicleCounts()
	assert.Equal(t, int64(2), generated)
	assert.Zero(t, completed)
	assert.Zero(t, blocked)
	assert.Equal(t, 2, sim.State().GetVehiclesOnRoadCount())
}

func TestNewRejectsOverlappingPlacements(t *testing.T) {
	cfg, err := config.Parse([]byte(`{
		"vehicles": [
			{"lane": 0, "position": 10, "template": {"topSpeed": 5}},
			{"lane": 0, "position": 10, "template": {"topSpeed": 5}}
		]
	}`))
	require.NoError(t, err)

	_, err = New(cfg)
	assert.ErrorIs(t, err, element.ErrPositionOccupied)

	_, err = New(nil)
	assert.ErrorIs(t, err, element.ErrInvalidParameter)
}

func TestRunSpawnsAndRemovesAtEnd(t *testing.T) {
	drainRecorders(t)
	files := NewDataFiles(t.TempDir(), "run", false)
	require.NoError(t, InitDataFiles(files))

	sim := newTestSimulator(t, `{
		"simulation": {"seed": 1, "workers": 2},
		"lanes": [{"length": 3, "removeAtEnd": true}],
		"spawn": {"enabled": true, "lane": 0, "position": 0, "rate": 1, "template": {"topSpeed": 1, "acceleration": 1}}
	}`, WithDataFiles(files))

	require.NoError(t, sim.Run(context.Background(), 3))
	assert.Equal(t, 3, sim.TimeStep())
	assert.Equal(t, map[int64]float64{2: 2, 3: 1}, positions(sim.Lane(0)))

	require.NoError(t, sim.Run(context.Background(), 1))
	assert.Equal(t, map[int64]float64{3: 2, 4: 1}, positions(sim.Lane(0)))

	generated, completed, blocked := sim.State().GetVehicleCounts()
	assert.Equal(t, int64(4), generated)
	assert.Equal(t, int64(2), completed)
	assert.Zero(t, blocked)

	require.NoError(t, FinishSimulation(files))

	vehicles := readRecords(t, files.Vehicle)
	require.Len(t, vehicles, 3)
	assert.Equal(t, []string{"1", "0", "1.0000", "1.0000", "0.0000", "0.0000", "0", "2"}, vehicles[1])
	assert.Equal(t, []string{"2", "0", "1.0000", "1.0000", "0.0000", "0.0000", "1", "3"}, vehicles[2])

	system := readRecords(t, files.System)
	require.Len(t, system, 5, "one row per tick for the single lane")
	assert.Equal(t, []string{"0", "0", "1", "1.0000", "0.0000", "0.3333", "0", "1", "0", "0"}, system[1])
}

func TestSpawnBlockedWithinFollowDistance(t *testing.T) {
	sim := newTestSimulator(t, `{
		"simulation": {"seed": 1},
		"lanes": [{"length": 100}],
		"spawn": {"enabled": true, "rate": 1, "template": {"topSpeed": 10, "acceleration": 1, "followDistance": 5}}
	}`)

	require.NoError(t, sim.Run(context.Background(), 4))
	assert.Equal(t, map[int64]float64{1: 10, 2: 1}, positions(sim.Lane(0)))

	generated, _, blocked := sim.State().GetVehicleCounts()
	assert.Equal(t, int64(2), generated)
	assert.Equal(t, int64(2), blocked)
}

func TestTickCollisionKeepsTimeStep(t *testing.T) {
	sim := newTestSimulator(t, `{
		"lanes": [{"length": 100}],
		"vehicles": [
			{"lane": 0, "position": 5, "template": {"topSpeed": 5, "initialSpeed": 5}},
			{"lane": 0, "position": 10, "template": {"topSpeed": 0}}
		]
	}`)

	err := sim.Tick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, element.ErrCollision)
	assert.Contains(t, err.Error(), "tick 0: lane 0:")

	var collision *element.CollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, 10.0, collision.Position)

	assert.Equal(t, 0, sim.TimeStep())
	assert.Equal(t, map[int64]float64{1: 5, 2: 10}, positions(sim.Lane(0)))

	assert.ErrorIs(t, sim.Run(context.Background(), 5), element.ErrCollision)
}

func TestTickCollisionWithdrawsSpawnedVehicles(t *testing.T) {
	sim := newTestSimulator(t, `{
		"lanes": [{"length": 100}],
		"vehicles": [
			{"lane": 0, "position": 5, "template": {"topSpeed": 5, "initialSpeed": 5}},
			{"lane": 0, "position": 10, "template": {"topSpeed": 0}}
		],
		"spawn": {"enabled": true, "lane": 0, "position": -50, "rate": 1, "randomDisRange": 0, "template": {"topSpeed": 1}}
	}`)

	for i := 0; i < 2; i++ {
		err := sim.Tick(context.Background())
		require.ErrorIs(t, err, element.ErrCollision)

		assert.Equal(t, 0, sim.TimeStep())
		assert.Equal(t, map[int64]float64{1: 5, 2: 10}, positions(sim.Lane(0)))
		assert.Equal(t, int64(2), sim.generator.NumGenerated())
		assert.NotContains(t, sim.lanes[0].inTime, int64(3))
		assert.Zero(t, sim.numSpawnBlocked)
	}
}

func TestNewValidatesHandBuiltConfig(t *testing.T) {
	cfg := &config.Config{
		Lanes: []config.LaneConfig{{Length: 10}},
		Spawn: config.SpawnConfig{Enabled: true, Lane: 5, Rate: 1},
	}

	sim, err := New(cfg)
	require.Error(t, err)
	assert.Nil(t, sim)
	assert.Contains(t, err.Error(), "spawn: lane 5 out of range")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	sim := newTestSimulator(t, `{"lanes": [{"length": 100}]}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sim.Run(ctx, 10), context.Canceled)
	assert.Equal(t, 0, sim.TimeStep())
}

func TestTickRecordsTraceAtInterval(t *testing.T) {
	drainRecorders(t)
	sim := newTestSimulator(t, `{
		"lanes": [{"length": 100, "circular": true}],
		"vehicles": [{"lane": 0, "position": 0, "template": {"topSpeed": 2, "acceleration": 1}}],
		"output": {"trace": true, "traceInterval": 2}
	}`)

	before := recorder.PendingTraceRecords()
	for i := 0; i < 3; i++ {
		require.NoError(t, sim.Tick(context.Background()))
	}
	assert.Equal(t, before+2, recorder.PendingTraceRecords(), "ticks 0 and 2")
}

func TestParallelLanesAreIndependent(t *testing.T) {
	sim := newTestSimulator(t, `{
		"simulation": {"workers": 4},
		"lanes": [{"length": 50, "circular": true}, {"length": 50, "circular": true}, {"length": 50}],
		"vehicles": [
			{"lane": 0, "position": 0, "template": {"topSpeed": 3, "acceleration": 1}},
			{"lane": 1, "position": 0, "template": {"topSpeed": 3, "acceleration": 1}},
			{"lane": 2, "position": 0, "template": {"topSpeed": 3, "acceleration": 1}}
		]
	}`)

	require.NoError(t, sim.Run(context.Background(), 20))

	// 1+2+3+3*17 = 57
	assert.Equal(t, map[int64]float64{1: 7}, positions(sim.Lane(0)))
	assert.Equal(t, map[int64]float64{2: 7}, positions(sim.Lane(1)))
	assert.Equal(t, map[int64]float64{3: 57}, positions(sim.Lane(2)))
}

func TestNewDataFiles(t *testing.T) {
	files := NewDataFiles("out", "x", false)
	assert.Equal(t, filepath.Join("out", "x_SystemData.csv"), files.System)
	assert.Equal(t, filepath.Join("out", "x_VehicleData.csv"), files.Vehicle)
	assert.Empty(t, files.Trace)

	assert.Equal(t, filepath.Join("out", "x_TraceData.csv"), NewDataFiles("out", "x", true).Trace)
}
