package simulator

import (
	"fmt"
	"strings"
	"sync"

	"laneCA/element"
	"laneCA/log"
	"laneCA/recorder"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LaneStats 一条车道在某个时间步的统计
type LaneStats struct {
	Vehicles     int
	AverageSpeed float64
	SpeedStd     float64
	MaxSpeed     float64
	Density      float64 // 每单位长度的车辆数
	StatusCounts map[element.Status]int
}

// ComputeLaneStats 统计车道上车辆的速度分布和状态
func ComputeLaneStats(lane *element.Lane) LaneStats {
	vehicles := make([]*element.Vehicle, 0, lane.Len())
	for _, v := range lane.VehiclesByPosition() {
		vehicles = append(vehicles, v)
	}

	stats := LaneStats{
		Vehicles:     len(vehicles),
		Density:      float64(len(vehicles)) / lane.Length(),
		StatusCounts: make(map[element.Status]int, len(element.AllStatuses())),
	}
	for _, status := range element.AllStatuses() {
		stats.StatusCounts[status] = lo.CountBy(vehicles, func(v *element.Vehicle) bool {
			return v.Status() == status
		})
	}
	if len(vehicles) == 0 {
		return stats
	}

	speeds := lo.Map(vehicles, func(v *element.Vehicle, _ int) float64 {
		return v.Speed()
	})
	stats.MaxSpeed = floats.Max(speeds)
	if len(speeds) == 1 {
		stats.AverageSpeed = speeds[0]
		return stats
	}
	stats.AverageSpeed, stats.SpeedStd = stat.MeanStdDev(speeds, nil)
	return stats
}

// SystemState 缓存并管理系统状态信息
// 包括车辆数量、平均速度、密度等关键指标
type SystemState struct {
	numVehicleGenerated int64
	numVehicleCompleted int64
	numSpawnBlocked     int64
	lanes               []LaneStats
	averageSpeed        float64
	density             float64
	mu                  sync.RWMutex // 保护并发访问
}

// NewSystemState 创建一个新的系统状态对象
func NewSystemState() *SystemState {
	return &SystemState{}
}

// Update 更新系统状态
func (s *SystemState) Update(lanes []*element.Lane, generated, completed, blocked int64) {
	laneStats := make([]LaneStats, len(lanes))
	var totalLength, totalSpeed float64
	var onRoad int
	for i, lane := range lanes {
		laneStats[i] = ComputeLaneStats(lane)
		totalLength += lane.Length()
		totalSpeed += laneStats[i].AverageSpeed * float64(laneStats[i].Vehicles)
		onRoad += laneStats[i].Vehicles
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.numVehicleGenerated, s.numVehicleCompleted, s.numSpawnBlocked = generated, completed, blocked
	s.lanes = laneStats
	s.averageSpeed, s.density = 0, 0
	if onRoad > 0 {
		s.averageSpeed = totalSpeed / float64(onRoad)
	}
	if totalLength > 0 {
		s.density = float64(onRoad) / totalLength
	}
}

// RecordData 记录当前系统状态数据，每条车道一行
func (s *SystemState) RecordData(timeStep int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, ls := range s.lanes {
		recorder.RecordSystemData(recorder.SystemRecord{
			Tick:         timeStep,
			Lane:         i,
			Vehicles:     ls.Vehicles,
			AverageSpeed: ls.AverageSpeed,
			SpeedStd:     ls.SpeedStd,
			Density:      ls.Density,
			Stopped:      ls.StatusCounts[element.StatusStopped],
			Accelerating: ls.StatusCounts[element.StatusAccelerating],
			Cruising:     ls.StatusCounts[element.StatusCruising],
			Braking:      ls.StatusCounts[element.StatusBraking],
		})
	}
}

// LogStatus 输出系统状态日志
func (s *SystemState) LogStatus(timeStep int, secondsPerTick float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	onRoad := lo.SumBy(s.lanes, func(ls LaneStats) int { return ls.Vehicles })
	log.WriteLogf("Tick: %d, Time: %v, AvgSpeed: %.2f, Density: %.4f, Generated: %d, OnRoad: %d, Completed: %d, SpawnBlocked: %d",
		timeStep, log.ConvertTimeStepToTime(timeStep, secondsPerTick), s.averageSpeed, s.density,
		s.numVehicleGenerated, onRoad, s.numVehicleCompleted, s.numSpawnBlocked)

	for i, ls := range s.lanes {
		counts := make([]string, 0, len(element.AllStatuses()))
		for _, status := range element.AllStatuses() {
			counts = append(counts, fmt.Sprintf("%s %d", status, ls.StatusCounts[status]))
		}
		log.WriteLogf("  Lane %d: Vehicles: %d, AvgSpeed: %.2f, SpeedStd: %.2f, MaxSpeed: %.2f, %s",
			i, ls.Vehicles, ls.AverageSpeed, ls.SpeedStd, ls.MaxSpeed, strings.Join(counts, ", "))
	}
}

// Lane 返回某条车道的最新统计
func (s *SystemState) Lane(i int) (LaneStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.lanes) {
		return LaneStats{}, false
	}
	return s.lanes[i], true
}

// GetVehiclesOnRoadCount 返回当前道路上的车辆数量
func (s *SystemState) GetVehiclesOnRoadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.SumBy(s.lanes, func(ls LaneStats) int { return ls.Vehicles })
}

// GetAverageSpeed 返回当前系统的平均车速
func (s *SystemState) GetAverageSpeed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.averageSpeed
}

// GetDensity 返回当前系统的车辆密度
func (s *SystemState) GetDensity() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.density
}

// GetVehicleCounts 返回各类车辆计数
// 返回值依次为: 生成的车辆总数、已离开车道的车辆数、入口处放弃投放的车辆数
func (s *SystemState) GetVehicleCounts() (int64, int64, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.numVehicleGenerated, s.numVehicleCompleted, s.numSpawnBlocked
}
