package simulator

import (
	"fmt"
	"sync/atomic"

	"laneCA/config"
	"laneCA/element"

	"golang.org/x/exp/rand"
)

// VehicleGenerator 负责创建车辆并在入口处按生成率投放车辆
// 随机数发生器不是并发安全的，只能在模拟主循环中使用
type VehicleGenerator struct {
	rng          *rand.Rand
	numGenerated int64

	rawDemand []float64 // 原始需求曲线
	demand    []float64 // 当前周期调整后的需求曲线
}

// NewVehicleGenerator 创建车辆生成器
// rawDemand为空时使用配置中的固定生成率
func NewVehicleGenerator(seed uint64, rawDemand []float64) *VehicleGenerator {
	return &VehicleGenerator{
		rng:       rand.New(rand.NewSource(seed)),
		rawDemand: rawDemand,
	}
}

func (g *VehicleGenerator) getNextVehicleID() int64 {
	return atomic.AddInt64(&g.numGenerated, 1)
}

// NumGenerated 返回已创建的车辆总数
func (g *VehicleGenerator) NumGenerated() int64 {
	return atomic.LoadInt64(&g.numGenerated)
}

// release 归还最近分配的n个ID，这些车辆必须已从车道移除
func (g *VehicleGenerator) release(n int) {
	atomic.AddInt64(&g.numGenerated, -int64(n))
}

// NewVehicle 按模板创建一辆车，车辆ID从1开始递增
// 跟车距离使用模板的有效跟车距离（含安全余量）
func (g *VehicleGenerator) NewVehicle(t config.VehicleTemplate) (*element.Vehicle, error) {
	if err := checkTemplate(t); err != nil {
		return nil, err
	}
	return element.NewVehicle(
		g.getNextVehicleID(),
		t.TopSpeed,
		t.Acceleration,
		t.EffectiveFollowDistance(),
		t.LookaheadDistance,
		t.InitialSpeed,
	)
}

// checkTemplate 在分配ID之前校验模板，失败的创建不消耗ID
func checkTemplate(t config.VehicleTemplate) error {
	_, err := element.NewVehicle(0, t.TopSpeed, t.Acceleration, t.EffectiveFollowDistance(), t.LookaheadDistance, t.InitialSpeed)
	return err
}

// Rate 返回某个时间步的期望生成率
// 有需求曲线时按时间步循环取值，每个周期开始时重新调整曲线
func (g *VehicleGenerator) Rate(tick int, spawn config.SpawnConfig) float64 {
	if len(g.rawDemand) == 0 {
		return spawn.Rate
	}

	idx := tick % len(g.rawDemand)
	if idx == 0 || g.demand == nil {
		g.demand = AdjustDemand(g.rawDemand, spawn.DemandMultiplier, spawn.RandomDisRange, g.rng)
	}
	return g.demand[idx]
}

// Spawn 在入口位置投放本时间步的车辆
//
// 同一位置每个时间步最多只能放下一辆车；入口被占用或者新车跟车距离内有车时放弃投放。
// 返回投放成功的车辆和被放弃的车辆数
func (g *VehicleGenerator) Spawn(tick int, lane *element.Lane, spawn config.SpawnConfig) ([]*element.Vehicle, int, error) {
	count := GetGenerateVehicleCount(g.Rate(tick, spawn), spawn.RandomDisRange, g.rng)
	if count == 0 {
		return nil, 0, nil
	}

	followDistance := spawn.Template.EffectiveFollowDistance()
	if !clearAhead(lane, spawn.Position, followDistance) {
		return nil, count, nil
	}

	vehicle, err := g.NewVehicle(spawn.Template)
	if err != nil {
		return nil, 0, fmt.Errorf("spawn template: %w", err)
	}
	if err := lane.Insert(vehicle, spawn.Position); err != nil {
		return nil, 0, fmt.Errorf("spawn at %v: %w", spawn.Position, err)
	}
	return []*element.Vehicle{vehicle}, count - 1, nil
}

// clearAhead 判断position处及其前方distance范围内是否没有车辆
// 环形车道上跨越终点继续检查
func clearAhead(lane *element.Lane, position, distance float64) bool {
	for p := range lane.VehiclesByPosition() {
		ahead := p - position
		if ahead < 0 && lane.Circular() {
			ahead += lane.Length()
		}
		if ahead >= 0 && ahead <= distance {
			return false
		}
	}
	return true
}
