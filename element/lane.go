package element

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
)

// laneEntry 是车道索引中的一项
type laneEntry struct {
	position float64
	vehicle  *Vehicle
}

// Lane 表示一条单车道
// entries按位置降序排列（最前方的车辆在最前），位置是车辆所在地的唯一来源
type Lane struct {
	length   float64
	circular bool
	entries  []laneEntry
	byID     map[int64]float64 // 车辆ID -> 位置，与entries同步
}

// LaneOption 配置车道的可选参数
type LaneOption func(*Lane)

// WithCircular 设置车道是否首尾相连
// 环形车道上越过终点的车辆回到起点，最前方车辆的前车是最后方的车辆
func WithCircular(circular bool) LaneOption {
	return func(l *Lane) {
		l.circular = circular
	}
}

// NewLane 创建一条空车道
func NewLane(length float64, opts ...LaneOption) (*Lane, error) {
	if math.IsNaN(length) || math.IsInf(length, 0) || length <= 0 {
		return nil, fmt.Errorf("lane length must be positive and finite, got %v: %w", length, ErrInvalidParameter)
	}

	l := &Lane{
		length:  length,
		entries: make([]laneEntry, 0, 16),
		byID:    make(map[int64]float64, 16),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Length 返回车道长度
func (l *Lane) Length() float64 {
	return l.length
}

// Circular 返回车道是否为环形
func (l *Lane) Circular() bool {
	return l.circular
}

// Len 返回车道上的车辆数
func (l *Lane) Len() int {
	return len(l.entries)
}

// search 二分查找位置，返回索引和是否命中
func (l *Lane) search(position float64) (int, bool) {
	return slices.BinarySearchFunc(l.entries, position, func(e laneEntry, target float64) int {
		return cmp.Compare(target, e.position)
	})
}

// Insert 将车辆放到指定位置
func (l *Lane) Insert(v *Vehicle, position float64) error {
	if v == nil {
		return fmt.Errorf("insert nil vehicle: %w", ErrInvalidParameter)
	}
	if math.IsNaN(position) || math.IsInf(position, 0) {
		return fmt.Errorf("vehicle %d: position must be finite, got %v: %w", v.id, position, ErrInvalidParameter)
	}
	if l.circular && (position < 0 || position >= l.length) {
		return fmt.Errorf("vehicle %d: position %v outside circular lane [0, %v): %w", v.id, position, l.length, ErrInvalidParameter)
	}
	if _, ok := l.byID[v.id]; ok {
		return fmt.Errorf("vehicle %d: %w", v.id, ErrDuplicateVehicle)
	}
	if v.lane != nil && v.lane != l {
		return fmt.Errorf("vehicle %d: %w", v.id, ErrVehicleOnOtherLane)
	}

	idx, found := l.search(position)
	if found {
		return fmt.Errorf("vehicle %d at %v, held by vehicle %d: %w", v.id, position, l.entries[idx].vehicle.id, ErrPositionOccupied)
	}

	l.entries = slices.Insert(l.entries, idx, laneEntry{position: position, vehicle: v})
	l.byID[v.id] = position
	v.lane = l
	return nil
}

// Remove 从车道中移除车辆
// Step从不移除车辆，是否移除到达终点的车辆由调用方决定
func (l *Lane) Remove(id int64) (*Vehicle, error) {
	idx, ok := l.index(id)
	if !ok {
		return nil, fmt.Errorf("vehicle %d: %w", id, ErrVehicleNotFound)
	}
	v := l.entries[idx].vehicle
	l.entries = slices.Delete(l.entries, idx, idx+1)
	delete(l.byID, id)
	v.lane = nil
	return v, nil
}

// index 通过记录的位置二分查找车辆在entries中的下标
func (l *Lane) index(id int64) (int, bool) {
	position, ok := l.byID[id]
	if !ok {
		return 0, false
	}
	idx, found := l.search(position)
	if !found || l.entries[idx].vehicle.id != id {
		return 0, false
	}
	return idx, true
}

// Vehicle 按ID查找车辆
func (l *Lane) Vehicle(id int64) (*Vehicle, bool) {
	idx, ok := l.index(id)
	if !ok {
		return nil, false
	}
	return l.entries[idx].vehicle, true
}

// VehicleAt 返回恰好位于position的车辆
func (l *Lane) VehicleAt(position float64) (*Vehicle, bool) {
	idx, found := l.search(position)
	if !found {
		return nil, false
	}
	return l.entries[idx].vehicle, true
}

// Position 返回车辆当前位置
func (l *Lane) Position(id int64) (float64, bool) {
	position, ok := l.byID[id]
	return position, ok
}

// Leader 返回指定车辆前方最近的车辆以及两者的位置差
func (l *Lane) Leader(id int64) (*Vehicle, float64, bool) {
	idx, ok := l.index(id)
	if !ok {
		return nil, 0, false
	}
	j, distance, ok := l.leaderOf(idx)
	if !ok {
		return nil, 0, false
	}
	return l.entries[j].vehicle, distance, true
}

// leaderOf 返回索引i车辆的前车索引和距离
// 降序排列下前车就是i-1；环形车道上最前方车辆的前车是最后一辆
func (l *Lane) leaderOf(i int) (int, float64, bool) {
	if i > 0 {
		return i - 1, l.entries[i-1].position - l.entries[i].position, true
	}
	n := len(l.entries)
	if l.circular && n > 1 {
		return n - 1, l.entries[n-1].position + l.length - l.entries[i].position, true
	}
	return 0, 0, false
}

// VehiclesByPosition 按位置从前到后遍历车辆
// 每次遍历开始时对当前索引做快照，可重复调用
func (l *Lane) VehiclesByPosition() iter.Seq2[float64, *Vehicle] {
	return func(yield func(float64, *Vehicle) bool) {
		snapshot := slices.Clone(l.entries)
		for _, e := range snapshot {
			if !yield(e.position, e.vehicle) {
				return
			}
		}
	}
}

// Step 将车道上的所有车辆推进一个时间步
//
// 三个阶段依次作用于全部车辆（从前到后）:
//  1. 制动判断：行驶中的车辆在跟车距离+感知距离内有前车时制动，加速度趋向前车速度
//  2. 加速/巡航判断：未制动的车辆，跟车距离内有前车则巡航，否则加速
//  3. 积分：更新速度（截断到[0, topSpeed]）并移动位置
//
// 前两个阶段只读取时间步开始时的位置和速度。所有结果先在副本上计算，
// 若出现两车落在同一位置则返回ErrCollision（可用errors.As取出*CollisionError），
// 此时车道保持原状。
func (l *Lane) Step() error {
	n := len(l.entries)
	if n == 0 {
		return nil
	}

	next := make([]kinematics, n)
	for i, e := range l.entries {
		next[i] = e.vehicle.kinematics()
	}

	braking := l.brakingPhase(next)
	l.cruisePhase(next, braking)
	moved := l.movePhase(next)

	if err := checkCollisions(moved); err != nil {
		return err
	}

	for i, e := range l.entries {
		e.vehicle.apply(next[i])
	}
	l.entries = moved
	for _, e := range moved {
		l.byID[e.vehicle.id] = e.position
	}
	return nil
}

// brakingPhase 阶段一：行驶中且感知范围内有前车的车辆进入制动
// 静止的车辆不制动，交给阶段二决定是否起步
func (l *Lane) brakingPhase(next []kinematics) []bool {
	braking := make([]bool, len(l.entries))
	for i, e := range l.entries {
		v := e.vehicle
		if v.speed <= 0 {
			continue
		}
		j, distance, ok := l.leaderOf(i)
		if !ok || distance > v.SensingRange() {
			continue
		}

		// 间距扣除跟车距离；间距为0或负数时分母取1，避免得到Inf/NaN
		gap := distance - v.followDistance
		if gap <= 0 {
			gap = 1
		}

		braking[i] = true
		next[i].status = StatusBraking
		next[i].acceleration = (l.entries[j].vehicle.speed - v.speed) / gap
	}
	return braking
}

// cruisePhase 阶段二：未制动的车辆决定加速或巡航
func (l *Lane) cruisePhase(next []kinematics, braking []bool) {
	for i, e := range l.entries {
		if braking[i] {
			continue
		}
		v := e.vehicle
		if _, distance, ok := l.leaderOf(i); ok && distance <= v.followDistance {
			next[i].status = StatusCruising
			next[i].acceleration = 0
			continue
		}
		next[i].status = StatusAccelerating
		next[i].acceleration = v.baseAcceleration
	}
}

// movePhase 阶段三：更新速度并计算新位置，返回按新位置降序排列的索引
func (l *Lane) movePhase(next []kinematics) []laneEntry {
	moved := make([]laneEntry, len(l.entries))
	for i, e := range l.entries {
		next[i].integrate(e.vehicle.topSpeed)

		position := e.position + next[i].speed
		if l.circular && position >= l.length {
			position = math.Mod(position, l.length)
		}
		moved[i] = laneEntry{position: position, vehicle: e.vehicle}
	}

	slices.SortStableFunc(moved, func(a, b laneEntry) int {
		return cmp.Compare(b.position, a.position)
	})
	return moved
}

// checkCollisions 检查排好序的索引中是否有重复位置
func checkCollisions(entries []laneEntry) error {
	var errs []error
	for i := 1; i < len(entries); i++ {
		if entries[i].position == entries[i-1].position {
			errs = append(errs, &CollisionError{
				Position: entries[i].position,
				First:    entries[i-1].vehicle.id,
				Second:   entries[i].vehicle.id,
			})
		}
	}
	return errors.Join(errs...)
}
