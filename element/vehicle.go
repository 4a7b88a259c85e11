package element

import (
	"fmt"
	"math"
)

// Vehicle 表示车道上的一辆车
// 身份和驾驶参数在创建后不变，运动状态只由所在车道的Step修改
type Vehicle struct {
	id                int64   // 车辆唯一标识
	topSpeed          float64 // 最高速度（位置单位/时间步）
	baseAcceleration  float64 // 前方畅通时的加速度
	followDistance    float64 // 跟车距离，进入此范围后不再加速
	lookaheadDistance float64 // 跟车距离之外的感知距离，用于提前制动

	speed        float64 // 当前速度
	acceleration float64 // 当前加速度，负值表示制动
	status       Status  // 当前状态

	lane *Lane // 所在车道，一辆车同一时刻只能在一条车道上
}

// NewVehicle 创建一辆新车
// 所有参数必须是有限值，除基础加速度外都不能为负
func NewVehicle(id int64, topSpeed, baseAcceleration, followDistance, lookaheadDistance, initialSpeed float64) (*Vehicle, error) {
	params := []struct {
		name  string
		value float64
	}{
		{"topSpeed", topSpeed},
		{"baseAcceleration", baseAcceleration},
		{"followDistance", followDistance},
		{"lookaheadDistance", lookaheadDistance},
		{"initialSpeed", initialSpeed},
	}
	for _, p := range params {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return nil, fmt.Errorf("vehicle %d: %s must be finite, got %v: %w", id, p.name, p.value, ErrInvalidParameter)
		}
	}
	if topSpeed < 0 {
		return nil, fmt.Errorf("vehicle %d: topSpeed must be non-negative, got %v: %w", id, topSpeed, ErrInvalidParameter)
	}
	if followDistance < 0 {
		return nil, fmt.Errorf("vehicle %d: followDistance must be non-negative, got %v: %w", id, followDistance, ErrInvalidParameter)
	}
	if lookaheadDistance < 0 {
		return nil, fmt.Errorf("vehicle %d: lookaheadDistance must be non-negative, got %v: %w", id, lookaheadDistance, ErrInvalidParameter)
	}
	if initialSpeed < 0 {
		return nil, fmt.Errorf("vehicle %d: initialSpeed must be non-negative, got %v: %w", id, initialSpeed, ErrInvalidParameter)
	}

	status := StatusStopped
	if initialSpeed > 0 {
		status = StatusCruising
	}

	return &Vehicle{
		id:                id,
		topSpeed:          topSpeed,
		baseAcceleration:  baseAcceleration,
		followDistance:    followDistance,
		lookaheadDistance: lookaheadDistance,
		speed:             initialSpeed,
		acceleration:      baseAcceleration,
		status:            status,
	}, nil
}

// ID 返回车辆ID
func (v *Vehicle) ID() int64 {
	return v.id
}

// TopSpeed 返回最高速度
func (v *Vehicle) TopSpeed() float64 {
	return v.topSpeed
}

// BaseAcceleration 返回基础加速度
func (v *Vehicle) BaseAcceleration() float64 {
	return v.baseAcceleration
}

// FollowDistance 返回跟车距离
func (v *Vehicle) FollowDistance() float64 {
	return v.followDistance
}

// LookaheadDistance 返回感知距离
func (v *Vehicle) LookaheadDistance() float64 {
	return v.lookaheadDistance
}

// SensingRange 返回制动判断的总范围：跟车距离加感知距离
func (v *Vehicle) SensingRange() float64 {
	return v.followDistance + v.lookaheadDistance
}

// Speed 返回当前速度
func (v *Vehicle) Speed() float64 {
	return v.speed
}

// Acceleration 返回当前加速度
func (v *Vehicle) Acceleration() float64 {
	return v.acceleration
}

// Status 返回当前状态
func (v *Vehicle) Status() Status {
	return v.status
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("vehicle %d (speed %g, acceleration %g, %s)", v.id, v.speed, v.acceleration, v.status)
}

// kinematics 是车辆在一个时间步内的运动状态
// Step先在副本上计算，全部成功后再写回车辆
type kinematics struct {
	speed        float64
	acceleration float64
	status       Status
}

func (v *Vehicle) kinematics() kinematics {
	return kinematics{speed: v.speed, acceleration: v.acceleration, status: v.status}
}

func (v *Vehicle) apply(k kinematics) {
	v.speed = k.speed
	v.acceleration = k.acceleration
	v.status = k.status
}

// integrate 按加速度更新速度并做上下限截断
func (k *kinematics) integrate(topSpeed float64) {
	k.speed += k.acceleration

	if k.speed > topSpeed {
		k.speed = topSpeed
		k.status = StatusCruising
		k.acceleration = 0
	}
	if k.speed <= 0 {
		k.speed = 0
		k.status = StatusStopped
		if k.acceleration < 0 {
			k.acceleration = 0
		}
	}
}
