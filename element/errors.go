package element

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter 构造参数不合法（负值、NaN、Inf等）
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrPositionOccupied 目标位置已有车辆
	ErrPositionOccupied = errors.New("position occupied")
	// ErrDuplicateVehicle 同一车道中已存在相同ID的车辆
	ErrDuplicateVehicle = errors.New("duplicate vehicle id")
	// ErrVehicleOnOtherLane 车辆已经在另一条车道上
	ErrVehicleOnOtherLane = errors.New("vehicle already on another lane")
	// ErrVehicleNotFound 车道中不存在指定车辆
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrCollision 两辆车在同一时间步移动到了同一位置
	ErrCollision = errors.New("vehicle collision")
)

// CollisionError 描述一次位置冲突
// 发生冲突时车道保持时间步开始前的状态
type CollisionError struct {
	Position float64
	First    int64
	Second   int64
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("vehicles %d and %d both moved to position %g: %v", e.First, e.Second, e.Position, ErrCollision)
}

func (e *CollisionError) Is(target error) bool {
	return target == ErrCollision
}
