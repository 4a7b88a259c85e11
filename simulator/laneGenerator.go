package simulator

import (
	"fmt"

	"laneCA/config"
	"laneCA/element"
)

// CreateLanes 按配置创建车道
func CreateLanes(lanes []config.LaneConfig) ([]*element.Lane, error) {
	if len(lanes) == 0 {
		return nil, fmt.Errorf("no lanes configured: %w", element.ErrInvalidParameter)
	}

	created := make([]*element.Lane, 0, len(lanes))
	for i, lc := range lanes {
		lane, err := element.NewLane(lc.Length, element.WithCircular(lc.Circular))
		if err != nil {
			return nil, fmt.Errorf("lane %d: %w", i, err)
		}
		created = append(created, lane)
	}
	return created, nil
}

// PlaceVehicles 将初始车辆放到车道上
// 返回放置的车辆及其所在车道
func PlaceVehicles(lanes []*element.Lane, placements []config.PlacementConfig, g *VehicleGenerator) (map[*element.Vehicle]int, error) {
	placed := make(map[*element.Vehicle]int, len(placements))
	for i, p := range placements {
		if p.Lane < 0 || p.Lane >= len(lanes) {
			return nil, fmt.Errorf("vehicles[%d]: lane %d out of range: %w", i, p.Lane, element.ErrInvalidParameter)
		}

		vehicle, err := g.NewVehicle(p.Template)
		if err != nil {
			return nil, fmt.Errorf("vehicles[%d]: %w", i, err)
		}
		if err := lanes[p.Lane].Insert(vehicle, p.Position); err != nil {
			return nil, fmt.Errorf("vehicles[%d]: %w", i, err)
		}
		placed[vehicle] = p.Lane
	}
	return placed, nil
}
