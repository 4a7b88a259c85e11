package render

import (
	"fmt"
	"strings"

	"laneCA/element"

	"github.com/samber/lo"
)

var glyphs = map[element.Status]byte{
	element.StatusStopped:      '.',
	element.StatusAccelerating: '>',
	element.StatusCruising:     '=',
	element.StatusBraking:      '!',
}

// Glyph 返回车辆状态对应的字符，未知状态为'?'
func Glyph(status element.Status) byte {
	if g, ok := glyphs[status]; ok {
		return g
	}
	return '?'
}

type placed struct {
	position float64
	vehicle  *element.Vehicle
}

func collect(lane *element.Lane) []placed {
	out := make([]placed, 0, lane.Len())
	for position, vehicle := range lane.VehiclesByPosition() {
		out = append(out, placed{position: position, vehicle: vehicle})
	}
	return out
}

// Strip 把车道画成三行文本：上边框、车辆状态行、下边框
//
// 车道按比例压缩到width个字符，同一格内有多辆车时显示最前方的车辆。
// 位置不在[0, length)内的车辆不显示
func Strip(lane *element.Lane, width int) string {
	if width <= 0 {
		width = 1
	}
	border := strings.Repeat("-", width)
	row := []byte(strings.Repeat(" ", width))
	filled := make([]bool, width)

	scale := float64(width) / lane.Length()
	for _, p := range collect(lane) {
		if p.position < 0 || p.position >= lane.Length() {
			continue
		}
		cell := min(int(p.position*scale), width-1)
		if filled[cell] {
			continue
		}
		filled[cell] = true
		row[cell] = Glyph(p.vehicle.Status())
	}

	return border + "\n" + string(row) + "\n" + border
}

// Listing 按位置从前到后列出每辆车的状态，每辆车一行
func Listing(lane *element.Lane) []string {
	return lo.Map(collect(lane), func(p placed, _ int) string {
		v := p.vehicle
		return fmt.Sprintf("%d - x %g - speed %g - acceleration %g - %s",
			v.ID(), p.position, v.Speed(), v.Acceleration(), v.Status())
	})
}
