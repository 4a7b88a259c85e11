package element

// Status 表示车辆在当前时间步的运动状态
// 状态只是观测结果，由Step计算得出，不参与决策
type Status int

const (
	StatusStopped Status = iota
	StatusAccelerating
	StatusCruising
	StatusBraking
)

// AllStatuses 按固定顺序返回全部状态，便于统计和输出
func AllStatuses() []Status {
	return []Status{StatusStopped, StatusAccelerating, StatusCruising, StatusBraking}
}

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "STOPPED"
	case StatusAccelerating:
		return "ACCELERATING"
	case StatusCruising:
		return "CRUISING"
	case StatusBraking:
		return "BRAKING"
	default:
		return "UNKNOWN"
	}
}
