package recorder

import (
	"strconv"
	"sync"

	"laneCA/element"
)

var (
	vehicleDataCache [][]string = make([][]string, 0)
	vehicleDataMutex sync.Mutex
)

// RecordVehicleData 记录一辆离开车道的车辆
func RecordVehicleData(vehicle *element.Vehicle, laneIndex, inTime, outTime int) {
	vehicleDataMutex.Lock()
	defer vehicleDataMutex.Unlock()
	vehicleDataCache = append(vehicleDataCache, getVehicleData(vehicle, laneIndex, inTime, outTime))
}

func getVehicleData(vehicle *element.Vehicle, laneIndex, inTime, outTime int) []string {
	return []string{
		strconv.FormatInt(vehicle.ID(), 10),      // 车辆 ID
		strconv.Itoa(laneIndex),                  // 车道
		formatFloat(vehicle.TopSpeed()),          // 最高速度
		formatFloat(vehicle.BaseAcceleration()),  // 基础加速度
		formatFloat(vehicle.FollowDistance()),    // 跟车距离
		formatFloat(vehicle.LookaheadDistance()), // 感知距离
		strconv.Itoa(inTime),                     // 进入车道时间
		strconv.Itoa(outTime),                    // 离开车道时间
	}
}

func InitVehicleDataCSV(filename string) error {
	header := []string{
		"VehicleID", "Lane", "TopSpeed", "Acceleration", "FollowDistance", "LookaheadDistance", "InTime", "OutTime",
	}
	return initializeCSV(filename, header)
}

func WriteToVehicleDataCSV(filename string) error {
	vehicleDataMutex.Lock()
	defer vehicleDataMutex.Unlock()
	if len(vehicleDataCache) == 0 {
		return nil
	}
	if err := appendToCSV(filename, vehicleDataCache); err != nil {
		return err
	}
	vehicleDataCache = make([][]string, 0)
	return nil
}
