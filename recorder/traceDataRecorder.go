package recorder

import (
	"strconv"
	"sync"

	"laneCA/element"
)

var (
	traceDataCache [][]string   // 轨迹数据缓存，每行一辆车
	traceDataMutex sync.RWMutex // 使用读写锁保护并发访问
)

// RecordTraceData 记录一条车道上所有车辆在当前时间步的状态
// 车道按位置从前到后输出
func RecordTraceData(tick, laneIndex int, lane *element.Lane) {
	if lane == nil {
		return
	}

	records := make([][]string, 0, lane.Len())
	for position, vehicle := range lane.VehiclesByPosition() {
		records = append(records, []string{
			strconv.Itoa(tick),
			strconv.Itoa(laneIndex),
			strconv.FormatInt(vehicle.ID(), 10),
			formatFloat(position),
			formatFloat(vehicle.Speed()),
			formatFloat(vehicle.Acceleration()),
			vehicle.Status().String(),
		})
	}
	if len(records) == 0 {
		return
	}

	traceDataMutex.Lock()
	defer traceDataMutex.Unlock()
	traceDataCache = append(traceDataCache, records...)
}

// PendingTraceRecords 返回尚未写入文件的轨迹记录数
func PendingTraceRecords() int {
	traceDataMutex.RLock()
	defer traceDataMutex.RUnlock()
	return len(traceDataCache)
}

// InitTraceDataCSV 初始化轨迹数据CSV文件
func InitTraceDataCSV(filename string) error {
	header := []string{
		"Tick", "Lane", "VehicleID", "Position", "Speed", "Acceleration", "Status",
	}
	return initializeCSV(filename, header)
}

// WriteToTraceDataCSV 将缓存的轨迹数据写入CSV文件
func WriteToTraceDataCSV(filename string) error {
	traceDataMutex.Lock()
	if len(traceDataCache) == 0 {
		traceDataMutex.Unlock()
		return nil
	}

	// 交换缓存，写文件时不持有锁
	dataToWrite := traceDataCache
	traceDataCache = make([][]string, 0, len(dataToWrite))
	traceDataMutex.Unlock()

	if err := appendToCSV(filename, dataToWrite); err != nil {
		// 写入失败时把数据放回缓存，留待下次写入
		traceDataMutex.Lock()
		traceDataCache = append(dataToWrite, traceDataCache...)
		traceDataMutex.Unlock()
		return err
	}
	return nil
}
