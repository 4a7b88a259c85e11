package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

var (
	logger  = stdlog.New(os.Stdout, "", stdlog.LstdFlags)
	logFile *os.File
	logMu   sync.Mutex
)

// InitLog 初始化日志，同时输出到标准输出和日志文件
func InitLog(filename string) error {
	logMu.Lock()
	defer logMu.Unlock()

	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	logger = stdlog.New(io.MultiWriter(os.Stdout, file), "", stdlog.LstdFlags)
	return nil
}

// SetOutput 替换日志输出目标，测试中用于捕获日志
func SetOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = stdlog.New(w, "", stdlog.LstdFlags)
}

// WriteLog 写入一行日志
func WriteLog(message string) {
	logMu.Lock()
	defer logMu.Unlock()
	logger.Println(message)
}

// WriteLogf 按格式写入一行日志
func WriteLogf(format string, args ...any) {
	WriteLog(fmt.Sprintf(format, args...))
}

// CloseLog 关闭日志文件，之后的日志只输出到标准输出
func CloseLog() {
	logMu.Lock()
	defer logMu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	logger = stdlog.New(os.Stdout, "", stdlog.LstdFlags)
}

// LogEnvironment 记录运行环境
func LogEnvironment() {
	WriteLogf("Go: %s, OS/Arch: %s/%s, CPUs: %d, GOMAXPROCS: %d",
		runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.GOMAXPROCS(0))
}

// ConvertTimeStepToTime 将时间步换算为模拟时间
func ConvertTimeStepToTime(timeStep int, secondsPerTick float64) time.Duration {
	return time.Duration(float64(timeStep) * secondsPerTick * float64(time.Second))
}
