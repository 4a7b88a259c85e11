package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// initializeCSV 创建（或清空）CSV文件并写入表头
func initializeCSV(filename string, header []string) (err error) {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", filename, err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filename, cerr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header to %s: %w", filename, err)
	}
	writer.Flush()
	return writer.Error()
}

// appendToCSV 将多行数据追加到已有的CSV文件
func appendToCSV(filename string, data [][]string) (err error) {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filename, cerr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(data); err != nil {
		return fmt.Errorf("write data to %s: %w", filename, err)
	}
	return nil
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.4f", f)
}
