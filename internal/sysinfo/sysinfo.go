// Package sysinfo stamps solve runs with the host they ran on.
package sysinfo

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"

	"vrproute/internal/model"
)

var (
	once   sync.Once
	cached model.SysInfo
)

// Get collects platform, CPU model and total RAM once per process.
// Fields the host does not expose fall back to runtime values.
func Get() model.SysInfo {
	once.Do(func() { cached = collect() })
	return cached
}

func collect() model.SysInfo {
	info := model.SysInfo{Platform: runtime.GOOS, CPU: runtime.GOARCH, RAM: "unknown"}
	if hostStat, err := host.Info(); err == nil && hostStat.Platform != "" {
		info.Platform = hostStat.Platform
	}
	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 && cpuStat[0].ModelName != "" {
		info.CPU = cpuStat[0].ModelName
	}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.RAM = fmt.Sprintf("%d GB", vmStat.Total/1024/1024/1024)
	}
	return info
}
