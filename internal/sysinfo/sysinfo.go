// Package sysinfo provides built-in handlers for the read-only statistics
// intents, backed by gopsutil so they behave the same on every OS.
package sysinfo

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/DevSymphony/sysop/internal/router"
)

// Intent ids served in-process.
const (
	IntentDiskUsage   = "disk.usage"
	IntentDiskList    = "disk.list"
	IntentProcessList = "process.list"
	IntentSystemLoad  = "system.get_load"
)

// Register adds every built-in handler to r.
func Register(r *router.Registry) error {
	handlers := map[string]router.HandlerFunc{
		IntentDiskUsage:   DiskUsage,
		IntentDiskList:    DiskList,
		IntentProcessList: ProcessList,
		IntentSystemLoad:  SystemLoad,
	}
	for id, h := range handlers {
		if err := r.Register(id, h); err != nil {
			return err
		}
	}
	return nil
}

// DiskUsage reports total/used/free per mounted partition.
func DiskUsage(ctx context.Context, _ map[string]string, out func(string)) error {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to list partitions: %w", err)
	}

	var stats []*disk.UsageStat
	for _, p := range parts {
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || u.Total == 0 {
			continue
		}
		stats = append(stats, u)
	}
	out(FormatDiskUsage(stats))
	return nil
}

// FormatDiskUsage renders usage rows as an aligned table.
func FormatDiskUsage(stats []*disk.UsageStat) string {
	rows := make([][]string, 0, len(stats))
	for _, u := range stats {
		rows = append(rows, []string{
			u.Path,
			humanize.IBytes(u.Total),
			humanize.IBytes(u.Used),
			humanize.IBytes(u.Free),
			fmt.Sprintf("%.1f%%", u.UsedPercent),
		})
	}
	return table([]string{"MOUNT", "SIZE", "USED", "FREE", "USE%"}, rows)
}

// DiskList reports devices and their mount points.
func DiskList(ctx context.Context, _ map[string]string, out func(string)) error {
	parts, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list partitions: %w", err)
	}
	out(FormatPartitions(parts))
	return nil
}

// FormatPartitions renders partitions as an aligned table.
func FormatPartitions(parts []disk.PartitionStat) string {
	rows := make([][]string, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, []string{p.Device, p.Mountpoint, p.Fstype})
	}
	return table([]string{"DEVICE", "MOUNT", "FSTYPE"}, rows)
}

// ProcessInfo is one row of the process table.
type ProcessInfo struct {
	PID    int32
	Name   string
	Memory float32
}

// ProcessList reports running processes sorted by memory share.
func ProcessList(ctx context.Context, _ map[string]string, out func(string)) error {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to list processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// exited between listing and inspection
			continue
		}
		memPct, _ := p.MemoryPercentWithContext(ctx)
		infos = append(infos, ProcessInfo{PID: p.Pid, Name: name, Memory: memPct})
	}
	out(FormatProcesses(infos))
	return nil
}

// FormatProcesses sorts by memory descending, then pid, and renders a table.
func FormatProcesses(infos []ProcessInfo) string {
	sorted := append([]ProcessInfo(nil), infos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Memory != sorted[j].Memory {
			return sorted[i].Memory > sorted[j].Memory
		}
		return sorted[i].PID < sorted[j].PID
	})

	rows := make([][]string, 0, len(sorted))
	for _, p := range sorted {
		rows = append(rows, []string{fmt.Sprint(p.PID), p.Name, fmt.Sprintf("%.1f", p.Memory)})
	}
	return table([]string{"PID", "NAME", "MEM%"}, rows)
}

// Load is a point-in-time snapshot of CPU and memory pressure.
type Load struct {
	CPUPercent float64
	// Load averages are zero on platforms without them (Windows).
	Load1, Load5, Load15 float64
	MemUsed              uint64
	MemTotal             uint64
	MemPercent           float64
}

// SystemLoad reports CPU and memory load.
func SystemLoad(ctx context.Context, _ map[string]string, out func(string)) error {
	var l Load

	pct, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return fmt.Errorf("failed to read cpu: %w", err)
	}
	if len(pct) > 0 {
		l.CPUPercent = pct[0]
	}

	if runtime.GOOS != "windows" {
		if avg, err := load.AvgWithContext(ctx); err == nil {
			l.Load1, l.Load5, l.Load15 = avg.Load1, avg.Load5, avg.Load15
		}
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to read memory: %w", err)
	}
	l.MemUsed, l.MemTotal, l.MemPercent = vm.Used, vm.Total, vm.UsedPercent

	out(FormatLoad(l))
	return nil
}

// FormatLoad renders a Load as key/value lines.
func FormatLoad(l Load) string {
	rows := [][]string{
		{"cpu", fmt.Sprintf("%.1f%%", l.CPUPercent)},
		{"load avg", fmt.Sprintf("%.2f %.2f %.2f", l.Load1, l.Load5, l.Load15)},
		{"memory", fmt.Sprintf("%s / %s (%.1f%%)", humanize.IBytes(l.MemUsed), humanize.IBytes(l.MemTotal), l.MemPercent)},
	}
	return table(nil, rows)
}

func table(header []string, rows [][]string) string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	if header != nil {
		fmt.Fprintln(tw, strings.Join(header, "\t"))
	}
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	_ = tw.Flush()
	return sb.String()
}
