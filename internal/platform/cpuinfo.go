package platform

import (
	"bufio"
	"strings"
)

// cpuInfo is what /proc/cpuinfo tells us about the installed processors.
type cpuInfo struct {
	Model   string
	Sockets int // distinct "physical id" values
}

// parseCPUInfo extracts the model name and socket count from the contents of
// /proc/cpuinfo. Sockets falls back to 1 when the kernel does not report
// physical ids (common on ARM).
func parseCPUInfo(content string) cpuInfo {
	var info cpuInfo
	sockets := make(map[string]struct{})

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch strings.ToLower(key) {
		case "model name":
			if info.Model == "" {
				info.Model = value
			}
		case "physical id":
			sockets[value] = struct{}{}
		}
	}

	info.Sockets = len(sockets)
	if info.Sockets == 0 && content != "" {
		info.Sockets = 1
	}
	return info
}

// parseLscpuModel returns the "Model name:" value from lscpu output.
func parseLscpuModel(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "model name") {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
