//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const currentVersionKey = `SOFTWARE\Microsoft\Windows NT\CurrentVersion`

func readWindowsVersion() (product, build string, err error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, currentVersionKey, registry.QUERY_VALUE)
	if err != nil {
		return "", "", fmt.Errorf("open registry key: %w", err)
	}
	defer k.Close()

	product, _, err = k.GetStringValue("ProductName")
	if err != nil {
		return "", "", fmt.Errorf("read ProductName: %w", err)
	}
	build, _, err = k.GetStringValue("CurrentBuildNumber")
	if err != nil {
		return "", "", fmt.Errorf("read CurrentBuildNumber: %w", err)
	}
	return product, build, nil
}
