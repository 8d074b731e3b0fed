//go:build !windows

package platform

import "errors"

var errNoRegistry = errors.New("windows registry not available on this platform")

func readWindowsVersion() (product, build string, err error) {
	return "", "", errNoRegistry
}
