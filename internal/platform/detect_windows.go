//go:build windows

package platform

import (
	"go.uber.org/zap"

	"github.com/HerbHall/hostpulse/internal/provider"
)

func newPlatform(p provider.Provider, logger *zap.Logger) Platform {
	return NewWindows(p, logger)
}
