package service

import (
	"strings"

	"github.com/mssola/useragent"
)

// Классы устройств
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"

	NetworkWiFi     = "WiFi"
	NetworkCellular = "Cellular"
)

// ClassifyUserAgent разбирает User-Agent на класс устройства,
// браузер и ОС. Пустой или нечитаемый UA даёт "Unknown".
func ClassifyUserAgent(raw string) (device, browser, os string) {
	if raw == "" {
		return "Unknown", "Unknown", "Unknown"
	}

	ua := useragent.New(raw)

	browser, _ = ua.Browser()
	if browser == "" {
		browser = "Unknown"
	}

	os = ua.OS()
	if os == "" {
		os = "Unknown"
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "tablet") || strings.Contains(lower, "ipad"):
		device = DeviceTablet
	case ua.Mobile():
		device = DeviceMobile
	default:
		device = DeviceDesktop
	}

	return device, browser, os
}

// ClassifyNetwork грубая классификация сети: точка захвата видит
// только заголовки, поэтому мобильные устройства считаются Cellular
func ClassifyNetwork(device string) string {
	if device == DeviceMobile {
		return NetworkCellular
	}
	return NetworkWiFi
}
