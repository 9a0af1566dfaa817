// Package useragent грубо классифицирует строку User-Agent: тип устройства, браузер и ОС.
package useragent

import (
	"strings"

	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// Info - результат классификации User-Agent
type Info struct {
	Device  string `json:"device_type"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

// IsHandheld возвращает true для телефонов и планшетов
func (i Info) IsHandheld() bool {
	return i.Device == entity.DeviceMobile || i.Device == entity.DeviceTablet
}

type rule struct {
	token string
	name  string
}

// Порядок важен: Edge и Opera содержат "Chrome", Chrome содержит "Safari"
var browserRules = []rule{
	{"edg/", "Edge"},
	{"edga/", "Edge"},
	{"edgios/", "Edge"},
	{"opr/", "Opera"},
	{"opera", "Opera"},
	{"samsungbrowser/", "Samsung Internet"},
	{"yabrowser/", "Yandex"},
	{"firefox/", "Firefox"},
	{"fxios/", "Firefox"},
	{"crios/", "Chrome"},
	{"chrome/", "Chrome"},
	{"chromium/", "Chrome"},
	{"safari/", "Safari"},
	{"msie ", "Internet Explorer"},
	{"trident/", "Internet Explorer"},
}

var osRules = []rule{
	{"iphone", "iOS"},
	{"ipad", "iOS"},
	{"ipod", "iOS"},
	{"android", "Android"},
	{"windows", "Windows"},
	{"cros", "ChromeOS"},
	{"mac os x", "macOS"},
	{"macintosh", "macOS"},
	{"linux", "Linux"},
}

var botTokens = []string{"bot", "crawler", "spider", "slurp", "curl/", "wget/", "python-requests", "go-http-client", "headless"}

// Parse классифицирует строку User-Agent. Пустая строка дает unknown.
func Parse(ua string) Info {
	s := strings.ToLower(strings.TrimSpace(ua))
	if s == "" {
		return Info{Device: entity.DeviceUnknown, Browser: "Unknown", OS: "Unknown"}
	}

	info := Info{
		Device:  detectDevice(s),
		Browser: match(s, browserRules),
		OS:      match(s, osRules),
	}
	return info
}

func detectDevice(s string) string {
	for _, token := range botTokens {
		if strings.Contains(s, token) {
			return entity.DeviceBot
		}
	}
	switch {
	case strings.Contains(s, "ipad"), strings.Contains(s, "tablet"):
		return entity.DeviceTablet
	case strings.Contains(s, "android") && !strings.Contains(s, "mobile"):
		return entity.DeviceTablet
	case strings.Contains(s, "iphone"), strings.Contains(s, "ipod"), strings.Contains(s, "mobile"), strings.Contains(s, "android"):
		return entity.DeviceMobile
	case strings.Contains(s, "windows"), strings.Contains(s, "macintosh"), strings.Contains(s, "x11"), strings.Contains(s, "cros"), strings.Contains(s, "linux"):
		return entity.DeviceDesktop
	}
	return entity.DeviceUnknown
}

func match(s string, rules []rule) string {
	for _, r := range rules {
		if strings.Contains(s, r.token) {
			return r.name
		}
	}
	return "Unknown"
}
