package device

import (
	"regexp"
	"strings"

	"board-service/internal/models"
)

const unknown = "Unknown"

var (
	androidVersionRe = regexp.MustCompile(`android ([\d.]+)`)
	iosVersionRe     = regexp.MustCompile(`os ([\d_]+)`)
	macVersionRe     = regexp.MustCompile(`mac os x ([\d_]+)`)
	chromeVersionRe  = regexp.MustCompile(`chrome/([\d.]+)`)
	safariVersionRe  = regexp.MustCompile(`version/([\d.]+)`)
	firefoxVersionRe = regexp.MustCompile(`firefox/([\d.]+)`)
	edgeVersionRe    = regexp.MustCompile(`edg/([\d.]+)`)
)

// Classify derives a device profile from the user-agent string and the
// client-reported capability bundle. Matching is substring-based over the
// lower-cased user agent; anything that matches no rule stays "Unknown".
// A nil bundle yields the desktop defaults.
func Classify(userAgent string, caps *models.ClientDeviceInfo) models.DeviceInfo {
	ua := strings.ToLower(userAgent)

	info := models.DeviceInfo{
		UserAgent:       userAgent,
		Platform:        unknown,
		DeviceType:      "desktop",
		DeviceBrand:     unknown,
		DeviceModel:     unknown,
		OperatingSystem: unknown,
		OSVersion:       unknown,
		Browser:         unknown,
		BrowserVersion:  unknown,
		ConnectionType:  unknown,
	}

	if caps != nil {
		if caps.Platform != "" {
			info.Platform = caps.Platform
		}
		if caps.ConnectionType != "" {
			info.ConnectionType = caps.ConnectionType
		}
		info.IsMobile = caps.IsMobile
		info.IsTablet = caps.IsTablet
		info.ScreenWidth = caps.ScreenWidth
		info.ScreenHeight = caps.ScreenHeight
		info.ColorDepth = caps.ColorDepth
		info.PixelRatio = caps.PixelRatio
		info.TouchSupport = caps.TouchSupport
		info.CookiesEnabled = caps.CookiesEnabled
		info.SensorSupport = caps.SensorSupport
		info.BatterySupport = caps.BatterySupport
	}

	info.IsDesktop = !info.IsMobile && !info.IsTablet
	if info.IsMobile {
		info.DeviceType = "mobile"
	} else if info.IsTablet {
		info.DeviceType = "tablet"
	}

	classifyOS(ua, &info)
	classifyBrowser(ua, &info)
	classifyBrand(ua, &info)

	return info
}

func classifyOS(ua string, info *models.DeviceInfo) {
	switch {
	case strings.Contains(ua, "android"):
		info.OperatingSystem = "Android"
		if m := androidVersionRe.FindStringSubmatch(ua); m != nil {
			info.OSVersion = m[1]
		}
	case strings.Contains(ua, "iphone"):
		info.OperatingSystem = "iOS"
		if m := iosVersionRe.FindStringSubmatch(ua); m != nil {
			info.OSVersion = strings.ReplaceAll(m[1], "_", ".")
		}
	case strings.Contains(ua, "ipad"):
		info.OperatingSystem = "iPadOS"
		if m := iosVersionRe.FindStringSubmatch(ua); m != nil {
			info.OSVersion = strings.ReplaceAll(m[1], "_", ".")
		}
	case strings.Contains(ua, "windows"):
		info.OperatingSystem = "Windows"
		switch {
		case strings.Contains(ua, "nt 10.0"):
			info.OSVersion = "10/11"
		case strings.Contains(ua, "nt 6.3"):
			info.OSVersion = "8.1"
		case strings.Contains(ua, "nt 6.1"):
			info.OSVersion = "7"
		}
	case strings.Contains(ua, "mac os"):
		info.OperatingSystem = "macOS"
		if m := macVersionRe.FindStringSubmatch(ua); m != nil {
			info.OSVersion = strings.ReplaceAll(m[1], "_", ".")
		}
	case strings.Contains(ua, "linux"):
		info.OperatingSystem = "Linux"
	}
}

// classifyBrowser runs its checks in sequence rather than as an exclusive
// chain; a later match overwrites an earlier one. The exclusions keep
// Chromium-based agents from matching as both Chrome and Safari or Edge.
func classifyBrowser(ua string, info *models.DeviceInfo) {
	if strings.Contains(ua, "chrome") && !strings.Contains(ua, "edg") {
		info.Browser = "Chrome"
		if m := chromeVersionRe.FindStringSubmatch(ua); m != nil {
			info.BrowserVersion = m[1]
		}
	}
	if strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome") {
		info.Browser = "Safari"
		if m := safariVersionRe.FindStringSubmatch(ua); m != nil {
			info.BrowserVersion = m[1]
		}
	}
	if strings.Contains(ua, "firefox") {
		info.Browser = "Firefox"
		if m := firefoxVersionRe.FindStringSubmatch(ua); m != nil {
			info.BrowserVersion = m[1]
		}
	}
	if strings.Contains(ua, "edg") {
		info.Browser = "Microsoft Edge"
		if m := edgeVersionRe.FindStringSubmatch(ua); m != nil {
			info.BrowserVersion = m[1]
		}
	}
}

func classifyBrand(ua string, info *models.DeviceInfo) {
	switch {
	case strings.Contains(ua, "iphone"):
		info.DeviceBrand = "Apple"
		switch {
		case strings.Contains(ua, "iphone14"):
			info.DeviceModel = "iPhone 14"
		case strings.Contains(ua, "iphone13"):
			info.DeviceModel = "iPhone 13"
		case strings.Contains(ua, "iphone12"):
			info.DeviceModel = "iPhone 12"
		default:
			info.DeviceModel = "iPhone"
		}
	case strings.Contains(ua, "ipad"):
		info.DeviceBrand = "Apple"
		info.DeviceModel = "iPad"
	case strings.Contains(ua, "samsung"):
		info.DeviceBrand = "Samsung"
		if strings.Contains(ua, "galaxy") {
			info.DeviceModel = "Galaxy"
		}
	case strings.Contains(ua, "pixel"):
		info.DeviceBrand = "Google"
		info.DeviceModel = "Pixel"
	case strings.Contains(ua, "oneplus"):
		info.DeviceBrand = "OnePlus"
	case strings.Contains(ua, "xiaomi"):
		info.DeviceBrand = "Xiaomi"
	case strings.Contains(ua, "huawei"):
		info.DeviceBrand = "Huawei"
	}
}
