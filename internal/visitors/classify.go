package visitors

import (
	"go.elara.ws/pcre"
)

// Operating system classes
const (
	OSWindows = "Windows"
	OSMacOS   = "MacOS"
	OSLinux   = "Linux"
	OSAndroid = "Android"
	OSiOS     = "iOS"
	OSUnknown = "Unknown"
)

// Device classes
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"
)

type uaRule struct {
	class string
	re    *pcre.Regexp
}

// Evaluated in order; the first match wins.
var osRules = []uaRule{
	{OSWindows, mustCompile(`(?i)windows`)},
	{OSMacOS, mustCompile(`(?i)macintosh`)},
	{OSLinux, mustCompile(`(?i)linux`)},
	{OSAndroid, mustCompile(`(?i)android`)},
	{OSiOS, mustCompile(`(?i)iphone|ipad`)},
}

// Mobile is checked before Tablet.
var deviceRules = []uaRule{
	{DeviceMobile, mustCompile(`(?i)mobile`)},
	{DeviceTablet, mustCompile(`(?i)tablet`)},
}

func mustCompile(pattern string) *pcre.Regexp {
	re, err := pcre.Compile(pattern)
	if err != nil {
		panic("visitors: invalid user agent pattern " + pattern + ": " + err.Error())
	}
	return re
}

// Classify derives the coarse OS and device class of a user agent.
func Classify(userAgent string) (os string, deviceClass string) {
	return classifyOS(userAgent), classifyDevice(userAgent)
}

func classifyOS(userAgent string) string {
	for _, rule := range osRules {
		if rule.re.MatchString(userAgent) {
			return rule.class
		}
	}
	return OSUnknown
}

func classifyDevice(userAgent string) string {
	for _, rule := range deviceRules {
		if rule.re.MatchString(userAgent) {
			return rule.class
		}
	}
	return DeviceDesktop
}
