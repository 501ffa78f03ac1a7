package domain

import "strings"

// Screen is a logical UI surface the host can ask the browser to show.
type Screen string

const (
	ScreenTitle        Screen = "title"
	ScreenHUD          Screen = "hud"
	ScreenClickGUI     Screen = "clickgui"
	ScreenAltManager   Screen = "altmanager"
	ScreenProxyManager Screen = "proxymanager"
	ScreenContainer    Screen = "container"
	ScreenInventory    Screen = "inventory"
	ScreenCustomize    Screen = "customize"
	ScreenDisconnected Screen = "disconnected"
)

// Screens lists every screen in menu order.
var Screens = []Screen{
	ScreenTitle,
	ScreenHUD,
	ScreenClickGUI,
	ScreenAltManager,
	ScreenProxyManager,
	ScreenContainer,
	ScreenInventory,
	ScreenCustomize,
	ScreenDisconnected,
}

// ParseScreen matches a route name case-insensitively.
func ParseScreen(name string) (Screen, error) {
	for _, s := range Screens {
		if strings.EqualFold(string(s), name) {
			return s, nil
		}
	}
	return "", ErrUnknownScreen
}

func (s Screen) String() string { return string(s) }
