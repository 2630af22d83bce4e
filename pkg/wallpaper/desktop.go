package wallpaper

import (
	"fmt"
	"net/url"
	"strings"
)

// Desktop identifies a desktop environment family that understands slideshow descriptors.
type Desktop string

const (
	DesktopGNOME    Desktop = "gnome"
	DesktopCinnamon Desktop = "cinnamon"
	DesktopMATE     Desktop = "mate"
	DesktopUnknown  Desktop = ""
)

// DetectDesktop maps XDG_CURRENT_DESKTOP (or DESKTOP_SESSION) to a Desktop.
func DetectDesktop(getenv func(string) string) Desktop {
	env := getenv("XDG_CURRENT_DESKTOP")
	if env == "" {
		env = getenv("DESKTOP_SESSION")
	}
	env = strings.ToLower(env)

	switch {
	case strings.Contains(env, "cinnamon"):
		return DesktopCinnamon
	case strings.Contains(env, "mate"):
		return DesktopMATE
	case strings.Contains(env, "gnome"), strings.Contains(env, "unity"),
		strings.Contains(env, "mutter"), strings.Contains(env, "budgie"), strings.Contains(env, "pantheon"):
		return DesktopGNOME
	default:
		return DesktopUnknown
	}
}

// fileURI returns a file:// URI for an absolute path.
func fileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: path}).String()
}

// desktopCommands returns the gsettings invocations that point desktop at descriptor.
func desktopCommands(desktop Desktop, descriptor string) ([][]string, error) {
	uri := fileURI(descriptor)
	switch desktop {
	case DesktopGNOME:
		return [][]string{
			{"gsettings", "set", "org.gnome.desktop.background", "picture-uri", uri},
			{"gsettings", "set", "org.gnome.desktop.background", "picture-uri-dark", uri},
		}, nil
	case DesktopCinnamon:
		return [][]string{
			{"gsettings", "set", "org.cinnamon.desktop.background", "picture-uri", uri},
		}, nil
	case DesktopMATE:
		return [][]string{
			{"gsettings", "set", "org.mate.background", "picture-filename", descriptor},
		}, nil
	default:
		return nil, fmt.Errorf("%w; set wallpaper.command in the config", ErrUnsupportedDesktop)
	}
}

// customCommand substitutes "{file}" in argv with the descriptor path.
func customCommand(argv []string, descriptor string) [][]string {
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = strings.ReplaceAll(a, "{file}", descriptor)
	}
	return [][]string{out}
}
