// Package ignore decides whether clipboard capture is suppressed for the
// application that currently holds input focus.
package ignore

import "sort"

// App identifies an application by its stable platform identifier: a bundle
// identifier on macOS, the WM_CLASS class name on X11 and the executable name
// on Windows. DisplayName is informational only.
type App struct {
	ApplicationID string `json:"application_id"`
	DisplayName   string `json:"display_name"`
}

// Set is a set of application identifiers.
type Set map[string]struct{}

// NewSet returns a Set holding ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in s. A nil Set holds nothing.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// ShouldIgnore reports whether capture must be skipped while appID is
// focused. An unknown (empty) identifier is never ignored.
func ShouldIgnore(appID string, builtInEnabled, customEnabled bool, builtIn, custom Set) bool {
	if appID == "" {
		return false
	}
	return (builtInEnabled && builtIn.Has(appID)) || (customEnabled && custom.Has(appID))
}

// builtIn lists well-known credential managers.
var builtIn = []App{
	// macOS bundle identifiers
	{"com.1password.1password", "1Password"},
	{"com.agilebits.onepassword7", "1Password 7"},
	{"com.agilebits.onepassword-osx", "1Password 6"},
	{"com.bitwarden.desktop", "Bitwarden"},
	{"com.lastpass.LastPass", "LastPass"},
	{"com.dashlane.dashlanephonefinal", "Dashlane"},
	{"org.keepassxc.keepassxc", "KeePassXC"},
	{"com.keepersecurity.passwordmanager", "Keeper"},
	{"com.enpass.Enpass", "Enpass"},
	{"com.apple.keychainaccess", "Keychain Access"},
	{"com.apple.Passwords", "Passwords"},
	{"in.sinew.Enpass-Desktop", "Enpass (Mac App Store)"},
	// X11 WM_CLASS class names
	{"KeePassXC", "KeePassXC"},
	{"1Password", "1Password"},
	{"Bitwarden", "Bitwarden"},
	{"Enpass", "Enpass"},
	{"Seahorse", "Passwords and Keys"},
	// Windows executable names
	{"KeePassXC.exe", "KeePassXC"},
	{"KeePass.exe", "KeePass"},
	{"1Password.exe", "1Password"},
	{"Bitwarden.exe", "Bitwarden"},
	{"Dashlane.exe", "Dashlane"},
	{"Enpass.exe", "Enpass"},
}

// BuiltIn returns the shipped credential-manager list, sorted by identifier.
func BuiltIn() []App {
	out := append([]App(nil), builtIn...)
	sort.Slice(out, func(i, j int) bool { return out[i].ApplicationID < out[j].ApplicationID })
	return out
}

// BuiltInSet returns the shipped list as a Set.
func BuiltInSet() Set {
	s := make(Set, len(builtIn))
	for _, a := range builtIn {
		s[a.ApplicationID] = struct{}{}
	}
	return s
}
