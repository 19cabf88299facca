// Package settings holds the runtime-adjustable options of the history engine.
package settings

import (
	"strconv"
	"strings"

	"go.klb.dev/clipkeep/internal/apperror"
)

// Option keys, shared by config files, CLI flags, the settings table and
// the control protocols.
const (
	KeyHistoryLimit           = "history-limit"
	KeyIgnorePasswordManagers = "ignore-password-managers"
	KeyIgnoreCustomApps       = "ignore-custom-apps"
)

// Settings is the configuration surface exposed to collaborators.
type Settings struct {
	HistoryLimit           int  `json:"history_limit"`
	IgnorePasswordManagers bool `json:"ignore_password_managers"`
	IgnoreCustomApps       bool `json:"ignore_custom_apps"`
}

// Default returns the settings of a fresh install.
func Default() Settings {
	return Settings{
		HistoryLimit:           20,
		IgnorePasswordManagers: true,
		IgnoreCustomApps:       true,
	}
}

// Keys lists every settable option.
func Keys() []string {
	return []string{KeyHistoryLimit, KeyIgnorePasswordManagers, KeyIgnoreCustomApps}
}

// Set parses value and assigns it to the option named key.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case KeyHistoryLimit:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return apperror.Validation("%s must be a positive integer, got %q", key, value)
		}
		s.HistoryLimit = n
	case KeyIgnorePasswordManagers, KeyIgnoreCustomApps:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return apperror.Validation("%s must be true or false, got %q", key, value)
		}
		if key == KeyIgnorePasswordManagers {
			s.IgnorePasswordManagers = b
		} else {
			s.IgnoreCustomApps = b
		}
	default:
		return apperror.Validation("unknown setting %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

// Apply assigns every known key present in values. Unknown keys are ignored
// so older databases with retired options still load.
func (s *Settings) Apply(values map[string]string) error {
	for _, k := range Keys() {
		v, ok := values[k]
		if !ok {
			continue
		}
		if err := s.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Values renders s as key/value strings for storage.
func (s Settings) Values() map[string]string {
	return map[string]string{
		KeyHistoryLimit:           strconv.Itoa(s.HistoryLimit),
		KeyIgnorePasswordManagers: strconv.FormatBool(s.IgnorePasswordManagers),
		KeyIgnoreCustomApps:       strconv.FormatBool(s.IgnoreCustomApps),
	}
}
