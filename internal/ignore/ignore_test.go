package ignore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipkeep/internal/apperror"
)

func TestShouldIgnore(t *testing.T) {
	builtIn := NewSet("com.bitwarden.desktop")
	custom := NewSet("com.example.bank")

	tests := []struct {
		name                string
		app                 string
		builtInOn, customOn bool
		want                bool
	}{
		{"built-in app, built-in on", "com.bitwarden.desktop", true, false, true},
		{"built-in app, built-in off", "com.bitwarden.desktop", false, true, false},
		{"custom app, custom on", "com.example.bank", false, true, true},
		{"custom app, custom off", "com.example.bank", true, false, false},
		{"unlisted app", "com.apple.Safari", true, true, false},
		{"unknown focus", "", true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldIgnore(tt.app, tt.builtInOn, tt.customOn, builtIn, custom))
		})
	}
}

func TestShouldIgnore_NilSets(t *testing.T) {
	assert.False(t, ShouldIgnore("x", true, true, nil, nil))
}

func TestBuiltIn(t *testing.T) {
	set := BuiltInSet()
	assert.True(t, set.Has("org.keepassxc.keepassxc"))
	assert.True(t, set.Has("KeePassXC.exe"))
	apps := BuiltIn()
	require.Len(t, apps, len(set))
	for i := 1; i < len(apps); i++ {
		assert.Less(t, apps[i-1].ApplicationID, apps[i].ApplicationID)
	}
}

type memPersistence struct {
	apps  []App
	saves int
}

func (m *memPersistence) LoadIgnoreList(context.Context) ([]App, error) { return m.apps, nil }

func (m *memPersistence) SaveIgnoreList(_ context.Context, apps []App) error {
	m.saves++
	m.apps = apps
	return nil
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	p := &memPersistence{apps: []App{{ApplicationID: "com.example.bank", DisplayName: "Bank"}}}
	r := NewRegistry(p)
	var notified [][]App
	r.OnChange(func(apps []App) { notified = append(notified, apps) })

	require.NoError(t, r.Load(ctx))
	assert.True(t, r.ShouldIgnore("com.example.bank"))
	assert.True(t, r.ShouldIgnore("com.1password.1password"))

	require.NoError(t, r.Add(ctx, App{ApplicationID: " com.example.vault "}))
	assert.Equal(t, []App{
		{ApplicationID: "com.example.bank", DisplayName: "Bank"},
		{ApplicationID: "com.example.vault", DisplayName: "com.example.vault"},
	}, r.Apps())
	assert.Equal(t, r.Apps(), p.apps)

	err := r.Add(ctx, App{ApplicationID: "  "})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	assert.True(t, r.Remove(ctx, "com.example.bank"))
	assert.False(t, r.Remove(ctx, "com.example.bank"))
	assert.False(t, r.ShouldIgnore("com.example.bank"))

	r.SetCustomEnabled(false)
	assert.False(t, r.ShouldIgnore("com.example.vault"))
	r.SetBuiltInEnabled(false)
	assert.False(t, r.ShouldIgnore("com.1password.1password"))

	assert.Equal(t, 2, p.saves)
	assert.Len(t, notified, 3)
}
