package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userflow/userflow/internal/authz"
	"github.com/userflow/userflow/internal/model"
)

type fakePreferenceStore struct {
	prefs map[string]*model.Preferences
}

func (f *fakePreferenceStore) GetByUserID(ctx context.Context, userID string) (*model.Preferences, error) {
	p, ok := f.prefs[userID]
	if !ok {
		return nil, assert.AnError
	}
	cp := *p
	return &cp, nil
}

func (f *fakePreferenceStore) Update(ctx context.Context, userID string, prefs *model.Preferences) error {
	cp := *prefs
	cp.UserID = userID
	f.prefs[userID] = &cp
	return nil
}

func TestPreferenceService(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()
	store := &fakePreferenceStore{prefs: map[string]*model.Preferences{
		"userX": model.DefaultPreferences("userX"),
	}}
	svc := NewPreferenceService(store, h.engine, testLogger())

	t.Run("owner reads own preferences", func(t *testing.T) {
		p, err := svc.Get(ctx, authz.Actor{ID: "userX"}, "userX")
		require.NoError(t, err)
		assert.Equal(t, "userX", p.UserID)
	})

	t.Run("admin reads any preferences", func(t *testing.T) {
		_, err := svc.Get(ctx, authz.Actor{ID: "admin1"}, "userX")
		assert.NoError(t, err)
	})

	t.Run("user cannot read another user's preferences", func(t *testing.T) {
		_, err := svc.Get(ctx, authz.Actor{ID: "userY"}, "userX")
		assert.ErrorIs(t, err, authz.ErrPermissionDenied)
	})

	t.Run("owner updates with a valid theme", func(t *testing.T) {
		prefs := model.DefaultPreferences("userX")
		prefs.Theme = model.ThemeDark
		require.NoError(t, svc.Update(ctx, authz.Actor{ID: "userX"}, "userX", prefs))
		assert.Equal(t, model.ThemeDark, store.prefs["userX"].Theme)
	})

	t.Run("invalid theme rejected", func(t *testing.T) {
		prefs := model.DefaultPreferences("userX")
		prefs.Theme = model.Theme("neon")
		err := svc.Update(ctx, authz.Actor{ID: "userX"}, "userX", prefs)
		assert.ErrorIs(t, err, ErrInvalidTheme)
	})

	t.Run("admin cannot update another user's preferences", func(t *testing.T) {
		prefs := model.DefaultPreferences("userX")
		err := svc.Update(ctx, authz.Actor{ID: "admin1"}, "userX", prefs)
		assert.ErrorIs(t, err, authz.ErrPermissionDenied)
	})
}
