package draft

import (
	"testing"

	"github.com/logoforge/server/internal/models"
	"github.com/logoforge/server/internal/pkg/composition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraft(t *testing.T) {
	d, err := newDraft("u1", &CreateDraftDTO{Name: "  "})
	require.NoError(t, err)
	assert.Equal(t, "Untitled", d.Name)
	assert.Equal(t, composition.NewConfiguration().Width, d.Configuration.Width)

	bad := composition.NewConfiguration()
	bad.Width = 10
	_, err = newDraft("u1", &CreateDraftDTO{Configuration: &bad})
	assert.ErrorIs(t, err, composition.ErrValidation)
}

func TestApplyToDraft(t *testing.T) {
	addLayer := []composition.Operation{{Op: composition.OpAddTextLayer}}

	t.Run("bumps version", func(t *testing.T) {
		d := &models.DraftModel{Configuration: composition.NewConfiguration(), Version: 2}
		layers := len(d.Configuration.TextLayers)
		base := 2
		require.NoError(t, applyToDraft(d, addLayer, &base))
		assert.Equal(t, 3, d.Version)
		assert.Len(t, d.Configuration.TextLayers, layers+1)
	})

	t.Run("stale base version", func(t *testing.T) {
		d := &models.DraftModel{Configuration: composition.NewConfiguration(), Version: 2}
		stale := 1
		assert.ErrorIs(t, applyToDraft(d, addLayer, &stale), errVersionConflict)
		assert.Equal(t, 2, d.Version)
	})

	t.Run("failed op leaves draft untouched", func(t *testing.T) {
		d := &models.DraftModel{Configuration: composition.NewConfiguration()}
		layers := len(d.Configuration.TextLayers)
		ops := append(addLayer, composition.Operation{Op: composition.OpRemoveColor, Set: composition.SetLogo, ID: "missing"})
		assert.ErrorIs(t, applyToDraft(d, ops, nil), composition.ErrNotFound)
		assert.Len(t, d.Configuration.TextLayers, layers)
		assert.Zero(t, d.Version)
	})

	t.Run("invalid result is rejected", func(t *testing.T) {
		cfg := composition.NewConfiguration()
		cfg.Width = 10
		d := &models.DraftModel{Configuration: cfg}
		assert.ErrorIs(t, applyToDraft(d, addLayer, nil), composition.ErrValidation)
		assert.Equal(t, 10, d.Configuration.Width)
		assert.Zero(t, d.Version)
	})
}
