package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/logoforge/server/internal/models"
	"github.com/logoforge/server/internal/pkg/composition"
	"github.com/logoforge/server/internal/pkg/pagination"
	"github.com/logoforge/server/internal/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errVersionConflict = errors.New("draft was modified by another request")

type CreateDraftDTO struct {
	Name          string                     `json:"name"`
	Configuration *composition.Configuration `json:"configuration"`
}

// ApplyOpsDTO accepts either a single operation or {"ops": [...]}.
type ApplyOpsDTO struct {
	Ops         []composition.Operation `json:"ops"`
	BaseVersion *int                    `json:"baseVersion"`
}

func (d *ApplyOpsDTO) UnmarshalJSON(data []byte) error {
	type batch ApplyOpsDTO
	var b batch
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	if len(b.Ops) > 0 {
		*d = ApplyOpsDTO(b)
		return nil
	}

	var single composition.Operation
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*d = ApplyOpsDTO{BaseVersion: b.BaseVersion}
	if single.Op != "" {
		d.Ops = []composition.Operation{single}
	}
	return nil
}

type UpdateDraftDTO struct {
	Name *string `json:"name"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) Create(ownerID string, dto *CreateDraftDTO) (*models.DraftModel, error) {
	d, err := newDraft(ownerID, dto)
	if err != nil {
		return nil, err
	}
	return d, s.db.Create(d).Error
}

func newDraft(ownerID string, dto *CreateDraftDTO) (*models.DraftModel, error) {
	cfg := composition.NewConfiguration()
	if dto.Configuration != nil {
		cfg = dto.Configuration.Clone()
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		name = "Untitled"
	}
	return &models.DraftModel{OwnerID: ownerID, Name: name, Configuration: cfg}, nil
}

// applyToDraft checks baseVersion, runs ops on a copy and commits the result to d with a
// bumped version. d is untouched on error.
func applyToDraft(d *models.DraftModel, ops []composition.Operation, baseVersion *int) error {
	if baseVersion != nil && *baseVersion != d.Version {
		return errVersionConflict
	}
	next, err := composition.ApplyAll(d.Configuration, ops)
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("resulting configuration: %w", err)
	}
	d.Configuration = next
	d.Version++
	return nil
}

func (s *Service) List(ownerID string, q pagination.Query) ([]models.DraftModel, response.Pagination, error) {
	tx := s.db.Model(&models.DraftModel{}).Where("owner_id = ?", ownerID).Order("updated_at DESC")
	var items []models.DraftModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// Get returns (nil, nil) when the draft does not exist or belongs to someone else.
func (s *Service) Get(ownerID, id string) (*models.DraftModel, error) {
	var d models.DraftModel
	if err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// Apply runs ops atomically against the stored configuration and bumps the version.
// A non-nil baseVersion must match the stored version.
func (s *Service) Apply(ownerID, id string, ops []composition.Operation, baseVersion *int) (*models.DraftModel, error) {
	var out *models.DraftModel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var d models.DraftModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND owner_id = ?", id, ownerID).First(&d).Error; err != nil {
			return err
		}
		if err := applyToDraft(&d, ops, baseVersion); err != nil {
			return err
		}
		if err := tx.Model(&d).Select("configuration", "version").Updates(&d).Error; err != nil {
			return err
		}
		out = &d
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return out, err
}

func (s *Service) Rename(ownerID, id, name string) (*models.DraftModel, error) {
	d, err := s.Get(ownerID, id)
	if err != nil || d == nil {
		return d, err
	}
	d.Name = strings.TrimSpace(name)
	return d, s.db.Model(d).Update("name", d.Name).Error
}

// Delete reports whether a draft was removed.
func (s *Service) Delete(ownerID, id string) (bool, error) {
	res := s.db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.DraftModel{})
	return res.RowsAffected > 0, res.Error
}
