package logo

import (
	"errors"
	"strings"

	"github.com/logoforge/server/internal/models"
	"github.com/logoforge/server/internal/pkg/pagination"
	"github.com/logoforge/server/internal/pkg/response"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// List returns the owner's logos, newest first.
func (s *Service) List(ownerID string, f ListQuery, q pagination.Query) ([]models.LogoModel, response.Pagination, error) {
	tx := s.db.Model(&models.LogoModel{}).Where("owner_id = ?", ownerID)
	if term := strings.TrimSpace(f.Search); term != "" {
		tx = tx.Where("name LIKE ?", "%"+escapeLike(term)+"%")
	}
	if ind := strings.TrimSpace(f.Industry); ind != "" {
		tx = tx.Where("JSON_UNQUOTE(JSON_EXTRACT(settings, '$.industry')) = ?", ind)
	}
	var items []models.LogoModel
	pag, err := pagination.Paginate(tx.Order("created_at DESC"), q, &items)
	return items, pag, err
}

// Get returns (nil, nil) when the logo does not exist or belongs to someone else.
func (s *Service) Get(ownerID, id string) (*models.LogoModel, error) {
	var l models.LogoModel
	if err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (s *Service) Create(logo *models.LogoModel) error {
	return s.db.Create(logo).Error
}

// Replace swaps the image and settings of an existing logo in place.
func (s *Service) Replace(logo *models.LogoModel) error {
	return s.db.Model(logo).Select("url", "storage_key", "settings").Updates(logo).Error
}

func (s *Service) Rename(ownerID, id, name string) (*models.LogoModel, error) {
	l, err := s.Get(ownerID, id)
	if err != nil || l == nil {
		return l, err
	}
	l.Name = strings.TrimSpace(name)
	return l, s.db.Model(l).Update("name", l.Name).Error
}

func (s *Service) Delete(ownerID, id string) error {
	return s.db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.LogoModel{}).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
