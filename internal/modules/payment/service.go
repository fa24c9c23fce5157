package payment

import (
	"github.com/logoforge/server/internal/database"
	"github.com/logoforge/server/internal/models"
	"github.com/logoforge/server/internal/pkg/pagination"
	"github.com/logoforge/server/internal/pkg/response"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// List returns a user's payments, newest first.
func (s *Service) List(userID string, q pagination.Query) ([]models.PaymentModel, response.Pagination, error) {
	var items []models.PaymentModel
	tx := s.db.Model(&models.PaymentModel{}).Where("user_id = ?", userID).Order("created_at DESC")
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// Record inserts p. It reports false without error when the Stripe ID was already recorded.
func (s *Service) Record(p *models.PaymentModel) (bool, error) {
	if err := s.db.Create(p).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
