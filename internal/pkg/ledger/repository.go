package ledger

import (
	"context"

	"gorm.io/gorm"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Debit runs the balance check and decrement as one guarded UPDATE.
// Zero affected rows means either the guard failed or the user does not
// exist; the follow-up lookup inside the same transaction tells the two
// apart.
func (r *gormRepository) Debit(ctx context.Context, userID uint, amount uint, reason string) (uint, error) {
	var balance uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND ai_credits >= ?", userID, amount).
			UpdateColumn("ai_credits", gorm.Expr("ai_credits - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrInsufficientCredits
		}
		b, err := readBalance(tx, userID)
		if err != nil {
			return err
		}
		balance = b
		return appendTransaction(tx, userID, models.CREDIT_TX_DEBIT, amount, balance, reason)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *gormRepository) Refund(ctx context.Context, userID uint, amount uint, reason string) (uint, error) {
	var balance uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("ai_credits", gorm.Expr("ai_credits + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		b, err := readBalance(tx, userID)
		if err != nil {
			return err
		}
		balance = b
		return appendTransaction(tx, userID, models.CREDIT_TX_REFUND, amount, balance, reason)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *gormRepository) Grant(ctx context.Context, userID uint, amount uint, reason string) (uint, error) {
	var balance uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumns(map[string]interface{}{
				"ai_credits":       gorm.Expr("ai_credits + ?", amount),
				"lifetime_credits": gorm.Expr("lifetime_credits + ?", amount),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		b, err := readBalance(tx, userID)
		if err != nil {
			return err
		}
		balance = b
		return appendTransaction(tx, userID, models.CREDIT_TX_GRANT, amount, balance, reason)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *gormRepository) Balance(ctx context.Context, userID uint) (uint, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("ai_credits").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.AICredits, nil
}

func readBalance(tx *gorm.DB, userID uint) (uint, error) {
	var user models.User
	if err := tx.Select("ai_credits").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.AICredits, nil
}

func appendTransaction(tx *gorm.DB, userID uint, txType string, amount uint, balanceAfter uint, reason string) error {
	return tx.Create(&models.CreditTransaction{
		UserID:       userID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Reason:       reason,
	}).Error
}
