package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pixvault/pixvault/models"
)

// PointsService maintains per-user point balances and their append-only audit
// trail. Balance mutation and transaction append always share one database
// transaction, and the balance itself is adjusted with guarded relative
// updates so concurrent requests cannot double-spend or double-claim.
type PointsService struct {
	db              *gorm.DB
	startingBalance int
	dailyReward     int
}

// NewPointsService creates a ledger over db. New accounts start with
// startingBalance points; ClaimDailyReward credits dailyReward points.
func NewPointsService(db *gorm.DB, startingBalance, dailyReward int) *PointsService {
	return &PointsService{db: db, startingBalance: startingBalance, dailyReward: dailyReward}
}

// Account fetches the user's points account, creating it with the starting
// balance on first read. A concurrent create by another request is tolerated
// by re-reading after a unique-key conflict.
func (s *PointsService) Account(ctx context.Context, userID uint) (*models.PointsAccount, error) {
	var acct models.PointsAccount
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&acct).Error
	if err == nil {
		return &acct, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	acct = models.PointsAccount{UserID: userID, PointsBalance: s.startingBalance}
	if createErr := s.db.WithContext(ctx).Create(&acct).Error; createErr != nil {
		if !isDuplicateKey(createErr) {
			return nil, createErr
		}
		if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&acct).Error; err != nil {
			return nil, err
		}
	}
	return &acct, nil
}

// ClaimDailyReward credits the fixed daily reward at most once per calendar
// day. The date guard lives in the UPDATE predicate, so two devices racing on
// the same account can never both claim. Returns ErrRewardAlreadyClaimed on
// repeat claims with no mutation.
func (s *PointsService) ClaimDailyReward(ctx context.Context, userID uint) (*models.PointsAccount, error) {
	if _, err := s.Account(ctx, userID); err != nil {
		return nil, err
	}

	today := Today()
	var out models.PointsAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PointsAccount{}).
			Where("user_id = ? AND (last_daily_reward IS NULL OR last_daily_reward < ?)", userID, today).
			Updates(map[string]interface{}{
				"points_balance":    gorm.Expr("points_balance + ?", s.dailyReward),
				"last_daily_reward": today,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRewardAlreadyClaimed
		}
		txn := models.PointTransaction{
			UserID:          userID,
			PointsAmount:    s.dailyReward,
			TransactionType: models.TransactionDailyReward,
			Description:     "Daily reward",
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Debit removes amount points for downloading imageID. Refuses with
// ErrInsufficientBalance when amount exceeds the current balance; the balance
// is never clamped below zero.
func (s *PointsService) Debit(ctx context.Context, userID uint, amount int, imageID *uint, description string) (*models.PointsAccount, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := s.Account(ctx, userID); err != nil {
		return nil, err
	}

	var out models.PointsAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PointsAccount{}).
			Where("user_id = ? AND points_balance >= ?", userID, amount).
			Update("points_balance", gorm.Expr("points_balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}
		txn := models.PointTransaction{
			UserID:          userID,
			PointsAmount:    -amount,
			TransactionType: models.TransactionDownload,
			RelatedImageID:  imageID,
			Description:     description,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Credit unconditionally adds amount points, recording a transfer-typed
// transaction. Used to refund a debit when the paired download fails.
func (s *PointsService) Credit(ctx context.Context, userID uint, amount int, imageID *uint, description string) (*models.PointsAccount, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := s.Account(ctx, userID); err != nil {
		return nil, err
	}

	var out models.PointsAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.creditTx(tx, userID, amount, imageID, description, models.TransactionTransfer); err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// creditTx applies an unconditional credit inside an existing transaction.
// The task tracker reuses it so a completion row, balance bump and audit
// record commit atomically.
func (s *PointsService) creditTx(tx *gorm.DB, userID uint, amount int, imageID *uint, description, txnType string) error {
	res := tx.Model(&models.PointsAccount{}).
		Where("user_id = ?", userID).
		Update("points_balance", gorm.Expr("points_balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Account row missing inside the transaction; create it with the
		// starting balance plus the credit.
		acct := models.PointsAccount{UserID: userID, PointsBalance: s.startingBalance + amount}
		if err := tx.Create(&acct).Error; err != nil {
			return err
		}
	}
	return tx.Create(&models.PointTransaction{
		UserID:          userID,
		PointsAmount:    amount,
		TransactionType: txnType,
		RelatedImageID:  imageID,
		Description:     description,
	}).Error
}

// Transactions returns the user's audit trail, newest first.
func (s *PointsService) Transactions(ctx context.Context, userID uint, page, pageSize int) ([]models.PointTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)

	var total int64
	if err := q.Model(&models.PointTransaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txns []models.PointTransaction
	if err := q.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
