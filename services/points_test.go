package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixvault/pixvault/models"
)

func TestPointsService_AccountCreatedLazily(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	svc := NewPointsService(db, 10, 10)

	acct, err := svc.Account(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, acct.PointsBalance)
	assert.Empty(t, acct.LastDailyReward)

	// Second read returns the same account, no duplicate row.
	again, err := svc.Account(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.PointsAccount{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPointsService_ClaimDailyRewardOncePerDay(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "bob")
	svc := NewPointsService(db, 10, 10)

	acct, err := svc.ClaimDailyReward(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, acct.PointsBalance)
	assert.Equal(t, Today(), acct.LastDailyReward)

	// Second claim on the same date refuses and mutates nothing.
	_, err = svc.ClaimDailyReward(ctx, user.ID)
	assert.ErrorIs(t, err, ErrRewardAlreadyClaimed)

	reread, err := svc.Account(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, reread.PointsBalance)

	var txns []models.PointTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&txns).Error)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TransactionDailyReward, txns[0].TransactionType)
	assert.Equal(t, 10, txns[0].PointsAmount)
}

func TestPointsService_DebitRefusesInsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "carol")
	img := createTestImage(t, db, user.ID, "sunset", 5)
	svc := NewPointsService(db, 10, 10)

	// Fresh account holds 10 points; debit 5 succeeds.
	acct, err := svc.Debit(ctx, user.ID, 5, &img.ID, "Download sunset")
	require.NoError(t, err)
	assert.Equal(t, 5, acct.PointsBalance)

	// Debit 10 exceeds balance 5: refuse, no partial effect.
	_, err = svc.Debit(ctx, user.ID, 10, &img.ID, "Download sunset")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	reread, err := svc.Account(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reread.PointsBalance)

	// Refund 3 as a transfer-typed credit.
	acct, err = svc.Credit(ctx, user.ID, 3, &img.ID, "Refund")
	require.NoError(t, err)
	assert.Equal(t, 8, acct.PointsBalance)

	var txns []models.PointTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).Order("id").Find(&txns).Error)
	require.Len(t, txns, 2)
	assert.Equal(t, models.TransactionDownload, txns[0].TransactionType)
	assert.Equal(t, -5, txns[0].PointsAmount)
	require.NotNil(t, txns[0].RelatedImageID)
	assert.Equal(t, img.ID, *txns[0].RelatedImageID)
	assert.Equal(t, models.TransactionTransfer, txns[1].TransactionType)
	assert.Equal(t, 3, txns[1].PointsAmount)
}

func TestPointsService_DebitExactBalance(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "dave")
	svc := NewPointsService(db, 10, 10)

	acct, err := svc.Debit(ctx, user.ID, 10, nil, "Download")
	require.NoError(t, err)
	assert.Equal(t, 0, acct.PointsBalance)

	_, err = svc.Debit(ctx, user.ID, 1, nil, "Download")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestPointsService_DebitRejectsNonPositiveAmount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "erin")
	svc := NewPointsService(db, 10, 10)

	_, err := svc.Debit(ctx, user.ID, 0, nil, "Download")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.Credit(ctx, user.ID, -2, nil, "Refund")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPointsService_TransactionsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "frank")
	svc := NewPointsService(db, 10, 10)

	_, err := svc.Debit(ctx, user.ID, 2, nil, "first")
	require.NoError(t, err)
	_, err = svc.Credit(ctx, user.ID, 4, nil, "second")
	require.NoError(t, err)

	txns, total, err := svc.Transactions(ctx, user.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, txns, 2)
	assert.Equal(t, "second", txns[0].Description)
	assert.Equal(t, "first", txns[1].Description)
}
