//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"pharmaSupply/business/orders"
	"pharmaSupply/domain"
	psqlRepo "pharmaSupply/internal/repository/postgres"
	"pharmaSupply/pkg/database"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("pharma_supply"),
		tcpostgres.WithUsername("pharma"),
		tcpostgres.WithPassword("pharma"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seed(t *testing.T, db *gorm.DB, stock int) (domain.User, domain.Medicine) {
	t.Helper()
	user := domain.User{ID: uuid.NewString(), Name: "Apotek Sehat", Email: uuid.NewString() + "@provider.test", Password: "x", Role: domain.RoleProvider}
	require.NoError(t, db.Create(&user).Error)

	med := domain.Medicine{Name: "Amoxicillin", Price: decimal.RequireFromString("12.50"), Quantity: stock, Category: "Antibiotic"}
	require.NoError(t, db.Create(&med).Error)
	return user, med
}

func newOrders(db *gorm.DB) *orders.OrdersService {
	return orders.NewOrdersService(
		psqlRepo.NewOrdersRepository(db),
		psqlRepo.NewMedicineRepository(db),
		psqlRepo.NewTxManager(db),
		nil,
	)
}

func TestPlaceOrder_ConcurrentBuyersNeverOversell(t *testing.T) {
	db := startPostgres(t)
	user, med := seed(t, db, 10)
	svc := newOrders(db)

	const buyers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), user.ID, []domain.OrderLine{{MedicineID: med.ID, Quantity: 3}})
			mu.Lock()
			defer mu.Unlock()
			var stockErr *domain.InsufficientStockError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &stockErr):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, buyers-3, rejected)

	var after domain.Medicine
	require.NoError(t, db.First(&after, "id = ?", med.ID).Error)
	assert.Equal(t, 1, after.Quantity)

	var count int64
	require.NoError(t, db.Model(&domain.Order{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestPlaceOrder_RollsBackWholeOrder(t *testing.T) {
	db := startPostgres(t)
	user, plenty := seed(t, db, 100)
	scarce := domain.Medicine{Name: "Insulin", Price: decimal.RequireFromString("40"), Quantity: 1, Category: "Hormone"}
	require.NoError(t, db.Create(&scarce).Error)

	_, err := newOrders(db).PlaceOrder(context.Background(), user.ID, []domain.OrderLine{
		{MedicineID: plenty.ID, Quantity: 5},
		{MedicineID: scarce.ID, Quantity: 2},
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	var after domain.Medicine
	require.NoError(t, db.First(&after, "id = ?", plenty.ID).Error)
	assert.Equal(t, 100, after.Quantity)

	var count int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPlaceOrder_TotalFromStoredPrices(t *testing.T) {
	db := startPostgres(t)
	user, med := seed(t, db, 20)

	order, err := newOrders(db).PlaceOrder(context.Background(), user.ID, []domain.OrderLine{{MedicineID: med.ID, Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, "50.00", order.TotalPrice.StringFixed(2))
	assert.Equal(t, domain.OrderPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "12.50", order.Items[0].Price.StringFixed(2))
}

func TestPlaceOrder_MalformedMedicineIDIsNotFound(t *testing.T) {
	db := startPostgres(t)
	user, med := seed(t, db, 10)

	_, err := newOrders(db).PlaceOrder(context.Background(), user.ID, []domain.OrderLine{
		{MedicineID: med.ID, Quantity: 1},
		{MedicineID: "not-a-uuid", Quantity: 1},
	})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"not-a-uuid"}, nf.IDs)

	var after domain.Medicine
	require.NoError(t, db.First(&after, "id = ?", med.ID).Error)
	assert.Equal(t, 10, after.Quantity)
}

func TestLookupsByMalformedIDAreNotFound(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	ordersRepo := psqlRepo.NewOrdersRepository(db)
	medicineRepo := psqlRepo.NewMedicineRepository(db)

	_, err := ordersRepo.GetOrder(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, ordersRepo.UpdateStatus(ctx, "not-a-uuid", domain.OrderDelivered), domain.ErrNotFound)

	_, err = medicineRepo.FindByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, medicineRepo.Delete(ctx, "abc"), domain.ErrNotFound)

	_, err = psqlRepo.NewUserRepository(db).FindByID(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ended, err := psqlRepo.NewAuditRepository(db).TerminateUserSessions(ctx, "42")
	assert.NoError(t, err)
	assert.Empty(t, ended)
}

func TestDeleteOrderedMedicineConflicts(t *testing.T) {
	db := startPostgres(t)
	user, med := seed(t, db, 10)

	_, err := newOrders(db).PlaceOrder(context.Background(), user.ID, []domain.OrderLine{{MedicineID: med.ID, Quantity: 1}})
	require.NoError(t, err)

	err = psqlRepo.NewMedicineRepository(db).Delete(context.Background(), med.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "referenced by orders")

	var count int64
	require.NoError(t, db.Model(&domain.Medicine{}).Where("id = ?", med.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
