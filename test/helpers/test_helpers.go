package helpers

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/samirbha/settlement-gateway/internal/repository"
	"github.com/samirbha/settlement-gateway/pkg/pg"
	"github.com/samirbha/settlement-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.SellerEntity{},
		&repository.BuyerEntity{},
		&repository.ProductEntity{},
		&repository.OrderEntity{},
		&repository.OrderItemEntity{},
		&repository.CreditTransactionEntity{},
		&repository.TransactionEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	adapter, err := redis.NewRedisAdapter("test", "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestBuyer(t *testing.T, db *pg.DB, id int64, balance string) *repository.BuyerEntity {
	ctx := context.Background()
	buyer := &repository.BuyerEntity{
		ID:             id,
		Name:           "Test Buyer",
		BusinessName:   "Test Buyer Pvt Ltd",
		GSTIN:          RandomGSTIN(id),
		CreditBalance:  decimal.RequireFromString(balance),
		ApprovalStatus: "approved",
		Verified:       true,
	}
	err := db.Write(ctx).Create(buyer).Error
	require.NoError(t, err)
	return buyer
}

func CreateTestSeller(t *testing.T, db *pg.DB, id int64, webhookURL string) *repository.SellerEntity {
	ctx := context.Background()
	seller := &repository.SellerEntity{
		ID:             id,
		BusinessName:   "Test Seller Traders",
		GSTIN:          RandomGSTIN(1000 + id),
		ApprovalStatus: "approved",
		Verified:       true,
		WebhookURL:     webhookURL,
	}
	err := db.Write(ctx).Create(seller).Error
	require.NoError(t, err)
	return seller
}

func CreateTestProduct(t *testing.T, db *pg.DB, id, sellerID int64, price string, gstRate int, stock int64) *repository.ProductEntity {
	ctx := context.Background()
	product := &repository.ProductEntity{
		ID:                   id,
		SellerID:             sellerID,
		Name:                 "Test Product",
		MRP:                  decimal.RequireFromString(price).Mul(decimal.NewFromInt(2)),
		SellingPrice:         decimal.RequireFromString(price),
		GSTRate:              gstRate,
		StockQuantity:        stock,
		MinimumOrderQuantity: 1,
		ApprovalStatus:       "approved",
		IsActive:             true,
	}
	err := db.Write(ctx).Create(product).Error
	require.NoError(t, err)
	return product
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// RandomGSTIN fabricates a syntactically plausible, unique GSTIN for
// seed rows. Not a checksum-valid GSTIN.
func RandomGSTIN(seed int64) string {
	return "29TEST" + time.Now().Format("0102150405") + string(rune('A'+seed%26)) + "1Z5"
}

func Ptr[T any](v T) *T {
	return &v
}
