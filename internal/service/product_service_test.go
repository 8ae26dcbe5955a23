package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/repository/mysql"
)

func newProductTestEnv(t *testing.T) (*gorm.DB, *ProductService) {
	t.Helper()
	db := newTestDB(t)
	svc := NewProductService(mysql.NewProductRepository(db), mysql.NewReviewRepository(db))
	return db, svc
}

func TestListFilters(t *testing.T) {
	db, svc := newProductTestEnv(t)
	ctx := context.Background()

	p1 := newTestProduct(t, db, "男士夹克", "499.00", 10)
	require.NoError(t, db.Model(p1).Update("category", "men").Error)
	p2 := newTestProduct(t, db, "女士风衣", "899.00", 10)
	require.NoError(t, db.Model(p2).Update("category", "women").Error)
	p3 := newTestProduct(t, db, "下架夹克", "99.00", 10)
	require.NoError(t, db.Model(p3).Update("active", false).Error)

	// 下架商品不出现在列表
	list, err := svc.List(ctx, product.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// 分类过滤
	list, err = svc.List(ctx, product.ListFilter{Category: "men"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p1.ID, list[0].ID)

	// 关键字
	list, err = svc.List(ctx, product.ListFilter{Keyword: "风衣"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p2.ID, list[0].ID)

	// 价格区间
	min := decimal.RequireFromString("600.00")
	list, err = svc.List(ctx, product.ListFilter{MinPrice: &min})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p2.ID, list[0].ID)
}

func TestReviewUpsertAndAverage(t *testing.T) {
	db, svc := newProductTestEnv(t)
	ctx := context.Background()

	u1 := newTestUser(t, db, "dora")
	u2 := newTestUser(t, db, "emil")
	p := newTestProduct(t, db, "夹克", "499.00", 10)

	_, err := svc.AddReview(ctx, u1.ID, p.ID, 5, "很好")
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, u2.ID, p.ID, 3, "一般")
	require.NoError(t, err)

	detail, err := svc.GetDetail(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.ReviewCount)
	assert.InDelta(t, 4.0, detail.AvgRating, 0.001)

	// 同一用户重复评价是覆盖而不是新增
	_, err = svc.AddReview(ctx, u1.ID, p.ID, 1, "后悔了")
	require.NoError(t, err)

	detail, err = svc.GetDetail(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.ReviewCount)
	assert.InDelta(t, 2.0, detail.AvgRating, 0.001)
}

func TestAddReviewRatingBounds(t *testing.T) {
	db, svc := newProductTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "fern")
	p := newTestProduct(t, db, "夹克", "499.00", 10)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.AddReview(ctx, u.ID, p.ID, rating, "x")
		assert.True(t, errors.Is(err, ErrRatingOutOfRange), "rating %d", rating)
	}
}

func TestSellingPrice(t *testing.T) {
	p := &product.Product{
		Price:           decimal.RequireFromString("100.00"),
		DiscountedPrice: decimal.Zero,
	}
	assert.True(t, p.SellingPrice().Equal(decimal.RequireFromString("100.00")))

	p.DiscountedPrice = decimal.RequireFromString("80.00")
	assert.True(t, p.SellingPrice().Equal(decimal.RequireFromString("80.00")))
}
