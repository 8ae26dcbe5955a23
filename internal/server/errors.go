package server

import (
	"errors"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/service"
)

// 可以直接透给用户的业务错误，统一映射成 400
var bizErrors = []error{
	service.ErrUserInactive,
	service.ErrUserNotFound,
	service.ErrOTPInvalid,
	service.ErrOTPExpired,
	service.ErrRatingOutOfRange,
	service.ErrOutOfStock,
	service.ErrCartEmpty,
	service.ErrAddressRequired,
	service.ErrAddressNotFound,
	service.ErrAddressIncomplete,
	service.ErrCardAmountInvalid,
	service.ErrCardNumberExhausted,
	service.ErrCardNotFound,
	service.ErrCardInvalid,
	service.ErrRedeemAmountInvalid,
	service.ErrInsufficientBalance,
	service.ErrCardDeliveryFailed,
	service.ErrInvalidStatus,
	service.ErrStatusTransition,
	service.ErrCannotDeleteAdmin,
}

func isBizError(err error) bool {
	for _, e := range bizErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	var stockLimit *service.StockLimitError
	if errors.As(err, &stockLimit) {
		return true
	}
	var insufficient *service.InsufficientStockError
	return errors.As(err, &insufficient)
}

// failErr 业务错误 400、查无记录 404、其余 500 并落日志
func failErr(ctx iris.Context, err error) {
	switch {
	case isBizError(err):
		fail(ctx, 400, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		fail(ctx, 404, "记录不存在")
	case errors.Is(err, service.ErrMailFailed):
		fail(ctx, 502, err.Error())
	default:
		ctx.Application().Logger().Errorf("internal error: %v", err)
		fail(ctx, 500, "服务器开小差了，请稍后再试")
	}
}
