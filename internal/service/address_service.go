package service

import (
	"context"
	"errors"

	"github.com/example/goshop/internal/datamodels/address"
)

// ErrAddressIncomplete 地址必填字段缺失
var ErrAddressIncomplete = errors.New("请填写收件人、电话和详细地址")

// AddressService 收货地址管理
type AddressService struct {
	repo address.Repository
}

// NewAddressService 创建地址服务
func NewAddressService(repo address.Repository) *AddressService {
	return &AddressService{repo: repo}
}

// List 用户地址列表，默认地址排最前
func (s *AddressService) List(ctx context.Context, userID int64) ([]*address.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get 取用户自己的地址
func (s *AddressService) Get(ctx context.Context, id, userID int64) (*address.Address, error) {
	return s.repo.GetForUser(ctx, id, userID)
}

// AddressInput 地址表单
type AddressInput struct {
	FullName string
	Phone    string
	Line1    string
	Line2    string
	City     string
	State    string
	Pincode  string
	Default  bool
}

func (in AddressInput) validate() error {
	if in.FullName == "" || in.Phone == "" || in.Line1 == "" {
		return ErrAddressIncomplete
	}
	return nil
}

// Create 新增地址
func (s *AddressService) Create(ctx context.Context, userID int64, in AddressInput) (*address.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	a := &address.Address{
		UserID:   userID,
		FullName: in.FullName,
		Phone:    in.Phone,
		Line1:    in.Line1,
		Line2:    in.Line2,
		City:     in.City,
		State:    in.State,
		Pincode:  in.Pincode,
		Default:  in.Default,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update 更新地址
func (s *AddressService) Update(ctx context.Context, id, userID int64, in AddressInput) (*address.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	a, err := s.repo.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	a.FullName = in.FullName
	a.Phone = in.Phone
	a.Line1 = in.Line1
	a.Line2 = in.Line2
	a.City = in.City
	a.State = in.State
	a.Pincode = in.Pincode
	a.Default = in.Default
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete 删除地址
func (s *AddressService) Delete(ctx context.Context, id, userID int64) error {
	return s.repo.Delete(ctx, id, userID)
}
