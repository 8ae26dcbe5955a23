package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/auth"
	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/notification"
	"github.com/example/goshop/internal/datamodels/otp"
	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/mail"
)

var (
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	// ErrUserInactive 账号已被停用
	ErrUserInactive = errors.New("账号已被停用")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("用户不存在")
	// ErrOTPInvalid 验证码错误
	ErrOTPInvalid = errors.New("验证码错误")
	// ErrOTPExpired 验证码已过期
	ErrOTPExpired = errors.New("验证码已过期，请重新获取")
	// ErrMailFailed 邮件发送失败
	ErrMailFailed = errors.New("邮件发送失败，请稍后再试")
)

// UserService 注册、登录与密码重置
type UserService struct {
	repo     user.Repository
	otpRepo  otp.Repository
	notifier *NotificationService
	mailer   mail.Mailer
	jwt      *config.JWTConfig
}

// NewUserService 创建用户服务
func NewUserService(
	repo user.Repository,
	otpRepo otp.Repository,
	notifier *NotificationService,
	mailer mail.Mailer,
	jwt *config.JWTConfig,
) *UserService {
	return &UserService{
		repo:     repo,
		otpRepo:  otpRepo,
		notifier: notifier,
		mailer:   mailer,
		jwt:      jwt,
	}
}

func hashPassword(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

func randomDigits(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('0' + rand.Intn(10))
	}
	return string(buf)
}

func randomSalt() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

// RegisterInput 注册表单
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Register 注册并发一条欢迎通知
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	u := &user.User{
		Username:  in.Username,
		Email:     in.Email,
		Salt:      randomSalt(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Active:    true,
	}
	u.Password = hashPassword(in.Password, u.Salt)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	_ = s.notifier.Notify(ctx, &notification.Notification{
		UserID:    u.ID,
		Title:     "欢迎来到 goshop！",
		Message:   fmt.Sprintf("%s，欢迎加入，快去逛逛吧。", u.DisplayName()),
		Type:      notification.TypeWelcome,
		ActionURL: "/products/",
	})
	return u, nil
}

// Login 支持用户名或邮箱登录，返回 JWT
func (s *UserService) Login(ctx context.Context, account, password string) (string, *user.User, error) {
	u, err := s.repo.GetByUsername(ctx, account)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 用户名找不到再按邮箱查一次
		u, err = s.repo.GetByEmail(ctx, account)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if hashPassword(password, u.Salt) != u.Password {
		return "", nil, ErrInvalidCredentials
	}
	if !u.Active {
		return "", nil, ErrUserInactive
	}
	token, err := auth.GenerateToken(s.jwt, u.ID, u.Username, u.Admin)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// GetProfile 用户资料
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*user.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// ProfileInput 资料编辑表单
type ProfileInput struct {
	FirstName string
	LastName  string
	Phone     string
}

// UpdateProfile 更新资料
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Phone = in.Phone
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ForgotPassword 作废旧验证码、生成新验证码并发邮件
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if err := s.otpRepo.InvalidateForUser(ctx, u.ID); err != nil {
		return err
	}

	o := &otp.PasswordResetOTP{
		UserID:    u.ID,
		Code:      randomDigits(6),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	if err := s.otpRepo.Create(ctx, o); err != nil {
		return err
	}

	body := fmt.Sprintf("您的密码重置验证码是：%s\n\n验证码 10 分钟内有效。", o.Code)
	if err := s.mailer.Send(u.Email, "密码重置验证码 - goshop", body); err != nil {
		return ErrMailFailed
	}
	return nil
}

// VerifyOTP 校验验证码，通过后返回凭据 ID 供重置密码使用
func (s *UserService) VerifyOTP(ctx context.Context, email, code string) (int64, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}

	o, err := s.otpRepo.GetActive(ctx, u.ID, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrOTPInvalid
	}
	if err != nil {
		return 0, err
	}
	if !o.IsValid(time.Now()) {
		return 0, ErrOTPExpired
	}
	return o.ID, nil
}

// ResetPassword 重新校验验证码后更新密码，并把验证码标记为已使用
func (s *UserService) ResetPassword(ctx context.Context, otpID int64, code, newPassword string) error {
	o, err := s.otpRepo.GetByID(ctx, otpID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOTPInvalid
	}
	if err != nil {
		return err
	}
	if o.Code != code || !o.IsValid(time.Now()) {
		return ErrOTPInvalid
	}

	u, err := s.repo.GetByID(ctx, o.UserID)
	if err != nil {
		return err
	}

	u.Salt = randomSalt()
	u.Password = hashPassword(newPassword, u.Salt)
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}

	o.Used = true
	if err := s.otpRepo.Update(ctx, o); err != nil {
		return err
	}

	_ = s.notifier.Notify(ctx, &notification.Notification{
		UserID:  u.ID,
		Title:   "密码已重置",
		Message: "您的登录密码刚刚被重置，如非本人操作请立即联系客服。",
		Type:    notification.TypeAccountUpdate,
	})
	return nil
}
