package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Memeologia/internal/model"
	"Memeologia/internal/pkg"
	"Memeologia/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AccountService struct {
	accounts AccountStore
	sessions SessionStore
	objects  ObjectStore
	issuer   *pkg.TokenIssuer
	log      *zap.Logger
}

func NewAccountService(accounts AccountStore, sessions SessionStore, objects ObjectStore, issuer *pkg.TokenIssuer, log *zap.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		sessions: sessions,
		objects:  objects,
		issuer:   issuer,
		log:      log,
	}
}

// Register 校验后创建账号；邮箱唯一索引兜底并发注册
func (s *AccountService) Register(ctx context.Context, name, email, password string, role int) (*model.Account, error) {
	name, err := validation.Name(name)
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Email(email); err != nil {
		return nil, err
	}
	if err := validation.Password(password); err != nil {
		return nil, err
	}
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, pkg.Validation("role must be 0 or 1")
	}

	_, err = s.accounts.FindByEmail(ctx, email)
	if err == nil {
		return nil, pkg.Conflict("email already registered")
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	hash, err := pkg.HashPassword(password)
	if err != nil {
		return nil, err
	}
	acc := &model.Account{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     role,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}
	s.log.Info("account registered", zap.Uint64("account_id", acc.ID))
	return acc, nil
}

// Login 校验密码并签发 token，access token 写入会话存储
func (s *AccountService) Login(ctx context.Context, email, password string) (*pkg.Pair, error) {
	acc, err := s.accounts.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, pkg.Auth("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	ok, err := pkg.CheckPassword(password, acc.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkg.Auth("invalid email or password")
	}
	return s.issue(ctx, acc.ID, acc.Role)
}

func (s *AccountService) Logout(ctx context.Context, accountID uint64) error {
	return s.sessions.Delete(ctx, accountID)
}

// Refresh 用 refresh token 换一组新 token，旧 access token 随之失效
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, pkg.Auth("invalid refresh token")
	}
	acc, err := s.accounts.FindByID(ctx, claims.AccountID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, pkg.Auth("account no longer exists")
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, acc.ID, acc.Role)
}

func (s *AccountService) issue(ctx context.Context, accountID uint64, role int) (*pkg.Pair, error) {
	pair, err := s.issuer.GeneratePair(accountID, role)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, accountID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AccountService) List(ctx context.Context) ([]model.Account, error) {
	return s.accounts.List(ctx)
}

func (s *AccountService) Rename(ctx context.Context, id uint64, name string) error {
	name, err := validation.Name(name)
	if err != nil {
		return err
	}
	return s.accounts.UpdateName(ctx, id, name)
}

// Delete 删除账号；内容清理由 account.deleted 事件异步完成
func (s *AccountService) Delete(ctx context.Context, id uint64) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		s.log.Warn("drop session of deleted account", zap.Uint64("account_id", id), zap.Error(err))
	}
	return nil
}

// UploadPhoto 只能修改自己的头像
func (s *AccountService) UploadPhoto(ctx context.Context, actorID, accountID uint64, img *Image) (string, error) {
	if _, err := s.accounts.FindByID(ctx, accountID); err != nil {
		return "", err
	}
	if actorID != accountID {
		return "", pkg.Forbidden("cannot change another account's photo")
	}
	key := fmt.Sprintf("profiles/%d/%s%s", accountID, uuid.NewString(), img.Ext)
	url, err := s.objects.Upload(ctx, img.Body, key, img.ContentType)
	if err != nil {
		return "", err
	}
	if err := s.accounts.UpdatePhotoURL(ctx, accountID, url); err != nil {
		return "", err
	}
	return url, nil
}
