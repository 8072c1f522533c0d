package service

import (
	"context"
	"io"

	"Memeologia/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountStore 关系库中的账号
type AccountStore interface {
	Create(ctx context.Context, acc *model.Account) error
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByID(ctx context.Context, id uint64) (*model.Account, error)
	FindAuthors(ctx context.Context, ids []uint64) (map[uint64]model.Author, error)
	List(ctx context.Context) ([]model.Account, error)
	UpdateName(ctx context.Context, id uint64, name string) error
	UpdatePhotoURL(ctx context.Context, id uint64, url string) error
	Delete(ctx context.Context, id uint64) error
}

// MemeStore 文档库中的 meme
type MemeStore interface {
	Insert(ctx context.Context, m *model.Meme) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Meme, error)
	ListPage(ctx context.Context, skip, limit int64, activeOnly bool) ([]model.Meme, error)
	ListAll(ctx context.Context) ([]model.Meme, error)
	ListByAccount(ctx context.Context, accountID uint64) ([]model.Meme, error)
	UpdateState(ctx context.Context, id primitive.ObjectID, active bool) error
	ToggleLike(ctx context.Context, id primitive.ObjectID, accountID uint64) (*model.Meme, error)
	IncrementReports(ctx context.Context, id primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	GroupByAccount(ctx context.Context) ([]model.MemeGroup, error)
	DeleteByAccount(ctx context.Context, accountID uint64) (int64, error)
	RemoveLikesBy(ctx context.Context, accountID uint64) (int64, error)
}

// CommentStore 文档库中的评论
type CommentStore interface {
	Insert(ctx context.Context, c *model.Comment) error
	AppendToMeme(ctx context.Context, memeID primitive.ObjectID, c *model.Comment) error
	ListAll(ctx context.Context) ([]model.Comment, error)
	ListByMeme(ctx context.Context, memeID primitive.ObjectID) ([]model.Comment, error)
	GroupByAccount(ctx context.Context) ([]model.CommentGroup, error)
	DeleteByAccount(ctx context.Context, accountID uint64) (int64, error)
}

// SessionStore 登录态 token
type SessionStore interface {
	Save(ctx context.Context, accountID uint64, token string) error
	Get(ctx context.Context, accountID uint64) (string, error)
	Extend(ctx context.Context, accountID uint64) error
	Delete(ctx context.Context, accountID uint64) error
}

// ObjectStore 对象存储，返回可访问的 URL
type ObjectStore interface {
	Upload(ctx context.Context, body io.ReadSeeker, key, contentType string) (string, error)
}

// Notifier 发送通知邮件
type Notifier interface {
	Send(to []string, subject, htmlBody string) error
}

// OutboxStore 账号事件表
type OutboxStore interface {
	List(ctx context.Context, batchSize int) ([]model.AccountOutbox, error)
	SuccessUpdate(ctx context.Context, id uint64) error
	FailUpdate(ctx context.Context, id uint64, giveUp bool) error
}
