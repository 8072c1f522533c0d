package service

import (
	"context"
	"html"
	"strings"
	"unicode/utf8"

	"Memeologia/internal/model"
	"Memeologia/internal/pkg"

	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxCommentLen = 1000

type CommentService struct {
	comments CommentStore
	accounts AccountStore
	policy   *bluemonday.Policy
}

func NewCommentService(comments CommentStore, accounts AccountStore) *CommentService {
	return &CommentService{
		comments: comments,
		accounts: accounts,
		policy:   bluemonday.StrictPolicy(),
	}
}

// sanitize 去掉所有 HTML 标签，保留纯文本；Sanitize 输出的实体还原成原字符再计数
func (s *CommentService) sanitize(content string) (string, error) {
	text := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(content)))
	if text == "" {
		return "", pkg.Validation("content is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLen {
		return "", pkg.Validation("content must be at most 1000 characters long")
	}
	return text, nil
}

// Create 评论者和 meme 都必须存在
func (s *CommentService) Create(ctx context.Context, accountID uint64, memeID primitive.ObjectID, content string) (*model.Comment, error) {
	text, err := s.sanitize(content)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.FindByID(ctx, accountID); err != nil {
		return nil, err
	}
	c := &model.Comment{
		AccountID: accountID,
		Content:   text,
	}
	if err := s.comments.AppendToMeme(ctx, memeID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommentService) ListAll(ctx context.Context) ([]model.Comment, error) {
	return s.comments.ListAll(ctx)
}
