package service

import (
	"context"
	"fmt"

	"Memeologia/internal/model"
	"Memeologia/internal/pkg"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 50
)

// FeedService 跨库读视图：内容来自文档库，作者信息来自关系库。
// 不做缓存，每次调用都读两个库；作者缺失时返回 NotFound。
type FeedService struct {
	memes    MemeStore
	comments CommentStore
	accounts AccountStore
}

func NewFeedService(memes MemeStore, comments CommentStore, accounts AccountStore) *FeedService {
	return &FeedService{memes: memes, comments: comments, accounts: accounts}
}

// NormalizePage page<=0 -> 1；limit<=0 或 >50 -> 20
func NormalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}
	return page, limit
}

// MemesWithAuthors 分页的 active meme，每条附带作者名和头像
func (s *FeedService) MemesWithAuthors(ctx context.Context, page, limit int) ([]model.MemeWithAuthor, error) {
	page, limit = NormalizePage(page, limit)
	memes, err := s.memes.ListPage(ctx, int64(page-1)*int64(limit), int64(limit), true)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(memes))
	for _, m := range memes {
		ids = append(ids, m.AccountID)
	}
	authors, err := s.accounts.FindAuthors(ctx, unique(ids))
	if err != nil {
		return nil, err
	}

	out := make([]model.MemeWithAuthor, 0, len(memes))
	for _, m := range memes {
		a, ok := authors[m.AccountID]
		if !ok {
			return nil, missingAuthor(m.AccountID, "meme "+m.ID.Hex())
		}
		out = append(out, model.MemeWithAuthor{Meme: m, AuthorName: a.Name, AuthorPhoto: a.PhotoURL})
	}
	return out, nil
}

// MemesGroupedByAuthor 每个作者一条记录，包含其全部 meme
func (s *FeedService) MemesGroupedByAuthor(ctx context.Context) ([]model.AuthorMemes, error) {
	groups, err := s.memes.GroupByAccount(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.AccountID)
	}
	authors, err := s.accounts.FindAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.AuthorMemes, 0, len(groups))
	for _, g := range groups {
		a, ok := authors[g.AccountID]
		if !ok {
			return nil, missingAuthor(g.AccountID, "memes")
		}
		out = append(out, model.AuthorMemes{Author: a, Memes: g.Memes})
	}
	return out, nil
}

// CommentsGroupedByAuthor 每个作者一条记录，评论按时间升序
func (s *FeedService) CommentsGroupedByAuthor(ctx context.Context) ([]model.AuthorComments, error) {
	groups, err := s.comments.GroupByAccount(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.AccountID)
	}
	authors, err := s.accounts.FindAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.AuthorComments, 0, len(groups))
	for _, g := range groups {
		a, ok := authors[g.AccountID]
		if !ok {
			return nil, missingAuthor(g.AccountID, "comments")
		}
		out = append(out, model.AuthorComments{Author: a, Comments: g.Comments})
	}
	return out, nil
}

// CommentsForMeme meme 下的评论（时间升序）附带作者信息
func (s *FeedService) CommentsForMeme(ctx context.Context, memeID primitive.ObjectID) ([]model.CommentWithAuthor, error) {
	if _, err := s.memes.FindByID(ctx, memeID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByMeme(ctx, memeID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AccountID)
	}
	authors, err := s.accounts.FindAuthors(ctx, unique(ids))
	if err != nil {
		return nil, err
	}

	out := make([]model.CommentWithAuthor, 0, len(comments))
	for _, c := range comments {
		a, ok := authors[c.AccountID]
		if !ok {
			return nil, missingAuthor(c.AccountID, "comment "+c.ID.Hex())
		}
		out = append(out, model.CommentWithAuthor{Comment: c, AuthorName: a.Name, AuthorPhoto: a.PhotoURL})
	}
	return out, nil
}

// UserProfileWithMemes 账号公开信息 + 名下全部 meme
func (s *FeedService) UserProfileWithMemes(ctx context.Context, accountID uint64) (*model.Profile, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	memes, err := s.memes.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &model.Profile{
		Author: model.Author{ID: acc.ID, Name: acc.Name, PhotoURL: acc.PhotoURL},
		Memes:  memes,
	}, nil
}

func missingAuthor(accountID uint64, of string) error {
	return pkg.NotFound(fmt.Sprintf("author %d of %s not found", accountID, of))
}

func unique(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
