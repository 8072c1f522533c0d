package service

import (
	"context"
	"strings"

	"Memeologia/internal/model"
	"Memeologia/internal/pkg"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReportPolicy 举报数达到阈值时通知版主
type ReportPolicy struct {
	Threshold  int64
	Moderators []string
}

type MemeService struct {
	memes    MemeStore
	accounts AccountStore
	objects  ObjectStore
	notifier Notifier
	policy   ReportPolicy
	log      *zap.Logger
}

func NewMemeService(memes MemeStore, accounts AccountStore, objects ObjectStore, notifier Notifier, policy ReportPolicy, log *zap.Logger) *MemeService {
	return &MemeService{
		memes:    memes,
		accounts: accounts,
		objects:  objects,
		notifier: notifier,
		policy:   policy,
		log:      log,
	}
}

// CreateStub 只有元数据的 meme，作者必须存在
func (s *MemeService) CreateStub(ctx context.Context, accountID uint64, format string, active bool) (*model.Meme, error) {
	format = strings.TrimSpace(format)
	if format == "" {
		return nil, pkg.Validation("format is required")
	}
	if _, err := s.accounts.FindByID(ctx, accountID); err != nil {
		return nil, err
	}
	m := &model.Meme{
		AccountID: accountID,
		Format:    format,
		Active:    active,
	}
	if err := s.memes.Insert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Upload 先把图片写入对象存储，成功后再创建 meme 记录
func (s *MemeService) Upload(ctx context.Context, accountID uint64, img *Image, category string, tags []string) (*model.Meme, error) {
	key := "memes/" + uuid.NewString() + img.Ext
	url, err := s.objects.Upload(ctx, img.Body, key, img.ContentType)
	if err != nil {
		return nil, err
	}
	m := &model.Meme{
		AccountID: accountID,
		Format:    strings.TrimPrefix(img.ContentType, "image/"),
		Category:  strings.TrimSpace(category),
		Tags:      cleanTags(tags),
		AssetURL:  url,
		Active:    true,
	}
	if err := s.memes.Insert(ctx, m); err != nil {
		return nil, err
	}
	s.log.Info("meme uploaded", zap.String("meme_id", m.ID.Hex()), zap.Uint64("account_id", accountID))
	return m, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *MemeService) Get(ctx context.Context, id primitive.ObjectID) (*model.Meme, error) {
	return s.memes.FindByID(ctx, id)
}

func (s *MemeService) ListAll(ctx context.Context) ([]model.Meme, error) {
	return s.memes.ListAll(ctx)
}

func (s *MemeService) SetState(ctx context.Context, id primitive.ObjectID, active bool) error {
	return s.memes.UpdateState(ctx, id, active)
}

func (s *MemeService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.memes.Delete(ctx, id)
}

// ToggleLike 点赞/取消点赞，不是幂等操作
func (s *MemeService) ToggleLike(ctx context.Context, id primitive.ObjectID, accountID uint64) (*model.LikeState, error) {
	m, err := s.memes.ToggleLike(ctx, id, accountID)
	if err != nil {
		return nil, err
	}
	return &model.LikeState{
		MemeID:  m.ID,
		Likes:   m.Likes,
		LikedBy: m.LikedBy,
		Liked:   m.LikedByAccount(accountID),
	}, nil
}

// Report 举报数 +1；恰好达到阈值时发一次邮件，发送失败只记日志
func (s *MemeService) Report(ctx context.Context, id primitive.ObjectID) (int64, error) {
	n, err := s.memes.IncrementReports(ctx, id)
	if err != nil {
		return 0, err
	}
	if s.policy.Threshold > 0 && n == s.policy.Threshold && len(s.policy.Moderators) > 0 {
		s.alertModerators(ctx, id, n)
	}
	return n, nil
}

func (s *MemeService) alertModerators(ctx context.Context, id primitive.ObjectID, reports int64) {
	var assetURL string
	if m, err := s.memes.FindByID(ctx, id); err == nil {
		assetURL = m.AssetURL
	}
	body := pkg.ReportAlertHTML(id.Hex(), assetURL, reports)
	if err := s.notifier.Send(s.policy.Moderators, "Meme reported "+id.Hex(), body); err != nil {
		s.log.Error("send report alert", zap.String("meme_id", id.Hex()), zap.Error(err))
	}
}
