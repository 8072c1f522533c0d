package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Meme 文档库中的 meme 记录；Likes 必须始终等于 len(LikedBy)
type Meme struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID  uint64             `bson:"account_id" json:"account_id"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
	Format     string             `bson:"format" json:"format"`
	Category   string             `bson:"category,omitempty" json:"category,omitempty"`
	Tags       []string           `bson:"tags" json:"tags"`
	AssetURL   string             `bson:"asset_url,omitempty" json:"asset_url,omitempty"`
	Active     bool               `bson:"active" json:"active"`
	Likes      int64              `bson:"likes" json:"likes"`
	LikedBy    []uint64           `bson:"liked_by" json:"liked_by"`
	Reports    int64              `bson:"reports" json:"reports"`
}

// LikedByAccount 判断账号是否已点赞
func (m *Meme) LikedByAccount(accountID uint64) bool {
	for _, id := range m.LikedBy {
		if id == accountID {
			return true
		}
	}
	return false
}

// ToggleLike 在内存中执行一次点赞切换，返回切换后是否为已点赞。
// 与仓储层的服务端 pipeline 更新语义一致。
func (m *Meme) ToggleLike(accountID uint64) bool {
	if m.LikedByAccount(accountID) {
		kept := make([]uint64, 0, len(m.LikedBy))
		for _, id := range m.LikedBy {
			if id != accountID {
				kept = append(kept, id)
			}
		}
		m.LikedBy = kept
		m.Likes = int64(len(m.LikedBy))
		return false
	}
	m.LikedBy = append(m.LikedBy, accountID)
	m.Likes = int64(len(m.LikedBy))
	return true
}

// MemeSummary 按作者分组时每条 meme 的投影
type MemeSummary struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Format     string             `bson:"format" json:"format"`
	Category   string             `bson:"category,omitempty" json:"category,omitempty"`
	AssetURL   string             `bson:"asset_url,omitempty" json:"asset_url,omitempty"`
	Active     bool               `bson:"active" json:"active"`
	Likes      int64              `bson:"likes" json:"likes"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// MemeGroup 聚合结果：一个作者的全部 meme
type MemeGroup struct {
	AccountID uint64        `bson:"_id"`
	Memes     []MemeSummary `bson:"memes"`
}

// LikeState 点赞切换后的状态
type LikeState struct {
	MemeID  primitive.ObjectID `json:"meme_id"`
	Likes   int64              `json:"likes"`
	LikedBy []uint64           `json:"liked_by"`
	Liked   bool               `json:"liked"`
}
