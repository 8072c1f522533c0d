package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment 独立集合中的评论，MemeID 指向 memes 集合
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID uint64             `bson:"account_id" json:"account_id"`
	MemeID    primitive.ObjectID `bson:"meme_id" json:"meme_id"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// CommentGroup 聚合结果：一个作者的全部评论（按时间升序）
type CommentGroup struct {
	AccountID uint64    `bson:"_id"`
	Comments  []Comment `bson:"comments"`
}
