package mongo

import (
	"context"
	"time"

	"Memeologia/internal/model"
	"Memeologia/internal/pkg"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CommentRepository struct {
	comments *mongo.Collection
	memes    *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{
		comments: db.Collection(CommentsCollection),
		memes:    db.Collection(MemesCollection),
	}
}

func (r *CommentRepository) Insert(ctx context.Context, c *model.Comment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.comments.InsertOne(ctx, c)
	return err
}

// AppendToMeme 确认 meme 存在后插入引用它的评论
func (r *CommentRepository) AppendToMeme(ctx context.Context, memeID primitive.ObjectID, c *model.Comment) error {
	n, err := r.memes.CountDocuments(ctx, bson.M{"_id": memeID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return pkg.NotFound("meme not found")
	}
	c.MemeID = memeID
	return r.Insert(ctx, c)
}

func (r *CommentRepository) ListAll(ctx context.Context) ([]model.Comment, error) {
	return r.find(ctx, bson.M{})
}

// ListByMeme 评论按时间升序
func (r *CommentRepository) ListByMeme(ctx context.Context, memeID primitive.ObjectID) ([]model.Comment, error) {
	return r.find(ctx, bson.M{"meme_id": memeID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *CommentRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]model.Comment, error) {
	cur, err := r.comments.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := make([]model.Comment, 0)
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GroupByAccount 按作者分组，组内评论按时间升序
func (r *CommentRepository) GroupByAccount(ctx context.Context) ([]model.CommentGroup, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$account_id",
			"comments": bson.M{"$push": "$$ROOT"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := r.comments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	groups := make([]model.CommentGroup, 0)
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *CommentRepository) DeleteByAccount(ctx context.Context, accountID uint64) (int64, error) {
	res, err := r.comments.DeleteMany(ctx, bson.M{"account_id": int64(accountID)})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
