package mongo

import (
	"context"
	"errors"
	"time"

	"Memeologia/internal/model"
	"Memeologia/internal/pkg"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MemeRepository struct {
	memes    *mongo.Collection
	comments *mongo.Collection
}

func NewMemeRepository(db *mongo.Database) *MemeRepository {
	return &MemeRepository{
		memes:    db.Collection(MemesCollection),
		comments: db.Collection(CommentsCollection),
	}
}

func (r *MemeRepository) Insert(ctx context.Context, m *model.Meme) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.UploadedAt.IsZero() {
		m.UploadedAt = time.Now().UTC()
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.LikedBy == nil {
		m.LikedBy = []uint64{}
	}
	m.Likes = int64(len(m.LikedBy))
	_, err := r.memes.InsertOne(ctx, m)
	return err
}

func (r *MemeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Meme, error) {
	var m model.Meme
	err := r.memes.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkg.NotFound("meme not found")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListPage 按自然顺序跳过 skip 条后最多返回 limit 条，没有稳定排序键
func (r *MemeRepository) ListPage(ctx context.Context, skip, limit int64, activeOnly bool) ([]model.Meme, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	return r.find(ctx, filter, options.Find().SetSkip(skip).SetLimit(limit))
}

func (r *MemeRepository) ListAll(ctx context.Context) ([]model.Meme, error) {
	return r.find(ctx, bson.M{})
}

func (r *MemeRepository) ListByAccount(ctx context.Context, accountID uint64) ([]model.Meme, error) {
	return r.find(ctx, bson.M{"account_id": int64(accountID)},
		options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}}))
}

func (r *MemeRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]model.Meme, error) {
	cur, err := r.memes.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := make([]model.Meme, 0)
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *MemeRepository) UpdateState(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := r.memes.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"active": active}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pkg.NotFound("meme not found")
	}
	return nil
}

// likeTogglePipeline liked_by 中有该账号则移除，否则追加；likes 取 liked_by 的长度
func likeTogglePipeline(accountID uint64) mongo.Pipeline {
	uid := int64(accountID)
	likedBy := bson.M{"$ifNull": bson.A{"$liked_by", bson.A{}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"liked_by": bson.M{"$cond": bson.A{
			bson.M{"$in": bson.A{uid, likedBy}},
			withoutAccount(likedBy, uid),
			bson.M{"$concatArrays": bson.A{likedBy, bson.A{uid}}},
		}}}}},
		{{Key: "$set", Value: bson.M{"likes": bson.M{"$size": "$liked_by"}}}},
	}
}

func withoutAccount(likedBy bson.M, uid int64) bson.M {
	return bson.M{"$filter": bson.M{
		"input": likedBy,
		"as":    "id",
		"cond":  bson.M{"$ne": bson.A{"$$id", uid}},
	}}
}

// ToggleLike 单文档原子更新，集合成员和计数一起变化
func (r *MemeRepository) ToggleLike(ctx context.Context, id primitive.ObjectID, accountID uint64) (*model.Meme, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m model.Meme
	err := r.memes.FindOneAndUpdate(ctx, bson.M{"_id": id}, likeTogglePipeline(accountID), opts).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkg.NotFound("meme not found")
	}
	if err != nil {
		return nil, err
	}
	if m.LikedBy == nil {
		m.LikedBy = []uint64{}
	}
	return &m, nil
}

// IncrementReports 举报数 +1，返回新值
func (r *MemeRepository) IncrementReports(ctx context.Context, id primitive.ObjectID) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"reports": 1})
	var out struct {
		Reports int64 `bson:"reports"`
	}
	err := r.memes.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"reports": 1}}, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, pkg.NotFound("meme not found")
	}
	if err != nil {
		return 0, err
	}
	return out.Reports, nil
}

// Delete 删除 meme 及其评论
func (r *MemeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.memes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return pkg.NotFound("meme not found")
	}
	_, err = r.comments.DeleteMany(ctx, bson.M{"meme_id": id})
	return err
}

// GroupByAccount 按作者分组，组内按上传时间升序
func (r *MemeRepository) GroupByAccount(ctx context.Context) ([]model.MemeGroup, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "uploaded_at", Value: 1}}}},
		{{Key: "$group", Value: bson.M{
			"_id": "$account_id",
			"memes": bson.M{"$push": bson.M{
				"_id":         "$_id",
				"format":      "$format",
				"category":    "$category",
				"asset_url":   "$asset_url",
				"active":      "$active",
				"likes":       "$likes",
				"uploaded_at": "$uploaded_at",
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := r.memes.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	groups := make([]model.MemeGroup, 0)
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// DeleteByAccount 删除账号的全部 meme 以及这些 meme 下的评论
func (r *MemeRepository) DeleteByAccount(ctx context.Context, accountID uint64) (int64, error) {
	filter := bson.M{"account_id": int64(accountID)}
	ids, err := r.memes.Distinct(ctx, "_id", filter)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.memes.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	if _, err := r.comments.DeleteMany(ctx, bson.M{"meme_id": bson.M{"$in": ids}}); err != nil {
		return res.DeletedCount, err
	}
	return res.DeletedCount, nil
}

// RemoveLikesBy 从所有 meme 中移除该账号的点赞，likes 同步重算
func (r *MemeRepository) RemoveLikesBy(ctx context.Context, accountID uint64) (int64, error) {
	uid := int64(accountID)
	likedBy := bson.M{"$ifNull": bson.A{"$liked_by", bson.A{}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"liked_by": withoutAccount(likedBy, uid)}}},
		{{Key: "$set", Value: bson.M{"likes": bson.M{"$size": "$liked_by"}}}},
	}
	res, err := r.memes.UpdateMany(ctx, bson.M{"liked_by": uid}, pipeline)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
