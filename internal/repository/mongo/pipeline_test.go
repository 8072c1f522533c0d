package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func asM(t *testing.T, v any) bson.M {
	t.Helper()
	m, ok := v.(bson.M)
	require.True(t, ok, "want bson.M, got %T", v)
	return m
}

func asA(t *testing.T, v any) bson.A {
	t.Helper()
	a, ok := v.(bson.A)
	require.True(t, ok, "want bson.A, got %T", v)
	return a
}

func TestLikeTogglePipeline(t *testing.T) {
	stages := likeTogglePipeline(42)
	require.Len(t, stages, 2)
	likedBy := bson.M{"$ifNull": bson.A{"$liked_by", bson.A{}}}

	// 第一步：在 liked_by 中则 $filter 移除，否则 $concatArrays 追加
	require.Len(t, stages[0], 1)
	assert.Equal(t, "$set", stages[0][0].Key)
	cond := asA(t, asM(t, asM(t, stages[0][0].Value)["liked_by"])["$cond"])
	require.Len(t, cond, 3)

	in := asA(t, asM(t, cond[0])["$in"])
	assert.Equal(t, bson.A{int64(42), likedBy}, in)

	filter := asM(t, asM(t, cond[1])["$filter"])
	assert.Equal(t, likedBy, filter["input"])
	assert.Equal(t, "id", filter["as"])
	assert.Equal(t, bson.M{"$ne": bson.A{"$$id", int64(42)}}, filter["cond"])

	concat := asA(t, asM(t, cond[2])["$concatArrays"])
	assert.Equal(t, bson.A{likedBy, bson.A{int64(42)}}, concat)

	// 第二步：likes 由 liked_by 的长度得出，在同一次更新里完成
	require.Len(t, stages[1], 1)
	assert.Equal(t, "$set", stages[1][0].Key)
	assert.Equal(t, bson.M{"likes": bson.M{"$size": "$liked_by"}}, stages[1][0].Value)
}

func TestLikeTogglePipelineEncodesInt64(t *testing.T) {
	out, err := bson.MarshalExtJSON(bson.D{{Key: "pipeline", Value: likeTogglePipeline(7)}}, true, false)
	require.NoError(t, err)
	s := string(out)

	// 账号 id 以 int64 存储，比较时类型必须一致
	assert.Contains(t, s, `{"$numberLong":"7"}`)
	assert.NotContains(t, s, `{"$numberInt":"7"}`)
	for _, op := range []string{`"$cond"`, `"$in"`, `"$filter"`, `"$concatArrays"`, `"$size"`, `"$ifNull"`} {
		assert.Contains(t, s, op)
	}
}

func TestWithoutAccount(t *testing.T) {
	got := withoutAccount(bson.M{"$ifNull": bson.A{"$liked_by", bson.A{}}}, 9)
	assert.Equal(t, bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$liked_by", bson.A{}}},
		"as":    "id",
		"cond":  bson.M{"$ne": bson.A{"$$id", int64(9)}},
	}}, got)
}
