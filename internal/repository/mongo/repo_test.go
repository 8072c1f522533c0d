package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"Memeologia/internal/model"
	"Memeologia/internal/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// 需要真实 MongoDB：MEME_TEST_MONGO_URI=mongodb://localhost:27017
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MEME_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("MEME_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	db := client.Database(fmt.Sprintf("memeologia_test_%d", time.Now().UnixNano()))
	require.NoError(t, EnsureIndexes(ctx, db))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestToggleLikeIsSelfInverse(t *testing.T) {
	db := testDatabase(t)
	repo := NewMemeRepository(db)
	ctx := context.Background()

	m := &model.Meme{AccountID: 1, Format: "png", Active: true}
	require.NoError(t, repo.Insert(ctx, m))

	liked, err := repo.ToggleLike(ctx, m.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), liked.Likes)
	assert.Equal(t, []uint64{42}, liked.LikedBy)

	other, err := repo.ToggleLike(ctx, m.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), other.Likes)
	assert.Equal(t, []uint64{42, 7}, other.LikedBy)

	unliked, err := repo.ToggleLike(ctx, m.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unliked.Likes)
	assert.Equal(t, []uint64{7}, unliked.LikedBy)

	final, err := repo.ToggleLike(ctx, m.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), final.Likes)
	assert.Empty(t, final.LikedBy)

	_, err = repo.ToggleLike(ctx, primitive.NewObjectID(), 42)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestListPage(t *testing.T) {
	db := testDatabase(t)
	repo := NewMemeRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(ctx, &model.Meme{AccountID: 1, Format: "png", Active: true}))
	}
	require.NoError(t, repo.Insert(ctx, &model.Meme{AccountID: 1, Format: "png", Active: false}))

	first, err := repo.ListPage(ctx, 0, 2, true)
	require.NoError(t, err)
	second, err := repo.ListPage(ctx, 2, 2, true)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Len(t, second, 1)

	seen := map[primitive.ObjectID]bool{}
	for _, m := range append(first, second...) {
		assert.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}

func TestUpdateDeleteMissing(t *testing.T) {
	db := testDatabase(t)
	repo := NewMemeRepository(db)
	ctx := context.Background()

	assert.ErrorIs(t, repo.UpdateState(ctx, primitive.NewObjectID(), true), pkg.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, primitive.NewObjectID()), pkg.ErrNotFound)
	_, err := repo.IncrementReports(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestIncrementReports(t *testing.T) {
	db := testDatabase(t)
	repo := NewMemeRepository(db)
	ctx := context.Background()

	m := &model.Meme{AccountID: 1, Format: "gif"}
	require.NoError(t, repo.Insert(ctx, m))
	n, err := repo.IncrementReports(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.IncrementReports(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCommentsGroupAndCleanup(t *testing.T) {
	db := testDatabase(t)
	memes := NewMemeRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	m := &model.Meme{AccountID: 1, Format: "png", Active: true}
	require.NoError(t, memes.Insert(ctx, m))

	base := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, comments.AppendToMeme(ctx, m.ID, &model.Comment{AccountID: 2, Content: "segundo", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, comments.AppendToMeme(ctx, m.ID, &model.Comment{AccountID: 2, Content: "primero", CreatedAt: base}))
	require.NoError(t, comments.AppendToMeme(ctx, m.ID, &model.Comment{AccountID: 3, Content: "hola", CreatedAt: base}))
	err := comments.AppendToMeme(ctx, primitive.NewObjectID(), &model.Comment{AccountID: 2, Content: "x"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	groups, err := comments.GroupByAccount(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, uint64(2), groups[0].AccountID)
	require.Len(t, groups[0].Comments, 2)
	assert.Equal(t, "primero", groups[0].Comments[0].Content)

	byMeme, err := comments.ListByMeme(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, byMeme, 3)

	_, err = memes.ToggleLike(ctx, m.ID, 3)
	require.NoError(t, err)
	n, err := memes.RemoveLikesBy(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	got, err := memes.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Likes)
	assert.Empty(t, got.LikedBy)

	deleted, err := memes.DeleteByAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	left, err := comments.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestGroupMemesByAccount(t *testing.T) {
	db := testDatabase(t)
	repo := NewMemeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &model.Meme{AccountID: 5, Format: "png"}))
	require.NoError(t, repo.Insert(ctx, &model.Meme{AccountID: 4, Format: "gif"}))
	require.NoError(t, repo.Insert(ctx, &model.Meme{AccountID: 5, Format: "jpeg"}))

	groups, err := repo.GroupByAccount(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, uint64(4), groups[0].AccountID)
	assert.Len(t, groups[1].Memes, 2)
}
