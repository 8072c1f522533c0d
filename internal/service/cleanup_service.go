package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"Memeologia/internal/model"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader kafka.Reader 的子集
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// CleanupConsumer 消费 account.deleted，删除该账号留在文档库中的内容
type CleanupConsumer struct {
	reader    MessageReader
	memes     MemeStore
	comments  CommentStore
	retryBase time.Duration
	retryMax  time.Duration
	log       *zap.Logger
}

func NewCleanupConsumer(reader MessageReader, memes MemeStore, comments CommentStore, log *zap.Logger) *CleanupConsumer {
	return &CleanupConsumer{
		reader:    reader,
		memes:     memes,
		comments:  comments,
		retryBase: time.Second,
		retryMax:  time.Minute,
		log:       log,
	}
}

// Run 阻塞直到 ctx 取消；清理成功后才提交，失败的消息原地重试
func (c *CleanupConsumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			c.log.Error("fetch account event", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if !c.process(ctx, msg) {
			return
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Error("commit account event", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// process 指数退避重试直到清理成功；ctx 取消时返回 false，消息不提交
func (c *CleanupConsumer) process(ctx context.Context, msg kafka.Message) bool {
	backoff := c.retryBase
	for {
		err := c.handle(ctx, msg)
		if err == nil {
			return true
		}
		c.log.Error("cleanup deleted account", zap.Int64("offset", msg.Offset), zap.Duration("retry_in", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.retryMax)
	}
}

// handle 无法解析的消息直接跳过
func (c *CleanupConsumer) handle(ctx context.Context, msg kafka.Message) error {
	var ev model.AccountEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.log.Warn("decode account event", zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}
	if ev.Event != model.EventAccountDeleted {
		return nil
	}
	return c.Cleanup(ctx, ev.AccountID)
}

// Cleanup 删除账号的 meme（连同其下评论）、账号发表的评论以及它的点赞
func (c *CleanupConsumer) Cleanup(ctx context.Context, accountID uint64) error {
	memes, err := c.memes.DeleteByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	comments, err := c.comments.DeleteByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	likes, err := c.memes.RemoveLikesBy(ctx, accountID)
	if err != nil {
		return err
	}
	c.log.Info("account content removed",
		zap.Uint64("account_id", accountID),
		zap.Int64("memes", memes),
		zap.Int64("comments", comments),
		zap.Int64("likes", likes))
	return nil
}
