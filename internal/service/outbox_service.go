package service

import (
	"context"
	"time"

	"Memeologia/internal/model"
	"Memeologia/internal/pkg"

	"go.uber.org/zap"
)

// MaxOutboxRetry 超过后标记 failed，不再投递
const MaxOutboxRetry = 10

type Sender func(ctx context.Context, ob *model.AccountOutbox) error

// OutboxRelayer 从 account_outbox 读取待投递事件交给 kafka
type OutboxRelayer struct {
	repo       OutboxStore
	batchSize  int
	interval   time.Duration
	maxBackoff time.Duration
	sender     Sender
	log        *zap.Logger
}

func NewOutboxRelayer(repo OutboxStore, sender Sender, log *zap.Logger) *OutboxRelayer {
	return &OutboxRelayer{
		repo:       repo,
		batchSize:  200,
		interval:   time.Second,
		maxBackoff: time.Minute,
		sender:     sender,
		log:        log,
	}
}

// Run 连续失败时等待间隔翻倍，上限 maxBackoff
func (r *OutboxRelayer) Run(ctx context.Context) {
	wait := r.interval
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		if r.drainOnce(ctx) {
			wait = r.interval
		} else {
			wait = min(wait*2, r.maxBackoff)
		}
	}
}

// drainOnce 按顺序投递一批，遇到发送失败即停止，未到重试上限的事件保持 pending
func (r *OutboxRelayer) drainOnce(ctx context.Context) bool {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		r.log.Error("outbox query", zap.Error(err))
		return false
	}
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			giveUp := ob.Retry+1 >= MaxOutboxRetry
			r.log.Warn("outbox send",
				zap.Uint64("outbox_id", ob.ID),
				zap.String("event", ob.EventType),
				zap.Int("retry", ob.Retry+1),
				zap.Bool("give_up", giveUp),
				zap.Error(err))
			if err := r.repo.FailUpdate(ctx, ob.ID, giveUp); err != nil {
				r.log.Error("outbox mark failed", zap.Uint64("outbox_id", ob.ID), zap.Error(err))
			}
			return false
		}
		if err := r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			r.log.Error("outbox mark sent", zap.Uint64("outbox_id", ob.ID), zap.Error(err))
		}
	}
	return true
}

// KafkaSender 以账号 id 为 key 发送，同一账号的事件落在同一分区
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.AccountOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.AccountID), []byte(ob.Payload))
	}
}
