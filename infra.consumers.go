package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// consumerRetryDelay is the pause after a failed pop before the next attempt.
var consumerRetryDelay = time.Second

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

type mirrorConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	mirror  BookMirror
	metrics *Metrics
}

func NewMirrorConsumer(logger *zap.Logger, q Queuer, mirror BookMirror, metrics *Metrics) Consumer {
	return &mirrorConsumer{logger, q, mirror, metrics}
}

// Consume replays change events into the mirror until ctx is done.
func (mc *mirrorConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, book, err := mc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			mc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			mc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(consumerRetryDelay):
			}
			continue
		}

		switch qid {
		case CreateQueue, UpdateQueue:
			err = mc.mirror.Put(ctx, book)
		case DeleteQueue:
			err = mc.mirror.Delete(ctx, book.ID)
		default:
			mc.logger.Warn("consumer: received book on unknow queue id", zap.String("qid", qid), zap.Any("book", book))
			continue
		}

		mc.metrics.MirrorEvent(qid, err == nil)
		if err != nil {
			mc.logger.Error("consumer: failed to mirror book", zap.String("qid", qid), zap.Int("book.id", book.ID), zap.Error(err))
		}
	}
}
