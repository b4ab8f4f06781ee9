package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/rag"
)

const (
	IndexStream = "index:stream"
	indexGroup  = "index-workers"
)

// IndexJob is one document submitted for background indexing.
type IndexJob struct {
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content"`
	Source     string            `json:"source,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Reindex    bool              `json:"reindex,omitempty"`
}

// EnqueueIndexJob appends a job to the indexing stream. The worker pool picks
// it up; callers get an ack as soon as the entry is written.
func EnqueueIndexJob(ctx context.Context, rdb *redis.Client, job IndexJob) (string, error) {
	meta, err := json.Marshal(job.Metadata)
	if err != nil {
		return "", err
	}
	return rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: IndexStream,
		Values: map[string]any{
			"document_id": job.DocumentID,
			"content":     job.Content,
			"source":      job.Source,
			"metadata":    string(meta),
			"reindex":     strconv.FormatBool(job.Reindex),
		},
	}).Result()
}

// IndexWorkerPool drains the indexing stream through the RAG retriever.
// Consumers ack every message after handling it, success or not; a poison
// document must not wedge the stream.
type IndexWorkerPool struct {
	Redis      *redis.Client
	Retriever  *rag.Retriever
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *IndexWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Retriever == nil {
		return errors.New("IndexWorkerPool missing dependency: Redis/Retriever must be set")
	}
	if p.Stream == "" {
		p.Stream = IndexStream
	}
	if p.Group == "" {
		p.Group = indexGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *IndexWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *IndexWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	documentID := getStr("document_id")
	content := getStr("content")
	if documentID == "" || content == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":    msg.ID,
		"document_id": documentID,
	})

	metadata := map[string]string{}
	if raw := getStr("metadata"); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			log.WithError(err).Warn("metadata decode failed, indexing without it")
			metadata = map[string]string{}
		}
	}
	if src := getStr("source"); src != "" {
		metadata["source"] = src
	}

	statusCh := "index:status:" + documentID
	p.publishStatus(ctx, statusCh, documentID, "processing", "")

	doc := models.Document{
		ID:       documentID,
		Content:  content,
		Metadata: metadata,
	}

	start := time.Now()
	var (
		result *rag.IndexResult
		err    error
	)
	if getStr("reindex") == "true" {
		result, err = p.Retriever.Reindex(ctx, []models.Document{doc})
	} else {
		result, err = p.Retriever.Index(ctx, []models.Document{doc})
	}
	if err != nil {
		log.WithError(err).Error("document indexing failed")
		p.publishStatus(ctx, statusCh, documentID, "failed", err.Error())
		return
	}

	log.WithFields(logrus.Fields{
		"chunks":     result.Chunks,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("document indexed")
	p.publishStatus(ctx, statusCh, documentID, "done", "")
}

func (p *IndexWorkerPool) publishStatus(ctx context.Context, channel, documentID, status, message string) {
	payload, _ := json.Marshal(map[string]any{
		"type":        "index_status",
		"document_id": documentID,
		"status":      status,
		"message":     message,
	})
	_ = p.Redis.Publish(ctx, channel, string(payload)).Err()
}
