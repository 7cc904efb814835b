package tasks

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"salesflow_backend/internal/pipeline/ports"
	"salesflow_backend/platform/config"
)

// Client enqueues delegated tasks on the asynq queue. It implements
// ports.TaskCreator for the pipeline engine.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetTaskQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// CreateTask enqueues one follow-up task scheduled at the given deadline and
// returns the queue-assigned task id.
func (c *Client) CreateTask(ctx context.Context, params ports.CreateTaskParams) (string, error) {
	payload := FollowUpDuePayload{
		FollowUpID:  params.LinkedEntity.FollowUpID.String(),
		LeadID:      params.LinkedEntity.LeadID.String(),
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		Deadline:    params.Deadline,
	}
	if params.AssignedTo != nil {
		assignee := params.AssignedTo.String()
		payload.AssignedTo = &assignee
	}

	task, err := NewFollowUpDueTask(payload)
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task, asynq.ProcessAt(params.Deadline), asynq.Queue(c.queue))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
