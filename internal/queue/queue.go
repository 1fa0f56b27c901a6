package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	QueueRenderJob         = "queue:render_job"
	QueueGenerateSubtitles = "queue:generate_subtitles"
	QueueBurnSubtitles     = "queue:burn_subtitles"
)

type Queue struct {
	client *redis.Client
}

type Task struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	JobID     uuid.UUID `json:"job_id"`
	CreatedAt time.Time `json:"created_at"`
}

func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) Enqueue(ctx context.Context, queueName string, task *Task) error {
	task.CreatedAt = time.Now()

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	return q.client.RPush(ctx, queueName, data).Err()
}

func (q *Queue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Task, error) {
	result, err := q.client.BLPop(ctx, timeout, queueName).Result()
	if err == redis.Nil {
		return nil, nil // No task available
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	var task Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}

	return &task, nil
}

func (q *Queue) GetQueueLength(ctx context.Context, queueName string) (int64, error) {
	return q.client.LLen(ctx, queueName).Result()
}

// EnqueueRenderJob enqueues a full render of the job.
func (q *Queue) EnqueueRenderJob(ctx context.Context, jobID uuid.UUID) error {
	task := &Task{
		ID:    uuid.New(),
		Type:  "render_job",
		JobID: jobID,
	}
	return q.Enqueue(ctx, QueueRenderJob, task)
}

// EnqueueGenerateSubtitles enqueues transcription of the job's artifact.
func (q *Queue) EnqueueGenerateSubtitles(ctx context.Context, jobID uuid.UUID) error {
	task := &Task{
		ID:    uuid.New(),
		Type:  "generate_subtitles",
		JobID: jobID,
	}
	return q.Enqueue(ctx, QueueGenerateSubtitles, task)
}

// EnqueueBurnSubtitles enqueues burning the job's subtitles into the artifact.
func (q *Queue) EnqueueBurnSubtitles(ctx context.Context, jobID uuid.UUID) error {
	task := &Task{
		ID:    uuid.New(),
		Type:  "burn_subtitles",
		JobID: jobID,
	}
	return q.Enqueue(ctx, QueueBurnSubtitles, task)
}
