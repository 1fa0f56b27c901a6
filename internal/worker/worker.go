package worker

import (
	"context"
	"log"
	"time"

	"clipforge/internal/pipeline"
	"clipforge/internal/queue"
	"clipforge/internal/subtitles"
)

// Worker consumes the render and subtitle queues and drives the pipeline and
// subtitle service. Failures are recorded on the job by the services
// themselves; the worker only logs and moves on to the next task.
type Worker struct {
	queue     *queue.Queue
	pipeline  *pipeline.Pipeline
	subtitles *subtitles.Service
}

func New(q *queue.Queue, p *pipeline.Pipeline, s *subtitles.Service) *Worker {
	return &Worker{
		queue:     q,
		pipeline:  p,
		subtitles: s,
	}
}

// Start begins processing tasks from all queues
func (w *Worker) Start(ctx context.Context, concurrency int) {
	log.Printf("[Worker] Started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx, queue.QueueRenderJob, w.handleRenderJob)
		go w.processQueue(ctx, queue.QueueGenerateSubtitles, w.handleGenerateSubtitles)
		go w.processQueue(ctx, queue.QueueBurnSubtitles, w.handleBurnSubtitles)
	}

	<-ctx.Done()
	log.Println("[Worker] Shutting down...")
}

func (w *Worker) processQueue(ctx context.Context, queueName string, handler func(context.Context, *queue.Task) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			task, err := w.queue.Dequeue(ctx, queueName, 5*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[Worker] Error dequeuing from %s: %v", queueName, err)
				continue
			}

			if task == nil {
				continue // No task available, retry
			}

			log.Printf("[Worker] Processing task %s (type: %s, job: %s)", task.ID, task.Type, task.JobID)
			if err := handler(ctx, task); err != nil {
				log.Printf("[Worker] Task %s failed: %v", task.ID, err)
			}
		}
	}
}

func (w *Worker) handleRenderJob(ctx context.Context, task *queue.Task) error {
	return w.pipeline.Run(ctx, task.JobID)
}

func (w *Worker) handleGenerateSubtitles(ctx context.Context, task *queue.Task) error {
	return w.subtitles.GenerateForJob(ctx, task.JobID)
}

func (w *Worker) handleBurnSubtitles(ctx context.Context, task *queue.Task) error {
	return w.subtitles.BurnForJob(ctx, task.JobID)
}
