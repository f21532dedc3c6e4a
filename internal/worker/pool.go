package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"clipstudy-backend/internal/models"
	"clipstudy-backend/internal/repository"
	"clipstudy-backend/internal/services"
	"clipstudy-backend/internal/websocket"
)

const (
	videoQueue      = "queue:video-processing"
	transcriptQueue = "queue:transcript-processing"
)

// Pool consumes processing jobs from the Redis queues, runs them through
// the same pipeline as the synchronous endpoints, and publishes progress
// on each job's pub/sub channel.
type Pool struct {
	queue       *redis.Client
	pubsub      *redis.Client
	processor   *services.Processor
	jobRepo     *repository.JobRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	queueClient *redis.Client,
	pubsubClient *redis.Client,
	processor *services.Processor,
	jobRepo *repository.JobRepo,
	workerCount int,
) *Pool {
	return &Pool{
		queue:       queueClient,
		pubsub:      pubsubClient,
		processor:   processor,
		jobRepo:     jobRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{videoQueue, transcriptQueue}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.queue.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.queue.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		var cached bool
		switch job.Type {
		case "video-processing":
			cached, processErr = p.processVideo(ctx, &job)
		case "transcript-processing":
			cached, processErr = p.processTranscript(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job, cached)
		}

		// Release lock
		p.queue.Del(ctx, lockKey)
	}
}

func (p *Pool) processVideo(ctx context.Context, job *models.Job) (bool, error) {
	var payload models.SubmitJobRequest
	if err := json.Unmarshal(job.PayloadJSON, &payload); err != nil {
		return false, fmt.Errorf("failed to parse job payload: %w", err)
	}
	if payload.VideoURL == "" {
		return false, fmt.Errorf("video-processing job has no video URL")
	}

	p.publishUpdate(ctx, job, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID:    job.ID,
			Step:     1,
			StepName: "Fetching transcript",
		},
	})

	_, cached, err := p.processor.ProcessVideo(ctx, payload.VideoURL)
	return cached, err
}

func (p *Pool) processTranscript(ctx context.Context, job *models.Job) (bool, error) {
	var payload models.SubmitJobRequest
	if err := json.Unmarshal(job.PayloadJSON, &payload); err != nil {
		return false, fmt.Errorf("failed to parse job payload: %w", err)
	}
	if payload.Transcript == "" {
		return false, fmt.Errorf("transcript-processing job has no transcript")
	}

	p.publishUpdate(ctx, job, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID:    job.ID,
			Step:     1,
			StepName: "Generating learning materials",
		},
	})

	_, cached, err := p.processor.ProcessText(ctx, payload.Transcript, "transcript")
	return cached, err
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job, cached bool) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")

	p.publishUpdate(ctx, job, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:       job.ID,
			Fingerprint: job.Fingerprint,
			Cached:      cached,
		},
	})

	log.Printf("Job %s completed successfully (cached: %v)", job.ID, cached)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < 3 && retryable(err) {
		// Re-queue with backoff
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.queue.LPush(context.Background(), jobQueueName(job.Type), string(jobBytes))
		})
		return
	}

	log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
	p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
	p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

	p.publishUpdate(ctx, job, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			ErrorCode:    errorCode(err),
			ErrorMessage: errMsg,
		},
	})
}

// retryable reports whether a retry could plausibly succeed. Bad input and
// missing captions fail the same way every time; provider hiccups do not.
func retryable(err error) bool {
	var ve *services.ValidationError
	var nf *services.NotFoundError
	var ce *services.ConfigError
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &ce) {
		return false
	}
	return true
}

func errorCode(err error) string {
	var ve *services.ValidationError
	var nf *services.NotFoundError
	var rl *services.RateLimitError
	var ue *services.UnavailableError
	var ce *services.ConfigError

	switch {
	case errors.As(err, &ve):
		return "VALIDATION_ERROR"
	case errors.As(err, &nf):
		return "NOT_FOUND"
	case errors.As(err, &rl):
		return "PROVIDER_QUOTA"
	case errors.As(err, &ue):
		return "PROVIDER_UNAVAILABLE"
	case errors.As(err, &ce):
		return "MISCONFIGURED"
	default:
		return "JOB_FAILED"
	}
}

func (p *Pool) publishUpdate(ctx context.Context, job *models.Job, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := p.pubsub.Publish(ctx, websocket.JobChannel(job.ID), data).Err(); err != nil {
		log.Printf("failed to publish %s update for job %s: %v", msg.Type, job.ID, err)
	}
}

func jobQueueName(jobType string) string {
	switch jobType {
	case "video-processing":
		return videoQueue
	case "transcript-processing":
		return transcriptQueue
	default:
		return "queue:" + jobType
	}
}
