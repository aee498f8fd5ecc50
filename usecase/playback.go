package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/banterbox/server/domain/entities"
	"github.com/banterbox/server/domain/repositories"
)

// PlaybackTask is one deferred unit of audio playback.
type PlaybackTask struct {
	PersonaID string
	Clip      *entities.AudioClip
}

// PlaybackQueue serializes playback of decoded clips, one at a time, in
// strict enqueue order regardless of how long synthesis took to produce
// each clip. Enqueue is safe to call while a previous task is mid-play.
type PlaybackQueue struct {
	output    repositories.AudioOutput
	onSpeaker func(personaID string)
	logger    *zap.Logger

	mu      sync.Mutex
	pending []PlaybackTask
	busy    bool
	active  string
	closed  bool
}

// NewPlaybackQueue creates a queue over the given output. onSpeaker, when
// set, is invoked with the persona id as each playback starts and with ""
// when it ends.
func NewPlaybackQueue(output repositories.AudioOutput, onSpeaker func(string), logger *zap.Logger) *PlaybackQueue {
	return &PlaybackQueue{
		output:    output,
		onSpeaker: onSpeaker,
		logger:    logger,
	}
}

// Enqueue appends a task and starts the drain loop if it is idle.
func (q *PlaybackQueue) Enqueue(ctx context.Context, task PlaybackTask) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, task)
	if q.busy {
		q.mu.Unlock()
		return
	}
	q.busy = true
	q.mu.Unlock()

	go q.drain(ctx)
}

// drain plays queued tasks to completion one by one. It is an explicit
// work loop guarded by the busy flag; only one drain runs at a time.
func (q *PlaybackQueue) drain(ctx context.Context) {
	for {
		q.mu.Lock()
		if q.closed || len(q.pending) == 0 {
			q.busy = false
			q.mu.Unlock()
			return
		}
		task := q.pending[0]
		q.pending = q.pending[1:]
		q.active = task.PersonaID
		q.mu.Unlock()

		if q.onSpeaker != nil {
			q.onSpeaker(task.PersonaID)
		}
		if err := q.output.Play(ctx, task.Clip); err != nil {
			q.logger.Warn("Audio playback ended early",
				zap.String("persona", task.PersonaID),
				zap.Error(err))
		}

		q.mu.Lock()
		q.active = ""
		q.mu.Unlock()
		if q.onSpeaker != nil {
			q.onSpeaker("")
		}
	}
}

// ActiveSpeaker returns the persona id whose clip is currently playing, or
// "" when idle.
func (q *PlaybackQueue) ActiveSpeaker() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Close drops all pending tasks and rejects future ones. The task playing
// right now finishes via its own context.
func (q *PlaybackQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.pending = nil
}
