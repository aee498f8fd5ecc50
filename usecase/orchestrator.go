package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/banterbox/server/domain/entities"
	"github.com/banterbox/server/domain/repositories"
)

// State names the phases of a conversation.
type State string

const (
	StateStarting     State = "starting"
	StateGenerating   State = "generating"
	StateAwaitingNext State = "awaiting_next"
	StatePaused       State = "paused"
	StateErrorPaused  State = "error_paused"
	StateStopped      State = "stopped"
)

// DefaultTurnDelay paces the conversation between turns. It is a UX
// choice, not a correctness requirement, and is configurable per
// conversation.
const DefaultTurnDelay = 3 * time.Second

// ErrConversationStopped is returned for controls on a stopped conversation.
var ErrConversationStopped = errors.New("conversation is stopped")

// Listener receives orchestrator notifications for presentation. All
// callbacks run outside the orchestrator's lock; implementations must not
// block for long.
type Listener interface {
	StateChanged(state State)
	MessageAdded(msg *entities.Message, speaker entities.Persona)
	SpeakerChanged(personaID string)
	ErrorOccurred(message string)
}

// Orchestrator drives the turn rotation for one conversation: it decides
// whose turn is next, sequences generate, synthesize and enqueue, paces
// turns with a delay, and reacts to pause/resume/stop/advance/add/sound
// controls.
//
// A single run-loop goroutine owns all progression; control methods only
// set flags under the mutex and poke the loop, so a second generation can
// never start while one is in flight, and every suspension point re-checks
// the stop flag before mutating shared state.
type Orchestrator struct {
	conv     *entities.Conversation
	turns    *TurnGenerator
	speech   *SpeechPipeline
	queue    *PlaybackQueue
	output   repositories.AudioOutput
	listener Listener
	logger   *zap.Logger
	delay    time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	bump   chan struct{}

	mu           sync.Mutex
	state        State
	stopped      bool
	paused       bool
	soundOn      bool
	errMsg       string
	advanceReq   bool
	delayPending bool
}

type orchestratorAction int

const (
	actTurn orchestratorAction = iota
	actDelay
	actIdle
	actDone
)

func newOrchestrator(
	conv *entities.Conversation,
	turns *TurnGenerator,
	speech *SpeechPipeline,
	output repositories.AudioOutput,
	listener Listener,
	soundOn bool,
	delay time.Duration,
	logger *zap.Logger,
) *Orchestrator {
	if delay <= 0 {
		delay = DefaultTurnDelay
	}
	o := &Orchestrator{
		conv:     conv,
		turns:    turns,
		speech:   speech,
		output:   output,
		listener: listener,
		logger:   logger,
		delay:    delay,
		done:     make(chan struct{}),
		bump:     make(chan struct{}, 1),
		state:    StateStarting,
		soundOn:  soundOn,
	}
	o.queue = NewPlaybackQueue(output, o.notifySpeaker, logger)
	return o
}

// start launches the run loop. The first turn begins immediately.
func (o *Orchestrator) start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	go o.run(runCtx)
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)
	for {
		act, st := o.nextAction()
		switch act {
		case actDone:
			return
		case actTurn:
			o.runTurn(ctx)
		case actDelay:
			o.setState(st)
			timer := time.NewTimer(o.delay)
			select {
			case <-timer.C:
				o.mu.Lock()
				o.delayPending = false
				o.mu.Unlock()
			case <-o.bump:
				// A control changed something; re-evaluate. The pending
				// delay restarts if the conversation simply resumes.
				timer.Stop()
			case <-ctx.Done():
				timer.Stop()
				return
			}
		case actIdle:
			o.setState(st)
			select {
			case <-o.bump:
			case <-ctx.Done():
				return
			}
		}
	}
}

// nextAction decides what the loop does next from the control flags.
func (o *Orchestrator) nextAction() (orchestratorAction, State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case o.stopped:
		return actDone, StateStopped
	case o.advanceReq:
		// Manual advance cancels the pending delay and also pre-empts a
		// paused or error-paused wait for exactly one turn.
		o.advanceReq = false
		o.errMsg = ""
		o.delayPending = false
		return actTurn, StateGenerating
	case o.errMsg != "":
		return actIdle, StateErrorPaused
	case o.paused:
		return actIdle, StatePaused
	case o.delayPending:
		return actDelay, StateAwaitingNext
	default:
		return actTurn, StateGenerating
	}
}

// runTurn executes one full turn: generate, optionally synthesize, append,
// enqueue playback. The stop flag is re-checked after every suspension
// point; a stale in-flight call mutates nothing once the conversation is
// stopped.
func (o *Orchestrator) runTurn(ctx context.Context) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	speaker, first := o.conv.NextSpeaker()
	others := len(o.conv.Roster()) - 1
	lastText := o.conv.LastText()
	turn := o.conv.Len()
	sound := o.soundOn
	o.mu.Unlock()

	o.setState(StateGenerating)
	o.logger.Info("Generating turn",
		zap.Int("turn", turn),
		zap.String("persona", speaker.ID),
		zap.Bool("first_appearance", first))

	text, err := o.turns.NextTurn(ctx, TurnRequest{
		Speaker:         speaker,
		Others:          others,
		LastText:        lastText,
		FirstAppearance: first,
	})
	if o.isStopped() {
		return
	}
	if err != nil {
		o.logger.Error("Turn generation failed",
			zap.Int("turn", turn),
			zap.String("persona", speaker.ID),
			zap.Error(err))
		msg := fmt.Sprintf("An API error occurred: %q. This could be a network issue or a problem with your API key. The conversation is paused.", err.Error())
		o.mu.Lock()
		o.errMsg = msg
		o.mu.Unlock()
		o.notifyError(msg)
		return
	}

	var clip *entities.AudioClip
	if sound {
		clip = o.speech.Speak(ctx, text, speaker)
		if o.isStopped() {
			return
		}
	}

	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	msg := o.conv.Append(speaker, text, clip)
	o.delayPending = true
	o.mu.Unlock()

	o.notifyMessage(msg, speaker)
	if clip != nil {
		o.queue.Enqueue(ctx, PlaybackTask{PersonaID: speaker.ID, Clip: clip})
	}
}

// Pause suspends automatic progression after the current turn completes.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	o.paused = true
	o.mu.Unlock()
	o.poke()
}

// Resume clears a pause or error and re-enters the inter-turn wait. The
// failed turn, if any, is retried verbatim on the same rotation point.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	o.paused = false
	o.errMsg = ""
	o.delayPending = true
	o.mu.Unlock()
	o.poke()
}

// Advance cancels the pending inter-turn delay and generates the next turn
// now. It also works while paused or error-paused, without un-pausing.
func (o *Orchestrator) Advance() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.advanceReq = true
	o.mu.Unlock()
	o.poke()
}

// Stop terminates the conversation. It is idempotent: pending work is
// cancelled, the playback queue is cleared, the audio output is released,
// and an in-flight generation that resolves later appends nothing.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	o.mu.Unlock()

	o.cancel()
	o.poke()
	o.queue.Close()
	if err := o.output.Close(); err != nil {
		o.logger.Warn("Closing audio output failed", zap.Error(err))
	}
	o.setState(StateStopped)
	o.logger.Info("Conversation stopped", zap.String("conversation", o.conv.ID))
}

// AddPersona appends a participant to the roster, effective on the next
// rotation computation.
func (o *Orchestrator) AddPersona(p entities.Persona) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrConversationStopped
	}
	return o.conv.AddPersona(p)
}

// ToggleSound flips whether future turns attempt synthesis and whether
// playback renders audibly. Already-enqueued playback tasks are not
// touched; they resolve silently while muted. The new setting is returned.
func (o *Orchestrator) ToggleSound() bool {
	o.mu.Lock()
	o.soundOn = !o.soundOn
	on := o.soundOn
	o.mu.Unlock()
	o.output.SetMuted(!on)
	return on
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ErrorMessage returns the user-facing error while error-paused, or "".
func (o *Orchestrator) ErrorMessage() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.errMsg
}

// SoundOn reports whether synthesis is attempted for future turns.
func (o *Orchestrator) SoundOn() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.soundOn
}

// ActiveSpeaker returns the persona id currently being played back.
func (o *Orchestrator) ActiveSpeaker() string {
	return o.queue.ActiveSpeaker()
}

// Conversation metadata accessors used by the API layer.

func (o *Orchestrator) ID() string {
	return o.conv.ID
}

func (o *Orchestrator) Topic() string {
	return o.conv.Topic
}

func (o *Orchestrator) Mode() entities.ConversationMode {
	return o.conv.Mode
}

func (o *Orchestrator) Roster() []entities.Persona {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.Roster()
}

func (o *Orchestrator) Messages() []*entities.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.Messages()
}

// Done is closed when the run loop has exited.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

func (o *Orchestrator) isStopped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopped
}

// poke wakes the run loop without blocking; coalescing is fine because the
// loop re-reads all flags on every wake.
func (o *Orchestrator) poke() {
	select {
	case o.bump <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) setState(st State) {
	o.mu.Lock()
	if o.state == st || (o.stopped && st != StateStopped) {
		o.mu.Unlock()
		return
	}
	o.state = st
	o.mu.Unlock()
	if o.listener != nil {
		o.listener.StateChanged(st)
	}
}

func (o *Orchestrator) notifyMessage(msg *entities.Message, speaker entities.Persona) {
	if o.listener != nil {
		o.listener.MessageAdded(msg, speaker)
	}
}

func (o *Orchestrator) notifySpeaker(personaID string) {
	if o.listener != nil {
		o.listener.SpeakerChanged(personaID)
	}
}

func (o *Orchestrator) notifyError(message string) {
	if o.listener != nil {
		o.listener.ErrorOccurred(message)
	}
}
