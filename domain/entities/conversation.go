package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRosterTooSmall is returned when a conversation is created with
	// fewer than two personas.
	ErrRosterTooSmall = errors.New("conversation needs at least two personas")

	// ErrDuplicatePersona is returned when a persona id already exists in
	// the roster.
	ErrDuplicatePersona = errors.New("persona is already in the conversation")
)

// Message is a single completed turn: the generated text, the persona who
// said it, and the decoded audio when synthesis succeeded. Messages are
// append-only and never mutated after creation.
type Message struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	PersonaID string     `json:"persona_id"`
	Audio     *AudioClip `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

// Conversation holds the run-time state of one show: the ordered roster,
// the topic and mode fixed at creation, the append-only message log, and
// the set of personas that have already had their introductory turn.
//
// A Conversation is owned by a single orchestrator; it does no locking of
// its own.
type Conversation struct {
	ID     string
	Topic  string
	Mode   ConversationMode
	roster []Persona
	log    []*Message
	spoken map[string]bool
}

// NewConversation validates the roster and mode and builds the initial
// state. The roster keeps its given order; rotation is derived from it.
func NewConversation(personas []Persona, topic string, mode ConversationMode) (*Conversation, error) {
	if len(personas) < 2 {
		return nil, ErrRosterTooSmall
	}
	if !ValidMode(mode) {
		return nil, errors.New("unsupported conversation mode")
	}
	seen := make(map[string]bool, len(personas))
	for i := range personas {
		if err := personas[i].Validate(); err != nil {
			return nil, err
		}
		if seen[personas[i].ID] {
			return nil, ErrDuplicatePersona
		}
		seen[personas[i].ID] = true
	}
	return &Conversation{
		ID:     uuid.NewString(),
		Topic:  topic,
		Mode:   mode,
		roster: append([]Persona(nil), personas...),
		spoken: make(map[string]bool),
	}, nil
}

// NextSpeaker returns the persona whose turn is next, following
// roster[len(log) mod len(roster)] against the current roster size, and
// whether this would be the persona's first appearance.
func (c *Conversation) NextSpeaker() (Persona, bool) {
	speaker := c.roster[len(c.log)%len(c.roster)]
	return speaker, !c.spoken[speaker.ID]
}

// LastText returns the most recent utterance, or the topic before any turn
// has completed.
func (c *Conversation) LastText() string {
	if len(c.log) == 0 {
		return c.Topic
	}
	return c.log[len(c.log)-1].Text
}

// AddPersona appends a participant to the roster. It takes effect on the
// next rotation computation; earlier turns are unaffected.
func (c *Conversation) AddPersona(p Persona) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for i := range c.roster {
		if c.roster[i].ID == p.ID {
			return ErrDuplicatePersona
		}
	}
	c.roster = append(c.roster, p)
	return nil
}

// Append records a completed turn and marks the speaker as having spoken.
// Audio may be nil when synthesis failed or sound was off.
func (c *Conversation) Append(speaker Persona, text string, audio *AudioClip) *Message {
	msg := &Message{
		ID:        uuid.NewString(),
		Text:      text,
		PersonaID: speaker.ID,
		Audio:     audio,
		CreatedAt: time.Now(),
	}
	c.log = append(c.log, msg)
	c.spoken[speaker.ID] = true
	return msg
}

// HasSpoken reports whether the persona already had its introductory turn.
func (c *Conversation) HasSpoken(personaID string) bool {
	return c.spoken[personaID]
}

// Roster returns a copy of the current roster.
func (c *Conversation) Roster() []Persona {
	return append([]Persona(nil), c.roster...)
}

// Messages returns the message log. Callers must not modify the entries.
func (c *Conversation) Messages() []*Message {
	return append([]*Message(nil), c.log...)
}

// Len returns the number of completed turns.
func (c *Conversation) Len() int {
	return len(c.log)
}
