package conversation

import "sync"

// Turn is one message of a conversation together with its attachments.
type Turn struct {
	Text        string       `json:"message" yaml:"message"`
	Sender      Sender       `json:"sender" yaml:"sender"`
	Attachments []Attachment `json:"fileAttachments" yaml:"attachments,omitempty"`
}

func NewUserTurn(text string, attachments ...Attachment) Turn {
	return Turn{Text: text, Sender: SenderUser, Attachments: cloneAttachments(attachments)}
}

func NewAgentTurn(text string, attachments ...Attachment) Turn {
	return Turn{Text: text, Sender: SenderAgent, Attachments: cloneAttachments(attachments)}
}

func (t Turn) Clone() Turn {
	ret := t
	if t.Attachments != nil {
		ret.Attachments = cloneAttachments(t.Attachments)
	}
	return ret
}

// Transcript is the append-only, chronologically ordered history of one
// conversation. Turns are copied on the way in and on the way out, so a
// committed turn cannot be changed through a returned value.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewTranscript(turns ...Turn) *Transcript {
	t := &Transcript{}
	t.turns = cloneTurns(turns)
	return t
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Turns returns a copy of the transcript, oldest turn first.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneTurns(t.turns)
}

func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1].Clone(), true
}

// Append commits a completed exchange. Both turns are added under one lock,
// user turn first.
func (t *Transcript) Append(user Turn, agent Turn) {
	user, agent = user.Clone(), agent.Clone()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, user, agent)
}

// Replace swaps in a freshly loaded history.
func (t *Transcript) Replace(turns []Turn) {
	cp := cloneTurns(turns)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = cp
}

func cloneTurns(in []Turn) []Turn {
	out := make([]Turn, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
