package agent

import "strings"

// Context is the read-only persona description supplied by the host
// conversation system. The pipeline never mutates it.
type Context struct {
	Name     string
	Identity string
	Plan     string
}

// DialogueLine is one attributed utterance of the conversation so far.
type DialogueLine struct {
	Speaker string
	Text    string
}

// TurnContext abstracts over the "start conversation" and "continue
// conversation" variants so the search pipeline runs identically for both.
type TurnContext interface {
	// Agent is the persona whose knowledge gap is being resolved.
	Agent() Context
	// Interlocutor is the other participant in the conversation.
	Interlocutor() Context
	// History returns the conversation so far, oldest first. Empty for a
	// starting turn.
	History() []DialogueLine
}

type turnContext struct {
	agent        Context
	interlocutor Context
	history      []DialogueLine
}

func (t *turnContext) Agent() Context          { return t.agent }
func (t *turnContext) Interlocutor() Context   { return t.interlocutor }
func (t *turnContext) History() []DialogueLine { return t.history }

// NewStartTurn builds the context for the first turn of a conversation.
func NewStartTurn(self, other Context) TurnContext {
	return &turnContext{agent: self, interlocutor: other}
}

// NewContinueTurn builds the context for a mid-conversation turn.
func NewContinueTurn(self, other Context, history []DialogueLine) TurnContext {
	return &turnContext{agent: self, interlocutor: other, history: history}
}

// LastQuestion returns the most recent line spoken by the interlocutor,
// which is the question the agent is answering this turn.
func LastQuestion(tc TurnContext) string {
	hist := tc.History()
	other := tc.Interlocutor().Name
	for i := len(hist) - 1; i >= 0; i-- {
		if hist[i].Speaker == other {
			return strings.TrimSpace(hist[i].Text)
		}
	}
	return ""
}

// Aliases returns the names an agent may be referred to by in retrieved
// text: the full name plus its individual word parts.
func Aliases(a Context) []string {
	aliases := []string{a.Name}
	for _, part := range strings.Fields(a.Name) {
		if len(part) > 2 && part != a.Name {
			aliases = append(aliases, part)
		}
	}
	return aliases
}
