package conversations

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat transcript.
type Message struct {
	ID      string    `json:"id"`
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Error   bool      `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

type TrackerKey interface{ ~int | ~int64 | ~string }

// ConversationTracker keeps a transcript per key. A transcript whose last
// message is older than the configured duration is dropped.
type ConversationTracker[K TrackerKey] struct {
	convMutex           sync.Mutex
	currentconversation map[K][]Message
	lastMessageTime     map[K]time.Time
	lastMessageDuration time.Duration
	now                 func() time.Time
}

func NewConversationTracker[K TrackerKey](lastMessageDuration time.Duration) *ConversationTracker[K] {
	return &ConversationTracker[K]{
		lastMessageDuration: lastMessageDuration,
		currentconversation: map[K][]Message{},
		lastMessageTime:     map[K]time.Time{},
		now:                 time.Now,
	}
}

// WithClock replaces the clock used for expiry and message timestamps.
func (c *ConversationTracker[K]) WithClock(now func() time.Time) *ConversationTracker[K] {
	c.now = now
	return c
}

func (c *ConversationTracker[K]) expired(k K, now time.Time) bool {
	last, exists := c.lastMessageTime[k]
	return !exists || last.Add(c.lastMessageDuration).Before(now)
}

// GetConversation returns a copy of the transcript of key and drops every
// expired transcript.
func (c *ConversationTracker[K]) GetConversation(key K) []Message {
	c.convMutex.Lock()
	defer c.convMutex.Unlock()

	now := c.now()
	currentConv := []Message{}
	if c.expired(key, now) {
		xlog.Debug("Conversation history does not exist for", "key", fmt.Sprintf("%v", key))
	} else {
		currentConv = append(currentConv, c.currentconversation[key]...)
	}

	for k := range c.currentconversation {
		if c.expired(k, now) {
			xlog.Debug("Cleaning up conversation for", "key", fmt.Sprintf("%v", k))
			delete(c.currentconversation, k)
			delete(c.lastMessageTime, k)
		}
	}

	return currentConv
}

// AddMessage appends a message to the transcript of key, starting a new one
// if the previous transcript expired.
func (c *ConversationTracker[K]) AddMessage(key K, role, content string) Message {
	return c.add(key, Message{Role: role, Content: content})
}

// AddError records a failed reply so the transcript shows it.
func (c *ConversationTracker[K]) AddError(key K, err error) Message {
	return c.add(key, Message{Role: RoleAssistant, Content: err.Error(), Error: true})
}

func (c *ConversationTracker[K]) add(key K, m Message) Message {
	c.convMutex.Lock()
	defer c.convMutex.Unlock()

	now := c.now()
	if c.expired(key, now) {
		delete(c.currentconversation, key)
	}
	m.ID = uuid.NewString()
	m.Time = now
	c.currentconversation[key] = append(c.currentconversation[key], m)
	c.lastMessageTime[key] = now
	return m
}

func (c *ConversationTracker[K]) Reset(key K) {
	c.convMutex.Lock()
	defer c.convMutex.Unlock()

	delete(c.currentconversation, key)
	delete(c.lastMessageTime, key)
}
