package webui

import (
	"net/http"
	"time"

	"github.com/anemonelab/agenthub/core/agent"
	"github.com/anemonelab/agenthub/core/skills"
	"github.com/anemonelab/agenthub/core/state"
)

type Config struct {
	Pool                 *state.SessionPool
	Agents               AgentLister
	Catalog              *skills.Catalog
	Publisher            *skills.Publisher
	Minter               *agent.Minter
	Chat                 ChatBackend
	ApiKeys              []string
	ConversationDuration time.Duration
	DocClient            *http.Client
	RequestTimeout       time.Duration
}

type Option func(*Config)

func WithPool(pool *state.SessionPool) Option {
	return func(c *Config) {
		c.Pool = pool
	}
}

func WithAgents(agents AgentLister) Option {
	return func(c *Config) {
		c.Agents = agents
	}
}

func WithCatalog(catalog *skills.Catalog) Option {
	return func(c *Config) {
		c.Catalog = catalog
	}
}

func WithPublisher(p *skills.Publisher) Option {
	return func(c *Config) {
		c.Publisher = p
	}
}

func WithMinter(m *agent.Minter) Option {
	return func(c *Config) {
		c.Minter = m
	}
}

func WithChat(chat ChatBackend) Option {
	return func(c *Config) {
		c.Chat = chat
	}
}

func WithApiKeys(keys ...string) Option {
	return func(c *Config) {
		c.ApiKeys = keys
	}
}

// WithConversationStoreduration sets how long an idle chat transcript is
// kept. Unparsable values are ignored.
func WithConversationStoreduration(duration string) Option {
	return func(c *Config) {
		d, err := time.ParseDuration(duration)
		if err == nil && d > 0 {
			c.ConversationDuration = d
		}
	}
}

func WithDocClient(client *http.Client) Option {
	return func(c *Config) {
		c.DocClient = client
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.RequestTimeout = timeout
	}
}

func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{
		ConversationDuration: 15 * time.Minute,
		DocClient:            &http.Client{Timeout: 15 * time.Second},
		RequestTimeout:       2 * time.Minute,
	}
	c.Apply(opts...)
	return c
}
