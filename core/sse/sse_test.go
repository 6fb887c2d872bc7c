package sse_test

import (
	"bufio"
	"errors"
	"sync"
	"time"

	"github.com/anemonelab/agenthub/core/sse"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// closingConn accepts a fixed number of writes, then fails like a socket
// whose peer hung up.
type closingConn struct {
	mu     sync.Mutex
	budget int
	writes []string
}

func (c *closingConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.budget <= 0 {
		return 0, errors.New("broken pipe")
	}
	c.budget--
	c.writes = append(c.writes, string(p))
	return len(p), nil
}

func (c *closingConn) Writes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...)
}

var _ = Describe("Stream", func() {
	stream := func(conn *closingConn, cl sse.Listener) chan struct{} {
		done := make(chan struct{})
		go func() {
			defer close(done)
			sse.Stream(bufio.NewWriter(conn), cl, 10*time.Millisecond)
		}()
		return done
	}

	It("pings idle clients and stops once the peer is gone", func() {
		conn := &closingConn{budget: 2}
		done := stream(conn, sse.NewClient())

		Eventually(done).Should(BeClosed())
		writes := conn.Writes()
		Expect(writes).To(HaveLen(2))
		Expect(writes[0]).To(HavePrefix("event: connected\n"))
		Expect(writes[1]).To(Equal(": ping\n\n"))
	})

	It("forwards messages until the channel closes", func() {
		conn := &closingConn{budget: 100}
		cl := sse.NewClient()
		done := stream(conn, cl)

		cl.Chan() <- sse.NewMessage("hello")
		Eventually(conn.Writes).Should(ContainElement("data: hello\n\n"))
		close(cl.Chan())
		Eventually(done).Should(BeClosed())
	})
})

var _ = Describe("Manager", func() {
	var (
		joins, leaves []int
		manager       sse.Manager
	)

	BeforeEach(func() {
		joins, leaves = nil, nil
		manager = sse.NewManager(sse.Hooks{
			OnJoin:  func(n int) { joins = append(joins, n) },
			OnLeave: func(n int) { leaves = append(leaves, n) },
		})
	})

	It("formats events", func() {
		msg := sse.NewMessage(`{"balance":"1"}`).WithEvent("balance")
		Expect(msg.String()).To(Equal("event: balance\ndata: {\"balance\":\"1\"}\n\n"))
		Expect(sse.NewMessage("x").String()).To(Equal("data: x\n\n"))
	})

	It("encodes JSON messages", func() {
		msg, err := sse.NewJSONMessage("balance", map[string]string{"sui": "1.5"})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.String()).To(Equal("event: balance\ndata: {\"sui\":\"1.5\"}\n\n"))
	})

	It("gives every client a distinct id", func() {
		Expect(sse.NewClient().ID()).NotTo(Equal(sse.NewClient().ID()))
	})

	It("broadcasts to subscribed clients and counts them", func() {
		a, b := sse.NewClient(), sse.NewClient()
		manager.Subscribe(a)
		manager.Subscribe(b)
		Expect(joins).To(Equal([]int{1, 2}))
		Expect(manager.Clients()).To(ConsistOf(a.ID(), b.ID()))

		manager.Send(sse.NewMessage("hello"))
		Expect((<-a.Chan()).String()).To(Equal("data: hello\n\n"))
		Expect((<-b.Chan()).String()).To(Equal("data: hello\n\n"))

		manager.Unsubscribe(a.ID())
		manager.Unsubscribe(b.ID())
		Expect(leaves).To(Equal([]int{1, 0}))
		Expect(a.Chan()).To(BeClosed())
	})

	It("replays the latest message to a new client", func() {
		manager.Send(sse.NewMessage("old"))
		manager.Send(sse.NewMessage("new"))

		c := sse.NewClient()
		manager.Subscribe(c)
		Expect((<-c.Chan()).String()).To(Equal("data: new\n\n"))
	})

	It("ignores unknown clients on Unsubscribe", func() {
		manager.Unsubscribe("missing")
		Expect(leaves).To(BeEmpty())
	})

	It("disconnects everyone on Close", func() {
		c := sse.NewClient()
		manager.Subscribe(c)
		manager.Close()
		Expect(c.Chan()).To(BeClosed())

		late := sse.NewClient()
		manager.Subscribe(late)
		Expect(late.Chan()).To(BeClosed())
		Expect(manager.Clients()).To(BeEmpty())
	})
})
