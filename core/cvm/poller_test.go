package cvm_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/anemonelab/agenthub/core/cvm"
	"github.com/anemonelab/agenthub/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeBackend struct {
	mu sync.Mutex

	online   bool
	statsErr error
	attErr   error
	compErr  error
	startErr error
	calls    map[string]int
}

func (f *fakeBackend) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) CvmStats(ctx context.Context, appID string) (*types.CvmStatsResponse, error) {
	f.record("stats")
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &types.CvmStatsResponse{CvmStatus: types.CvmStatus{IsOnline: f.online}, SysInfo: types.SysInfo{NumCPUs: 2}}, nil
}

func (f *fakeBackend) CvmAttestation(ctx context.Context, appID string) (*types.AttestationResponse, error) {
	f.record("attestation")
	if f.attErr != nil {
		return nil, f.attErr
	}
	return &types.AttestationResponse{CvmStatus: types.CvmStatus{IsOnline: f.online}, ComposeFile: "services: {}"}, nil
}

func (f *fakeBackend) CvmComposition(ctx context.Context, appID string) (*types.CvmCompositionResponse, error) {
	f.record("composition")
	if f.compErr != nil {
		return nil, f.compErr
	}
	return &types.CvmCompositionResponse{Containers: []types.Container{{Name: "agent"}}}, nil
}

func (f *fakeBackend) StartCvm(ctx context.Context, appID string) error {
	f.record("start")
	return f.startErr
}

func (f *fakeBackend) StopCvm(ctx context.Context, appID string) error {
	f.record("stop")
	return nil
}

var _ = Describe("Poller", func() {
	var (
		backend *fakeBackend
		poller  *Poller
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = &fakeBackend{online: true}
		poller = NewPoller("app-1", backend)
		poller.SettleDelay = 10 * time.Millisecond
	})

	AfterEach(func() {
		poller.Close()
	})

	It("populates the other sections when one fails", func() {
		backend.attErr = errors.New("attestation service down")

		err := poller.RefreshAll(ctx)
		Expect(err).To(MatchError(ContainSubstring("attestation service down")))

		v := poller.View()
		Expect(v.Stats).NotTo(BeNil())
		Expect(v.Composition.Containers).To(HaveLen(1))
		Expect(v.Attestation).To(BeNil())
		Expect(v.Errors).To(HaveKey(Attestation))
		Expect(v.Errors).NotTo(HaveKey(Stats))
	})

	It("keeps the previous snapshot when a refresh fails", func() {
		Expect(poller.RefreshStats(ctx)).To(Succeed())
		before := poller.View().Stats

		backend.statsErr = errors.New("timeout")
		Expect(poller.RefreshStats(ctx)).NotTo(Succeed())
		Expect(poller.View().Stats).To(BeIdenticalTo(before))
		Expect(poller.Err(Stats)).To(HaveOccurred())

		backend.statsErr = nil
		Expect(poller.RefreshStats(ctx)).To(Succeed())
		Expect(poller.View().Stats).NotTo(BeIdenticalTo(before))
		Expect(poller.Err(Stats)).NotTo(HaveOccurred())
	})

	It("loads a section only on first use", func() {
		Expect(poller.EnsureLoaded(ctx, Attestation)).To(Succeed())
		Expect(poller.EnsureLoaded(ctx, Attestation)).To(Succeed())
		Expect(backend.count("attestation")).To(Equal(1))
		Expect(backend.count("stats")).To(BeZero())
	})

	It("requires an app id", func() {
		p := NewPoller("", backend)
		Expect(p.RefreshAll(ctx)).To(MatchError(ErrNoAppID))
		Expect(p.Start(ctx, true)).To(MatchError(ErrNoAppID))
	})

	It("parses section names", func() {
		s, err := ParseSection("composition")
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(Composition))
		_, err = ParseSection("logs")
		Expect(errors.Is(err, ErrUnknownSection)).To(BeTrue())
	})

	It("refuses start and stop for non owners", func() {
		Expect(poller.Start(ctx, false)).To(MatchError(ErrNotOwner))
		Expect(poller.Stop(ctx, false)).To(MatchError(ErrNotOwner))
		Expect(backend.count("start")).To(BeZero())
	})

	It("re-polls after the settle delay when a command succeeds", func() {
		repolled := make(chan struct{}, 1)
		poller.OnRepoll = func() { repolled <- struct{}{} }

		Expect(poller.Start(ctx, true)).To(Succeed())
		Eventually(repolled).Should(Receive())
		Expect(backend.count("stats")).To(Equal(1))
		Expect(backend.count("attestation")).To(Equal(1))
		Expect(backend.count("composition")).To(Equal(1))
	})

	It("leaves state intact when a command fails", func() {
		Expect(poller.RefreshStats(ctx)).To(Succeed())
		backend.startErr = errors.New("busy")

		Expect(poller.Start(ctx, true)).To(MatchError(ContainSubstring("busy")))
		Consistently(func() int { return backend.count("stats") }, 50*time.Millisecond).Should(Equal(1))
		Expect(poller.View().Stats).NotTo(BeNil())
	})

	It("derives liveness from live data before the chain flag", func() {
		Expect(poller.Liveness(true)).To(Equal(Liveness{Online: true, Source: "chain"}))

		backend.online = false
		Expect(poller.RefreshStats(ctx)).To(Succeed())
		Expect(poller.Liveness(true)).To(Equal(Liveness{Online: false, Source: "stats"}))

		backend.online = true
		Expect(poller.RefreshAttestation(ctx)).To(Succeed())
		Expect(poller.Liveness(false)).To(Equal(Liveness{Online: true, Source: "attestation"}))
	})
})
