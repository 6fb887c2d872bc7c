package skills_test

import (
	"context"
	"errors"

	"github.com/anemonelab/agenthub/core/chain"
	. "github.com/anemonelab/agenthub/core/skills"
	"github.com/anemonelab/agenthub/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// stallingExecutor runs during while a skill update is in flight, then
// fails the submission.
type stallingExecutor struct {
	*chain.MockExecutor
	during func()
	err    error
}

func (e *stallingExecutor) UpdateSkills(ctx context.Context, roleID, nftID string, skills []string) (string, error) {
	if e.during != nil {
		e.during()
	}
	return "", e.err
}

func ids(skills []types.Skill) []string {
	out := []string{}
	for _, s := range skills {
		out = append(out, s.ObjectID)
	}
	return out
}

var _ = Describe("Reconciler", func() {
	var (
		reader   *chain.MockReader
		registry *fakeRegistry
		tx       *chain.MockExecutor
		rec      *Reconciler
		ctx      context.Context
	)

	load := func(skills ...string) {
		reader.Set("0xrole", roleWithSkills("0xrole", skills...))
		Expect(rec.Refresh(ctx)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		reader = chain.NewMockReader()
		registry = &fakeRegistry{entries: []types.Skill{{ObjectID: "0xB"}, {ObjectID: "0xC"}}}
		for _, id := range []string{"0xA", "0xB", "0xC"} {
			reader.Set(id, skillObject(id, "skill-"+id, "1"))
		}
		tx = &chain.MockExecutor{Wallet: "0xwallet"}
		tx.OnSubmit = func(c chain.Call) {
			if c.Method == "update_skills" {
				reader.Set(c.RoleID, roleWithSkills(c.RoleID, c.Skills...))
			}
		}
		r := chain.NewReader(reader)
		rec = NewReconciler("0xrole", NewCatalog(registry, r), r, tx)
		load("0xA", "0xB")
	})

	It("starts in viewing mode with the chain list", func() {
		Expect(rec.Mode()).To(Equal(Viewing))
		Expect(rec.Current()).To(Equal([]string{"0xA", "0xB"}))
		Expect(rec.Toggle("0xC")).To(MatchError(ErrNotEditing))
	})

	It("seeds the pending selection with a copy of the current skills", func() {
		Expect(rec.EnterEdit(ctx)).To(Succeed())
		Expect(rec.Mode()).To(Equal(Editing))

		pending := rec.Pending()
		Expect(pending).To(Equal([]string{"0xA", "0xB"}))
		pending[0] = "0xmutated"
		Expect(rec.Pending()[0]).To(Equal("0xA"))
		Expect(rec.Current()[0]).To(Equal("0xA"))
	})

	It("leaves the committed list untouched when editing is cancelled", func() {
		Expect(rec.EnterEdit(ctx)).To(Succeed())
		Expect(rec.Toggle("0xC")).To(Succeed())
		Expect(rec.Toggle("0xA")).To(Succeed())
		Expect(rec.Pending()).To(Equal([]string{"0xB", "0xC"}))

		rec.Cancel()
		Expect(rec.Mode()).To(Equal(Viewing))
		Expect(rec.Current()).To(Equal([]string{"0xA", "0xB"}))
		Expect(rec.Pending()).To(BeEmpty())
		Expect(tx.Submitted()).To(BeEmpty())
	})

	It("toggles idempotently in pairs", func() {
		Expect(rec.EnterEdit(ctx)).To(Succeed())
		Expect(rec.Toggle("0xC")).To(Succeed())
		Expect(rec.Toggle("0xC")).To(Succeed())
		Expect(rec.Pending()).To(Equal([]string{"0xA", "0xB"}))
	})

	It("replaces the list only after confirmation and a chain re-read", func() {
		Expect(rec.EnterEdit(ctx)).To(Succeed())
		Expect(rec.Toggle("0xC")).To(Succeed())

		res := rec.Commit(ctx)
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(Committed))
		Expect(res.Digest).To(Equal("digest-1"))
		Expect(rec.Mode()).To(Equal(Viewing))
		Expect(rec.Current()).To(Equal([]string{"0xA", "0xB", "0xC"}))
		Expect(ids(rec.Details())).To(Equal([]string{"0xA", "0xB", "0xC"}))

		calls := tx.Submitted()
		Expect(calls).To(HaveLen(1))
		Expect(calls[0].NftID).To(Equal("0xnft"))
		Expect(calls[0].Skills).To(Equal([]string{"0xA", "0xB", "0xC"}))
	})

	It("still submits when the toggles net back to the original set", func() {
		Expect(rec.EnterEdit(ctx)).To(Succeed())
		Expect(rec.Toggle("0xC")).To(Succeed())
		Expect(rec.Toggle("0xC")).To(Succeed())

		res := rec.Commit(ctx)
		Expect(res.Outcome).To(Equal(Committed))
		Expect(tx.Submitted()).To(HaveLen(1))
	})

	It("stays in editing when the submission is rejected", func() {
		tx.SubmitErr = errors.New("user rejected the request")
		Expect(rec.EnterEdit(ctx)).To(Succeed())
		Expect(rec.Toggle("0xC")).To(Succeed())

		res := rec.Commit(ctx)
		Expect(res.Outcome).To(Equal(Rejected))
		Expect(res.Err).To(MatchError(ContainSubstring("user rejected")))
		Expect(rec.Mode()).To(Equal(Editing))
		Expect(rec.Pending()).To(Equal([]string{"0xA", "0xB", "0xC"}))
		Expect(rec.Current()).To(Equal([]string{"0xA", "0xB"}))
	})

	It("stays in editing when the transaction executed with a failure", func() {
		tx.Blocks = map[string]*chain.TransactionBlock{
			"digest-1": {Digest: "digest-1", Effects: &chain.Effects{Status: chain.ExecutionStatus{Status: "failure", Error: "MoveAbort"}}},
		}
		tx.OnSubmit = nil
		Expect(rec.EnterEdit(ctx)).To(Succeed())

		res := rec.Commit(ctx)
		Expect(res.Outcome).To(Equal(Rejected))
		Expect(errors.Is(res.Err, chain.ErrTransactionFailed)).To(BeTrue())
		Expect(rec.Mode()).To(Equal(Editing))
	})

	It("requires a connected wallet", func() {
		tx.Wallet = ""
		Expect(rec.EnterEdit(ctx)).To(Succeed())
		res := rec.Commit(ctx)
		Expect(res.Outcome).To(Equal(Rejected))
		Expect(errors.Is(res.Err, chain.ErrWalletNotConnected)).To(BeTrue())
		Expect(rec.Mode()).To(Equal(Editing))
	})

	It("requires the bot NFT", func() {
		reader.Set("0xrole", chain.MoveObject("0xrole", map[string]any{"skills": []any{"0xA"}}))
		Expect(rec.Refresh(ctx)).To(Succeed())
		Expect(rec.EnterEdit(ctx)).To(Succeed())

		res := rec.Commit(ctx)
		Expect(errors.Is(res.Err, ErrMissingNFT)).To(BeTrue())
		Expect(tx.Submitted()).To(BeEmpty())
	})

	It("reports an uncertain outcome when finality cannot be awaited", func() {
		tx.WaitErr = errors.New("connection reset")
		Expect(rec.EnterEdit(ctx)).To(Succeed())
		Expect(rec.Toggle("0xC")).To(Succeed())

		res := rec.Commit(ctx)
		Expect(res.Outcome).To(Equal(Uncertain))
		Expect(errors.Is(res.Err, chain.ErrUncertainOutcome)).To(BeTrue())
		Expect(rec.Mode()).To(Equal(Submitting))
		Expect(rec.Current()).To(Equal([]string{"0xA", "0xB"}))
		Expect(tx.Submitted()).To(HaveLen(1))

		Expect(rec.Toggle("0xA")).To(MatchError(ErrNotEditing))
		Expect(rec.EnterEdit(ctx)).To(MatchError(ErrSubmitting))
		second := rec.Commit(ctx)
		Expect(second.Err).To(MatchError(ErrNotEditing))
		Expect(tx.Submitted()).To(HaveLen(1))

		Expect(rec.Refresh(ctx)).To(Succeed())
		Expect(rec.Mode()).To(Equal(Viewing))
		Expect(rec.Current()).To(Equal([]string{"0xA", "0xB", "0xC"}))
	})

	It("keeps a submission in flight when refreshed and restores the selection on rejection", func() {
		r := chain.NewReader(reader)
		stalling := &stallingExecutor{MockExecutor: tx, err: errors.New("rejected by wallet")}
		rec = NewReconciler("0xrole", NewCatalog(registry, r), r, stalling)
		load("0xA", "0xB")

		var (
			refreshErr error
			modeDuring Mode
		)
		stalling.during = func() {
			refreshErr = rec.Refresh(ctx)
			modeDuring = rec.Mode()
		}

		Expect(rec.EnterEdit(ctx)).To(Succeed())
		Expect(rec.Toggle("0xC")).To(Succeed())

		res := rec.Commit(ctx)
		Expect(refreshErr).NotTo(HaveOccurred())
		Expect(modeDuring).To(Equal(Submitting))
		Expect(res.Outcome).To(Equal(Rejected))
		Expect(rec.Mode()).To(Equal(Editing))
		Expect(rec.Pending()).To(Equal([]string{"0xA", "0xB", "0xC"}))
		Expect(rec.Current()).To(Equal([]string{"0xA", "0xB"}))
	})

	It("ignores skill reads that were cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		rec.Sync(cctx, &types.RoleData{ID: "0xrole", BotNFTID: "0xnft", Skills: []string{"0xC"}})
		Expect(rec.Current()).To(Equal([]string{"0xA", "0xB"}))
		Expect(ids(rec.Details())).To(Equal([]string{"0xA", "0xB"}))

		reader.Set("0xrole", roleWithSkills("0xrole", "0xC"))
		Expect(rec.Refresh(cctx)).To(HaveOccurred())
		Expect(rec.Current()).To(Equal([]string{"0xA", "0xB"}))
	})

	It("de-duplicates the combined list by object id", func() {
		load("0xA", "0xB", "0xA")
		Expect(rec.Current()).To(Equal([]string{"0xA", "0xB", "0xA"}))
		Expect(ids(rec.Details())).To(Equal([]string{"0xA", "0xB", "0xA"}))

		Expect(rec.EnterEdit(ctx)).To(Succeed())
		Expect(ids(rec.Combined())).To(Equal([]string{"0xA", "0xB", "0xC"}))
		Expect(rec.Pending()).To(Equal([]string{"0xA", "0xB"}))
		Expect(ids(rec.Selected())).To(Equal([]string{"0xA", "0xB"}))
		Expect(ids(rec.Available())).To(Equal([]string{"0xC"}))

		snap := rec.Snapshot()
		Expect(ids(snap.Skills)).To(Equal([]string{"0xA", "0xB"}))
		Expect(snap.Mode).To(Equal(Editing))
	})

	It("edits with an empty catalog when the registry is down", func() {
		registry.listErr = errors.New("offline")
		Expect(rec.EnterEdit(ctx)).To(Succeed())
		Expect(ids(rec.Available())).To(BeEmpty())
		Expect(ids(rec.Selected())).To(Equal([]string{"0xA", "0xB"}))
	})
})
