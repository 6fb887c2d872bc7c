package agent_test

import (
	"errors"

	. "github.com/anemonelab/agenthub/core/agent"
	"github.com/anemonelab/agenthub/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func detailOwnedBy(roleID, owner string) *types.AgentDetail {
	return &types.AgentDetail{
		Agent: types.Agent{RoleID: roleID},
		Nft:   &types.NftData{Owner: owner},
	}
}

var _ = Describe("View", func() {
	var v View

	BeforeEach(func() {
		v = Reduce(View{}, WalletChanged{Address: wallet})
		v = Reduce(v, LoadStarted{RoleID: "0xrole", Token: 1})
	})

	It("starts idle", func() {
		Expect(View{}.State).To(Equal(Idle))
		Expect(Idle.String()).To(Equal("idle"))
	})

	It("becomes ready with a fresh owner flag", func() {
		v = Reduce(v, LoadSucceeded{Token: 1, Detail: detailOwnedBy("0xrole", wallet)})
		Expect(v.State).To(Equal(Ready))
		Expect(v.Detail.IsOwner).To(BeTrue())
	})

	It("marks degraded details", func() {
		d := detailOwnedBy("0xrole", "")
		d.Degraded = true
		v = Reduce(v, LoadSucceeded{Token: 1, Detail: d})
		Expect(v.State).To(Equal(Degraded))
	})

	It("discards results of a superseded load", func() {
		v = Reduce(v, LoadStarted{RoleID: "0xother", Token: 2})
		v = Reduce(v, LoadSucceeded{Token: 1, Detail: detailOwnedBy("0xrole", wallet)})
		Expect(v.State).To(Equal(Loading))
		Expect(v.Detail).To(BeNil())

		v = Reduce(v, LoadFailed{Token: 1, Err: errors.New("late")})
		Expect(v.State).To(Equal(Loading))
		Expect(v.Err).NotTo(HaveOccurred())
	})

	It("keeps the previous detail when a reload fails", func() {
		v = Reduce(v, LoadSucceeded{Token: 1, Detail: detailOwnedBy("0xrole", wallet)})
		v = Reduce(v, LoadStarted{RoleID: "0xrole", Token: 2})
		Expect(v.Detail).NotTo(BeNil())

		v = Reduce(v, LoadFailed{Token: 2, Err: errors.New("rpc down")})
		Expect(v.State).To(Equal(Error))
		Expect(v.ErrorMessage()).To(Equal("rpc down"))
		Expect(v.Detail.RoleID).To(Equal("0xrole"))
	})

	It("never carries a detail across role ids", func() {
		v = Reduce(v, LoadSucceeded{Token: 1, Detail: detailOwnedBy("0xrole", wallet)})
		v = Reduce(v, LoadStarted{RoleID: "0xother", Token: 2})
		Expect(v.Detail).To(BeNil())
	})

	It("recomputes ownership when the wallet changes", func() {
		original := detailOwnedBy("0xrole", wallet)
		v = Reduce(v, LoadSucceeded{Token: 1, Detail: original})
		Expect(v.Detail.IsOwner).To(BeTrue())

		v = Reduce(v, WalletChanged{Address: "0xsomeone"})
		Expect(v.Detail.IsOwner).To(BeFalse())

		v = Reduce(v, WalletChanged{Address: ""})
		Expect(v.Detail.IsOwner).To(BeFalse())
		Expect(original.IsOwner).To(BeTrue())
	})
})
