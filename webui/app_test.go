package webui_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/anemonelab/agenthub/core/agent"
	"github.com/anemonelab/agenthub/core/chain"
	"github.com/anemonelab/agenthub/core/skills"
	"github.com/anemonelab/agenthub/core/state"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/client"
	. "github.com/anemonelab/agenthub/webui"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	roleID = "0xrole"
	wallet = "0xwallet"
)

func roleObject(skillIDs ...string) *chain.ObjectResponse {
	list := make([]any, 0, len(skillIDs))
	for _, id := range skillIDs {
		list = append(list, id)
	}
	return chain.MoveObject(roleID, map[string]any{
		"bot_nft_id": "0xnft",
		"balance":    map[string]any{"value": "2500000000"},
		"health":     "50000000000",
		"is_active":  true,
		"skills":     list,
		"app_id":     "app-1",
	})
}

var _ = Describe("WebUI", func() {
	var (
		backend *fakeBackend
		objects *chain.MockReader
		tx      *chain.MockExecutor
		pool    *state.SessionPool
		app     *App
	)

	do := func(method, path, body string) *http.Response {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := app.Test(req, -1)
		Expect(err).ToNot(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response) map[string]any {
		defer resp.Body.Close()
		out := map[string]any{}
		Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
		return out
	}

	text := func(resp *http.Response) string {
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		Expect(err).ToNot(HaveOccurred())
		return string(b)
	}

	BeforeEach(func() {
		backend = &fakeBackend{
			agents: []types.Agent{
				{ID: "1", RoleID: roleID, NftID: "0xnft", Name: "indexed bot", CreatedAt: "2025-01-01T00:00:00Z"},
				{ID: "2", RoleID: "0xrole2", NftID: "0xnft2", Name: "other bot"},
			},
			skills: []types.Skill{{ObjectID: "0xs1"}, {ObjectID: "0xs2"}},
			stats:  &types.CvmStatsResponse{},
		}

		objects = chain.NewMockReader()
		objects.Set(roleID, roleObject("0xs1"))
		objects.Set("0xnft", chain.OwnedBy(chain.MoveObject("0xnft", map[string]any{"name": "bot", "url": "https://img/bot.png"}), wallet))
		objects.Set("0xnft2", chain.OwnedBy(chain.MoveObject("0xnft2", map[string]any{"name": "other"}), "0xsomeoneelse"))
		objects.Set("0xs1", chain.MoveObject("0xs1", map[string]any{"name": "search", "fee": "10000000", "is_enabled": true}))
		objects.Set("0xs2", chain.MoveObject("0xs2", map[string]any{"name": "translate", "fee": "20000000"}))

		tx = &chain.MockExecutor{Wallet: wallet}
		reader := chain.NewReader(objects)
		aggregator := agent.NewAggregator(reader, backend)
		catalog := skills.NewCatalog(backend, reader)

		pool = state.NewSessionPool(state.PoolOptions{
			Loader:          aggregator,
			Roles:           reader,
			Catalog:         catalog,
			Tx:              tx,
			Cvm:             backend,
			SettleDelay:     time.Millisecond,
			BalanceInterval: 10 * time.Millisecond,
		})

		app = NewApp(
			WithPool(pool),
			WithAgents(aggregator),
			WithCatalog(catalog),
			WithPublisher(skills.NewPublisher(backend, tx)),
			WithMinter(agent.NewMinter(backend, tx)),
			WithChat(backend),
			WithRequestTimeout(5*time.Second),
		)
	})

	AfterEach(func() {
		pool.StopAll()
	})

	Describe("agents API", func() {
		It("lists the agent hub with ownership", func() {
			out := decode(do("GET", "/api/agents", ""))
			Expect(out["count"]).To(BeEquivalentTo(2))
			Expect(out["wallet"]).To(Equal(wallet))

			mine := decode(do("GET", "/api/agents?mine=true", ""))
			Expect(mine["count"]).To(BeEquivalentTo(1))
			agents := mine["agents"].([]any)
			Expect(agents[0].(map[string]any)["role_id"]).To(Equal(roleID))
			Expect(agents[0].(map[string]any)["is_owner"]).To(BeTrue())
		})

		It("maps backend failures to bad gateway", func() {
			backend.listErr = &client.APIError{StatusCode: 500, Message: "boom"}
			resp := do("GET", "/api/agents", "")
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
			Expect(decode(resp)["error"]).To(ContainSubstring("boom"))
		})

		It("loads an agent view", func() {
			resp := do("GET", "/api/agent/"+roleID, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			out := decode(resp)
			Expect(out["state"]).To(Equal("ready"))
			Expect(out["balance"]).To(Equal("2.500"))
			Expect(out["health"]).To(BeEquivalentTo(50))
			detail := out["detail"].(map[string]any)
			Expect(detail["name"]).To(Equal("indexed bot"))
			Expect(detail["is_owner"]).To(BeTrue())
		})

		It("answers 404 for an unknown role and forgets the session", func() {
			resp := do("GET", "/api/agent/0xmissing", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(pool.Lookup("0xmissing")).To(BeNil())
		})

		It("rejects malformed deposit amounts", func() {
			resp := do("POST", "/api/agent/"+roleID+"/deposit", `{"amount":"1.2.3"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(tx.Submitted()).To(BeEmpty())
		})

		It("deposits and withdraws", func() {
			resp := do("POST", "/api/agent/"+roleID+"/deposit", `{"amount":"1.5"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(decode(resp)["digest"]).ToNot(BeEmpty())

			resp = do("POST", "/api/agent/"+roleID+"/withdraw", `{"amount":"0.5"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			calls := tx.Submitted()
			Expect(calls).To(HaveLen(2))
			Expect(calls[0].Method).To(Equal("deposit_sui"))
			Expect(calls[0].Amount).To(BeEquivalentTo(1_500_000_000))
			Expect(calls[1].Method).To(Equal("withdraw_sui_with_nft"))
			Expect(calls[1].NftID).To(Equal("0xnft"))
		})

		It("surfaces a disconnected wallet as a conflict", func() {
			tx.Wallet = ""
			resp := do("POST", "/api/agent/"+roleID+"/deposit", `{"amount":"1"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})

		It("mints an agent", func() {
			tx.Blocks = map[string]*chain.TransactionBlock{
				"digest-1": {
					Digest:  "digest-1",
					Effects: &chain.Effects{Status: chain.ExecutionStatus{Status: "success"}},
					ObjectChanges: []chain.ObjectChange{
						{Type: "created", ObjectType: "0xpkg::bot_nft::BotNFT", ObjectID: "0xnewnft"},
						{Type: "created", ObjectType: "0xpkg::role_manager::Role", ObjectID: "0xnewrole"},
					},
				},
			}
			resp := do("POST", "/api/agent/mint", `{"name":"bot","description":"a bot","image_url":"https://img"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			out := decode(resp)
			Expect(out["result"].(map[string]any)["role_id"]).To(Equal("0xnewrole"))
			Expect(tx.Submitted()[0].Method).To(Equal("create_role"))
			Expect(backend.mappings).To(HaveLen(1))
			Expect(backend.mappings[0].RoleID).To(Equal("0xnewrole"))
		})

		It("rejects an incomplete mint", func() {
			resp := do("POST", "/api/agent/mint", `{"name":"bot"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(tx.Submitted()).To(BeEmpty())
		})
	})

	Describe("skills API", func() {
		It("walks the edit cycle and commits", func() {
			tx.OnSubmit = func(call chain.Call) {
				if call.Method == "update_skills" {
					objects.Set(roleID, roleObject(call.Skills...))
				}
			}

			out := decode(do("GET", "/api/agent/"+roleID+"/skills", ""))
			Expect(out["mode"]).To(Equal("viewing"))
			Expect(out["current"]).To(ConsistOf("0xs1"))

			out = decode(do("POST", "/api/agent/"+roleID+"/skills/edit", ""))
			Expect(out["mode"]).To(Equal("editing"))

			out = decode(do("POST", "/api/agent/"+roleID+"/skills/toggle", `{"skill_id":"0xs2"}`))
			Expect(out["pending"]).To(ConsistOf("0xs1", "0xs2"))

			resp := do("POST", "/api/agent/"+roleID+"/skills/commit", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			out = decode(resp)
			Expect(out["outcome"]).To(Equal("committed"))
			Expect(out["skills"].(map[string]any)["current"]).To(ConsistOf("0xs1", "0xs2"))
		})

		It("refuses to toggle outside editing", func() {
			resp := do("POST", "/api/agent/"+roleID+"/skills/toggle", `{"skill_id":"0xs2"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})

		It("reports an uncertain commit as accepted", func() {
			tx.WaitErr = errors.New("node unreachable")
			do("POST", "/api/agent/"+roleID+"/skills/edit", "")

			resp := do("POST", "/api/agent/"+roleID+"/skills/commit", "")
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
			out := decode(resp)
			Expect(out["outcome"]).To(Equal("uncertain"))
			Expect(out["skills"].(map[string]any)["mode"]).To(Equal("submitting"))
		})

		It("lists the catalog joined with chain data", func() {
			out := decode(do("GET", "/api/skills", ""))
			Expect(out["count"]).To(BeEquivalentTo(2))
			first := out["skills"].([]any)[0].(map[string]any)
			Expect(first["name"]).To(Equal("search"))
		})

		It("answers 404 for an unknown skill", func() {
			resp := do("GET", "/api/skill/0xnope", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("unregisters a skill", func() {
			resp := do("DELETE", "/api/skill/0xs2", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(backend.deleted).To(Equal([]string{"0xs2"}))
		})
	})

	Describe("CVM API", func() {
		It("serves a section lazily", func() {
			resp := do("GET", "/api/agent/"+roleID+"/cvm/stats", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(decode(resp)["section"]).To(Equal("stats"))
		})

		It("rejects unknown sections", func() {
			resp := do("GET", "/api/agent/"+roleID+"/cvm/logs", "")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("starts the CVM for the owner", func() {
			resp := do("POST", "/api/agent/"+roleID+"/cvm/start", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(backend.started).To(Equal([]string{"app-1"}))
		})

		It("forbids control to other wallets", func() {
			tx.Wallet = "0xstranger"
			resp := do("POST", "/api/agent/"+roleID+"/cvm/start", "")
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
			Expect(backend.started).To(BeEmpty())
		})
	})

	Describe("chat", func() {
		It("relays messages and keeps the transcript", func() {
			out := decode(do("POST", "/api/chat/"+roleID, `{"message":"hello"}`))
			Expect(out["reply"].(map[string]any)["content"]).To(Equal("echo hello"))

			out = decode(do("GET", "/api/chat/"+roleID, ""))
			Expect(out["conversation"]).To(HaveLen(2))
			Expect(backend.messages).To(Equal([]string{roleID + ":hello"}))
		})

		It("rejects empty messages", func() {
			resp := do("POST", "/api/chat/"+roleID, `{"message":"  "}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(backend.messages).To(BeEmpty())
		})

		It("records relay failures in the transcript", func() {
			backend.chatErr = &client.APIError{StatusCode: 503, Message: "agent offline"}
			resp := do("POST", "/api/chat/"+roleID, `{"message":"hello"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))

			out := decode(do("GET", "/api/chat/"+roleID, ""))
			conv := out["conversation"].([]any)
			Expect(conv).To(HaveLen(2))
			Expect(conv[1].(map[string]any)["error"]).To(BeTrue())
		})

		It("renders the chat fragment", func() {
			body := text(do("POST", "/agent/"+roleID+"/chat", `{"message":"hi"}`))
			Expect(body).To(ContainSubstring("hi"))
			Expect(body).To(ContainSubstring("echo hi"))
		})
	})

	Describe("meta", func() {
		It("describes the skill form", func() {
			out := decode(do("GET", "/api/meta/skill", ""))
			Expect(out["fields"]).To(HaveLen(10))
		})
	})

	Describe("pages", func() {
		It("renders the hub", func() {
			resp := do("GET", "/", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(text(resp)).To(ContainSubstring("other"))
		})

		It("renders an agent", func() {
			resp := do("GET", "/agent/"+roleID, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body := text(resp)
			Expect(body).To(ContainSubstring("2.5"))
			Expect(body).To(ContainSubstring("search"))
		})

		It("renders the catalog with the publish form", func() {
			resp := do("GET", "/skills", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body := text(resp)
			Expect(body).To(ContainSubstring("translate"))
			Expect(body).To(ContainSubstring(`name="endpoint"`))
		})

		It("renders an error page for unknown roles", func() {
			resp := do("GET", "/agent/0xmissing", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("API keys", func() {
		It("rejects requests without a key", func() {
			secured := NewApp(WithPool(pool), WithAgents(agent.NewAggregator(chain.NewReader(objects), backend)), WithApiKeys("secret"))
			req := httptest.NewRequest("GET", "/api/agents", nil)
			resp, err := secured.Test(req, -1)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

			req = httptest.NewRequest("GET", "/api/agents", nil)
			req.Header.Set("Authorization", "Bearer secret")
			resp, err = secured.Test(req, -1)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})
