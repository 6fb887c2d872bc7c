package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/anemonelab/agenthub/core/agent"
	"github.com/anemonelab/agenthub/core/chain"
	"github.com/anemonelab/agenthub/core/skills"
	"github.com/anemonelab/agenthub/core/state"
	"github.com/anemonelab/agenthub/pkg/client"
	"github.com/anemonelab/agenthub/pkg/sui"
	"github.com/anemonelab/agenthub/webui"
	"github.com/mudler/xlog"
)

var backendURL = os.Getenv("AGENTHUB_BACKEND_URL")
var backendAPIKey = os.Getenv("AGENTHUB_BACKEND_API_KEY")
var rpcURL = os.Getenv("AGENTHUB_SUI_RPC_URL")
var keystoreKey = os.Getenv("AGENTHUB_KEYSTORE_KEY")
var rolePackage = os.Getenv("AGENTHUB_ROLE_PACKAGE")
var skillPackage = os.Getenv("AGENTHUB_SKILL_PACKAGE")
var apiKeysEnv = os.Getenv("AGENTHUB_API_KEYS")
var timeout = os.Getenv("AGENTHUB_TIMEOUT")
var rpcRate = os.Getenv("AGENTHUB_RPC_RATE")
var listen = os.Getenv("AGENTHUB_LISTEN")
var conversationDuration = os.Getenv("AGENTHUB_CONVERSATION_DURATION")
var settleDelay = os.Getenv("AGENTHUB_CVM_SETTLE_DELAY")

func init() {
	if backendURL == "" {
		panic("AGENTHUB_BACKEND_URL not set")
	}
	if rpcURL == "" {
		panic("AGENTHUB_SUI_RPC_URL not set")
	}
	if timeout == "" {
		timeout = "2m"
	}
	if rpcRate == "" {
		rpcRate = "10"
	}
	if listen == "" {
		listen = ":3000"
	}
}

func main() {
	requestTimeout, err := time.ParseDuration(timeout)
	if err != nil {
		panic(err)
	}
	rate, err := strconv.ParseFloat(rpcRate, 64)
	if err != nil {
		panic(err)
	}
	var settle time.Duration
	if settleDelay != "" {
		if settle, err = time.ParseDuration(settleDelay); err != nil {
			panic(err)
		}
	}

	apiKeys := []string{}
	if apiKeysEnv != "" {
		apiKeys = strings.Split(apiKeysEnv, ",")
	}

	backend := client.NewClient(backendURL, backendAPIKey, requestTimeout)
	node := sui.NewClient(rpcURL, rate, requestTimeout)

	var key *sui.Keypair
	if keystoreKey != "" {
		if key, err = sui.ParseKeystoreKey(keystoreKey); err != nil {
			panic(err)
		}
	}
	wallet := sui.NewWallet(node, key, sui.WalletConfig{
		RolePackage:  rolePackage,
		SkillPackage: skillPackage,
	})
	if wallet.Address() == "" {
		xlog.Warn("No keystore key configured, the dashboard is read only")
	} else {
		xlog.Info("Wallet connected", "address", wallet.Address())
	}

	reader := chain.NewReader(node)
	aggregator := agent.NewAggregator(reader, backend)
	catalog := skills.NewCatalog(backend, reader)

	pool := state.NewSessionPool(state.PoolOptions{
		Loader:      aggregator,
		Roles:       reader,
		Catalog:     catalog,
		Tx:          wallet,
		Cvm:         backend,
		SettleDelay: settle,
	})

	app := webui.NewApp(
		webui.WithPool(pool),
		webui.WithAgents(aggregator),
		webui.WithCatalog(catalog),
		webui.WithPublisher(skills.NewPublisher(backend, wallet)),
		webui.WithMinter(agent.NewMinter(backend, wallet)),
		webui.WithChat(backend),
		webui.WithConversationStoreduration(conversationDuration),
		webui.WithApiKeys(apiKeys...),
		webui.WithRequestTimeout(requestTimeout),
	)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		xlog.Info("Shutting down")
		pool.StopAll()
		if err := app.Shutdown(); err != nil {
			xlog.Error("Shutdown failed", "error", err)
		}
	}()

	xlog.Info("Listening", "address", listen)
	if err := app.Listen(listen); err != nil {
		log.Fatal(err)
	}
}
