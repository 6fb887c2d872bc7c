package sui

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/anemonelab/agenthub/core/chain"
	"github.com/mudler/xlog"
)

var (
	ErrPackageNotConfigured = errors.New("move package not configured")
	ErrInsufficientBalance  = errors.New("no coin with enough balance")
	ErrExecutionFailed      = errors.New("transaction execution failed")
)

// DefaultGasBudget is used when WalletConfig.GasBudget is zero.
const DefaultGasBudget uint64 = 50_000_000

const (
	roleModule  = "role_manager"
	skillModule = "skill_manager"
	coinType    = "::coin::Coin<"
)

type WalletConfig struct {
	RolePackage  string
	SkillPackage string
	GasBudget    uint64
}

// Wallet signs with a local keystore key and builds transactions through the
// node. A wallet without a key is disconnected.
type Wallet struct {
	client *Client
	key    *Keypair
	cfg    WalletConfig
}

var _ chain.TxExecutor = (*Wallet)(nil)

func NewWallet(client *Client, key *Keypair, cfg WalletConfig) *Wallet {
	if cfg.GasBudget == 0 {
		cfg.GasBudget = DefaultGasBudget
	}
	return &Wallet{client: client, key: key, cfg: cfg}
}

func (w *Wallet) Address() string {
	if w.key == nil {
		return ""
	}
	return w.key.Address()
}

func (w *Wallet) signAndExecute(ctx context.Context, tb *TransactionBytes) (*chain.TransactionBlock, error) {
	sig, err := w.key.SignTransaction(tb.TxBytes)
	if err != nil {
		return nil, err
	}
	tx, err := w.client.Execute(ctx, tb.TxBytes, []string{sig})
	if err != nil {
		return nil, err
	}
	if !tx.Succeeded() {
		return tx, fmt.Errorf("%w: %s: %s", ErrExecutionFailed, tx.Digest, tx.Effects.Status.Error)
	}
	return tx, nil
}

func (w *Wallet) call(ctx context.Context, pkg, module, function string, args ...any) (*chain.TransactionBlock, error) {
	if w.key == nil {
		return nil, chain.ErrWalletNotConnected
	}
	if pkg == "" {
		return nil, fmt.Errorf("%s::%s: %w", module, function, ErrPackageNotConfigured)
	}
	tb, err := w.client.BuildMoveCall(ctx, w.Address(), MoveCall{
		Package:   pkg,
		Module:    module,
		Function:  function,
		Arguments: args,
	}, w.cfg.GasBudget)
	if err != nil {
		return nil, err
	}
	tx, err := w.signAndExecute(ctx, tb)
	if err != nil {
		return nil, fmt.Errorf("%s::%s: %w", module, function, err)
	}
	xlog.Debug("Move call executed", "function", module+"::"+function, "digest", tx.Digest)
	return tx, nil
}

// largestCoin returns the richest SUI coin if it can cover need plus gas.
func (w *Wallet) largestCoin(ctx context.Context, need uint64) (string, error) {
	coins, err := w.client.GetCoins(ctx, w.Address())
	if err != nil {
		return "", err
	}
	var source string
	var best uint64
	for _, c := range coins {
		bal, err := strconv.ParseUint(c.Balance, 10, 64)
		if err != nil {
			continue
		}
		if bal > best {
			best, source = bal, c.CoinObjectID
		}
	}
	if source == "" || best < need+w.cfg.GasBudget {
		return "", fmt.Errorf("%w: need %d MIST", ErrInsufficientBalance, need)
	}
	return source, nil
}

// splitSui produces a coin object holding exactly amount MIST.
func (w *Wallet) splitSui(ctx context.Context, amount uint64) (string, error) {
	source, err := w.largestCoin(ctx, amount)
	if err != nil {
		return "", err
	}

	tb, err := w.client.BuildSplitCoin(ctx, w.Address(), source, []uint64{amount}, w.cfg.GasBudget)
	if err != nil {
		return "", err
	}
	tx, err := w.signAndExecute(ctx, tb)
	if err != nil {
		return "", fmt.Errorf("split coin: %w", err)
	}
	id := chain.FindCreated(tx, coinType)
	if id == "" {
		return "", fmt.Errorf("split coin %s: no coin created", tx.Digest)
	}
	return id, nil
}

func (w *Wallet) UpdateSkills(ctx context.Context, roleID, nftID string, skills []string) (string, error) {
	if skills == nil {
		skills = []string{}
	}
	tx, err := w.call(ctx, w.cfg.RolePackage, roleModule, "update_skills", roleID, nftID, skills)
	if err != nil {
		return "", err
	}
	return tx.Digest, nil
}

func (w *Wallet) DepositSui(ctx context.Context, roleID string, amount uint64) (string, error) {
	if w.key == nil {
		return "", chain.ErrWalletNotConnected
	}
	coin, err := w.splitSui(ctx, amount)
	if err != nil {
		return "", err
	}
	tx, err := w.call(ctx, w.cfg.RolePackage, roleModule, "deposit_sui", roleID, coin)
	if err != nil {
		return "", err
	}
	return tx.Digest, nil
}

func (w *Wallet) WithdrawSui(ctx context.Context, roleID, nftID string, amount uint64) (string, error) {
	tx, err := w.call(ctx, w.cfg.RolePackage, roleModule, "withdraw_sui_with_nft", roleID, nftID, u64(amount))
	if err != nil {
		return "", err
	}
	return tx.Digest, nil
}

// CreateRole creates the role and its bot NFT funded with InitialBalance.
// When Transfer is set, a second transaction sends it to the bot address for
// gas; its failure does not fail the role creation.
func (w *Wallet) CreateRole(ctx context.Context, p chain.RoleParams) (string, error) {
	if w.key == nil {
		return "", chain.ErrWalletNotConnected
	}
	coin, err := w.splitSui(ctx, p.InitialBalance)
	if err != nil {
		return "", err
	}
	tx, err := w.call(ctx, w.cfg.RolePackage, roleModule, "create_role",
		p.BotAddress, p.Name, p.Description, p.ImageURL, p.AppID, coin)
	if err != nil {
		return "", err
	}

	if p.Transfer > 0 {
		if err := w.transfer(ctx, p.BotAddress, p.Transfer); err != nil {
			xlog.Warn("Could not fund bot address", "address", p.BotAddress, "error", err)
		}
	}
	return tx.Digest, nil
}

func (w *Wallet) transfer(ctx context.Context, recipient string, amount uint64) error {
	coin, err := w.largestCoin(ctx, amount)
	if err != nil {
		return err
	}
	tb, err := w.client.BuildTransferSui(ctx, w.Address(), coin, w.cfg.GasBudget, recipient, amount)
	if err != nil {
		return err
	}
	_, err = w.signAndExecute(ctx, tb)
	return err
}

func (w *Wallet) CreateSkill(ctx context.Context, p chain.SkillParams) (string, error) {
	tx, err := w.call(ctx, w.cfg.SkillPackage, skillModule, "create_skill",
		p.Name, p.Description, p.Endpoint, p.Doc, p.GithubRepo, p.DockerImage,
		p.Quote, p.LogURL, p.PublicKey, u64(p.Fee))
	if err != nil {
		return "", err
	}
	return tx.Digest, nil
}

func (w *Wallet) WaitForTransaction(ctx context.Context, digest string) (*chain.TransactionBlock, error) {
	return w.client.WaitForTransaction(ctx, digest)
}
