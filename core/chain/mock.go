package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockReader is an in-memory ObjectReader.
type MockReader struct {
	mu      sync.Mutex
	Objects map[string]*ObjectResponse
	Errors  map[string]error
	Calls   []string
}

func NewMockReader() *MockReader {
	return &MockReader{
		Objects: map[string]*ObjectResponse{},
		Errors:  map[string]error{},
	}
}

func (m *MockReader) Set(id string, resp *ObjectResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[id] = resp
}

func (m *MockReader) Fail(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[id] = err
}

func (m *MockReader) GetObject(ctx context.Context, id string, opts ObjectOptions) (*ObjectResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, id)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errors[id]; ok {
		return nil, err
	}
	if resp, ok := m.Objects[id]; ok {
		return resp, nil
	}
	return &ObjectResponse{}, nil
}

// MoveObject builds a move object response with the given fields.
func MoveObject(id string, fields map[string]any) *ObjectResponse {
	return &ObjectResponse{Data: &ObjectData{
		ObjectID: id,
		Content:  &MoveContent{DataType: "moveObject", Fields: fields},
	}}
}

// OwnedBy marks resp as owned by address.
func OwnedBy(resp *ObjectResponse, address string) *ObjectResponse {
	resp.Data.Owner = json.RawMessage(fmt.Sprintf(`{"AddressOwner":%q}`, address))
	return resp
}

// MockExecutor records submitted transactions.
type MockExecutor struct {
	mu sync.Mutex

	Wallet    string
	SubmitErr error
	WaitErr   error
	// OnSubmit runs for every accepted submission, before the digest is
	// returned. Tests use it to mutate a MockReader as the chain would.
	OnSubmit func(call Call)
	// Blocks are returned by WaitForTransaction keyed by digest.
	Blocks map[string]*TransactionBlock

	Calls []Call
	seq   int
}

// Call is one recorded submission.
type Call struct {
	Method string
	RoleID string
	NftID  string
	Skills []string
	Amount uint64
	Role   RoleParams
	Skill  SkillParams
	Digest string
}

func (m *MockExecutor) Address() string { return m.Wallet }

func (m *MockExecutor) submit(ctx context.Context, c Call) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	if m.Wallet == "" {
		m.mu.Unlock()
		return "", ErrWalletNotConnected
	}
	if m.SubmitErr != nil {
		err := m.SubmitErr
		m.mu.Unlock()
		return "", err
	}
	m.seq++
	c.Digest = fmt.Sprintf("digest-%d", m.seq)
	m.Calls = append(m.Calls, c)
	hook := m.OnSubmit
	m.mu.Unlock()

	if hook != nil {
		hook(c)
	}
	return c.Digest, nil
}

func (m *MockExecutor) UpdateSkills(ctx context.Context, roleID, nftID string, skills []string) (string, error) {
	return m.submit(ctx, Call{Method: "update_skills", RoleID: roleID, NftID: nftID, Skills: append([]string(nil), skills...)})
}

func (m *MockExecutor) DepositSui(ctx context.Context, roleID string, amount uint64) (string, error) {
	return m.submit(ctx, Call{Method: "deposit_sui", RoleID: roleID, Amount: amount})
}

func (m *MockExecutor) WithdrawSui(ctx context.Context, roleID, nftID string, amount uint64) (string, error) {
	return m.submit(ctx, Call{Method: "withdraw_sui_with_nft", RoleID: roleID, NftID: nftID, Amount: amount})
}

func (m *MockExecutor) CreateRole(ctx context.Context, p RoleParams) (string, error) {
	return m.submit(ctx, Call{Method: "create_role", Role: p})
}

func (m *MockExecutor) CreateSkill(ctx context.Context, p SkillParams) (string, error) {
	return m.submit(ctx, Call{Method: "create_skill", Skill: p})
}

func (m *MockExecutor) WaitForTransaction(ctx context.Context, digest string) (*TransactionBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WaitErr != nil {
		return nil, m.WaitErr
	}
	if b, ok := m.Blocks[digest]; ok {
		return b, nil
	}
	return &TransactionBlock{Digest: digest, Effects: &Effects{Status: ExecutionStatus{Status: "success"}}}, nil
}

// Submitted returns a copy of the recorded calls.
func (m *MockExecutor) Submitted() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.Calls...)
}
