package chain

import (
	"context"
	"fmt"

	"github.com/anemonelab/agenthub/core/types"
)

// Reader combines object reads with the decoders of this package.
type Reader struct {
	objects ObjectReader
}

func NewReader(objects ObjectReader) *Reader {
	return &Reader{objects: objects}
}

// Role reads and decodes a role object. Both transport failures and
// malformed objects are returned as errors.
func (r *Reader) Role(ctx context.Context, id string) (*types.RoleData, error) {
	resp, err := r.objects.GetObject(ctx, id, ObjectOptions{ShowContent: true, ShowOwner: true})
	if err != nil {
		return nil, fmt.Errorf("get role %s: %w", id, err)
	}
	res := DecodeRole(id, resp)
	if !res.IsOk() {
		return nil, res.Err()
	}
	return &res.Value, nil
}

// Nft reads the NFT metadata. A transport failure is returned; a missing or
// oddly shaped object yields an empty record.
func (r *Reader) Nft(ctx context.Context, id string) (*types.NftData, error) {
	resp, err := r.objects.GetObject(ctx, id, ObjectOptions{ShowContent: true, ShowOwner: true, ShowDisplay: true})
	if err != nil {
		return nil, fmt.Errorf("get nft %s: %w", id, err)
	}
	nft := DecodeNft(resp)
	return &nft, nil
}

// Skill reads and decodes a skill object.
func (r *Reader) Skill(ctx context.Context, id string) (*types.Skill, error) {
	resp, err := r.objects.GetObject(ctx, id, ObjectOptions{ShowContent: true, ShowOwner: true})
	if err != nil {
		return nil, fmt.Errorf("get skill %s: %w", id, err)
	}
	res := DecodeSkill(id, resp)
	if !res.IsOk() {
		return nil, res.Err()
	}
	return &res.Value, nil
}

// Confirm waits for a submitted transaction. A wait failure is reported as
// ErrUncertainOutcome; a transaction that executed with a failure status as
// ErrTransactionFailed.
func Confirm(ctx context.Context, tx TxExecutor, digest string) (*TransactionBlock, error) {
	block, err := tx.WaitForTransaction(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUncertainOutcome, digest, err)
	}
	if block == nil {
		return nil, fmt.Errorf("%w: %s: empty response", ErrUncertainOutcome, digest)
	}
	if !block.Succeeded() {
		return block, fmt.Errorf("%w: %s: %s", ErrTransactionFailed, digest, block.Effects.Status.Error)
	}
	return block, nil
}
