package embedded

import (
	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/core/token"
	"github.com/aggregion/agrio.contracts/vm/env"
)

// Token is the fungible token contract. Its rows are the ones the host token service
// reads, so balances moved here are visible to every other contract.
type Token struct {
	*BaseContract
	ledger *token.Ledger
}

func NewTokenContract(ctx env.CallContext, e env.Env) *Token {
	return &Token{
		BaseContract: &BaseContract{ctx: ctx, env: e},
		ledger:       token.NewLedger(env.NewMap(nil, e, ctx)),
	}
}

func (t *Token) Call(method string) error {
	switch method {
	case "create":
		return t.create()
	case "issue":
		return t.issue()
	case "retire":
		return t.retire()
	case "transfer":
		return t.transfer()
	default:
		return errUnknownMethod
	}
}

func (t *Token) checkSymbol(asset attachments.Asset) error {
	if asset.Amount == nil {
		return errBadArguments
	}
	if t.ledger.Stat() == nil {
		return token.ErrNotCreated
	}
	if asset.Symbol != t.ledger.Symbol() {
		return NewContractError("symbol precision mismatch", false)
	}
	return nil
}

func (t *Token) create() error {
	attach := attachments.ParseCreateTokenAttachment(t.action())
	if attach == nil {
		return parseError("create")
	}
	if err := t.requireAuth(t.self()); err != nil {
		return err
	}
	if attach.MaxSupply.Amount == nil || attach.MaxSupply.Symbol == "" {
		return NewContractError("invalid symbol name", false)
	}
	return t.ledger.Create(attach.Issuer, attach.MaxSupply.Amount, attach.MaxSupply.Symbol, attach.Precision)
}

func (t *Token) issue() error {
	attach := attachments.ParseIssueAttachment(t.action())
	if attach == nil {
		return parseError("issue")
	}
	if err := t.checkSymbol(attach.Quantity); err != nil {
		return err
	}
	return t.env.Issue(t.ctx, attach.To, attach.Quantity.Amount, attach.Memo)
}

func (t *Token) retire() error {
	attach := attachments.ParseRetireAttachment(t.action())
	if attach == nil {
		return parseError("retire")
	}
	if err := t.checkSymbol(attach.Quantity); err != nil {
		return err
	}
	stat := t.ledger.Stat()
	if err := t.requireAuth(stat.Issuer); err != nil {
		return err
	}
	return t.ledger.Retire(stat.Issuer, attach.Quantity.Amount)
}

func (t *Token) transfer() error {
	attach := attachments.ParseTransferAttachment(t.action())
	if attach == nil {
		return parseError("transfer")
	}
	if err := t.checkSymbol(attach.Quantity); err != nil {
		return err
	}
	if err := t.requireAuth(attach.From); err != nil {
		return err
	}
	return t.env.Transfer(t.ctx, attach.From, attach.To, attach.Quantity.Amount, attach.Memo)
}

