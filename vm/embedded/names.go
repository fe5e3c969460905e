package embedded

import (
	"math/big"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/deferredtx"
)

func (s *System) auctionClosed(bid *NameBid) bool {
	return s.now() >= bid.LastBidTime+s.conf.NameBidCountdownSec
}

func (s *System) bidname() error {
	attach := attachments.ParseBidNameAttachment(s.action())
	if attach == nil {
		return parseError("bidname")
	}
	bidder, newName := attach.Bidder, attach.NewName
	if err := s.requireAuth(bidder); err != nil {
		return err
	}
	if newName.Suffix() != newName {
		return NewContractError("you can only bid on top-level suffix", false)
	}
	if newName.IsEmpty() {
		return NewContractError("the empty name is not a valid account name to bid on", false)
	}
	if newName.HasThirteenthChar() {
		return NewContractError("13 character names are not valid account names to bid on", false)
	}
	if newName.IsFullLength() {
		return NewContractError("accounts with 12 character names and no dots can be created without bidding required", false)
	}
	if s.env.IsAccount(newName) {
		return NewContractError("account already exists", false)
	}
	if err := s.checkAsset(attach.Bid); err != nil {
		return err
	}
	amount := attach.Bid.Amount
	if amount.Sign() <= 0 {
		return NewContractError("insufficient bid", false)
	}
	if err := s.env.Transfer(s.ctx, bidder, NamesAccount, amount, "bid name "+newName.String()); err != nil {
		return err
	}

	current := s.getNameBid(newName)
	if current == nil {
		setRow(s.namebids, newName.Bytes(), &NameBid{
			NewName:     newName,
			HighBidder:  bidder,
			HighBid:     new(big.Int).Set(amount),
			LastBidTime: s.now(),
		})
		return nil
	}
	if s.auctionClosed(current) {
		return NewContractError("this auction has already closed", false)
	}
	increment := new(big.Int).Sub(amount, current.HighBid)
	increment.Mul(increment, big.NewInt(100))
	required := new(big.Int).Mul(current.HighBid, big.NewInt(s.conf.MinBidIncrementPercent))
	if increment.Cmp(required) < 0 {
		return NewContractError("must increase bid by "+big.NewInt(s.conf.MinBidIncrementPercent).String()+"%", false)
	}
	if current.HighBidder == bidder {
		return NewContractError("account is already highest bidder", false)
	}

	prior := current.HighBidder
	refund := s.getBidRefund(newName, prior)
	if refund == nil {
		refund = &BidRefund{Bidder: prior, NewName: newName, Amount: new(big.Int)}
	}
	refund.Amount.Add(refund.Amount, current.HighBid)
	setRow(s.bidrefunds, bidRefundKey(newName, prior), refund)

	id := deferredtx.ID(newName, prior)
	s.env.CancelDeferred(s.ctx, s.self(), id)
	action := s.deferredAction("bidrefund", attachments.CreateBidRefundAttachment(prior, newName), s.self())
	s.env.ScheduleDeferred(s.ctx, s.self(), id, 0, action)

	current.HighBidder = bidder
	current.HighBid = new(big.Int).Set(amount)
	current.LastBidTime = s.now()
	setRow(s.namebids, newName.Bytes(), current)
	return nil
}

func (s *System) bidrefund() error {
	attach := attachments.ParseBidRefundAttachment(s.action())
	if attach == nil {
		return parseError("bidrefund")
	}
	refund := s.getBidRefund(attach.NewName, attach.Bidder)
	if refund == nil {
		return NewContractError("refund not found", false)
	}
	if err := s.env.Transfer(s.ctx, NamesAccount, attach.Bidder, refund.Amount, "refund bid on name "+attach.NewName.String()); err != nil {
		return err
	}
	s.bidrefunds.Remove(bidRefundKey(attach.NewName, attach.Bidder))
	return nil
}

// claimName lets the winner of a closed auction create the account.
func (s *System) claimName(creator, name common.Name) error {
	bid := s.getNameBid(name)
	if bid == nil {
		return NewContractError("no active bid for name", false)
	}
	if bid.HighBidder != creator {
		return NewContractError("only highest bidder can claim", false)
	}
	if !s.auctionClosed(bid) {
		return NewContractError("auction for name is not closed yet", false)
	}
	s.namebids.Remove(name.Bytes())
	s.getGlobal().LastNameClose = s.now()
	return nil
}
