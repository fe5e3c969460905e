package attachments

import (
	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
)

type PermissionLevel struct {
	Actor      common.Name
	Permission common.Name
}

type KeyWeight struct {
	Key    string
	Weight uint16
}

type PermissionLevelWeight struct {
	Permission PermissionLevel
	Weight     uint16
}

type WaitWeight struct {
	WaitSec uint32
	Weight  uint16
}

type Authority struct {
	Threshold uint32
	Keys      []KeyWeight
	Accounts  []PermissionLevelWeight
	Waits     []WaitWeight
}

type NewAccountAttachment struct {
	Creator common.Name
	Name    common.Name
	Owner   Authority
	Active  Authority
}

func CreateNewAccountAttachment(creator, name common.Name, owner, active Authority) []byte {
	return encode(&NewAccountAttachment{Creator: creator, Name: name, Owner: owner, Active: active})
}

func ParseNewAccountAttachment(action *types.Action) *NewAccountAttachment {
	var attachment NewAccountAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type UpdateAuthAttachment struct {
	Account    common.Name
	Permission common.Name
	Parent     common.Name
	Auth       Authority
}

func ParseUpdateAuthAttachment(action *types.Action) *UpdateAuthAttachment {
	var attachment UpdateAuthAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type DeleteAuthAttachment struct {
	Account    common.Name
	Permission common.Name
}

func ParseDeleteAuthAttachment(action *types.Action) *DeleteAuthAttachment {
	var attachment DeleteAuthAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type LinkAuthAttachment struct {
	Account     common.Name
	Code        common.Name
	Type        common.Name
	Requirement common.Name
}

func ParseLinkAuthAttachment(action *types.Action) *LinkAuthAttachment {
	var attachment LinkAuthAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type UnlinkAuthAttachment struct {
	Account common.Name
	Code    common.Name
	Type    common.Name
}

func ParseUnlinkAuthAttachment(action *types.Action) *UnlinkAuthAttachment {
	var attachment UnlinkAuthAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type CancelDelayAttachment struct {
	Canceler PermissionLevel
	TrxId    common.Hash
}

func ParseCancelDelayAttachment(action *types.Action) *CancelDelayAttachment {
	var attachment CancelDelayAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type OnErrorAttachment struct {
	SenderId []byte
	SentTrx  []byte
}

func ParseOnErrorAttachment(action *types.Action) *OnErrorAttachment {
	var attachment OnErrorAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type SetCodeAttachment struct {
	Account   common.Name
	VmType    uint8
	VmVersion uint8
	Code      []byte
}

func ParseSetCodeAttachment(action *types.Action) *SetCodeAttachment {
	var attachment SetCodeAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

// Empty returns a zero attachment for the action of the given name, or nil for an unknown
// action. Used to decode actions written in a textual form.
func Empty(name string) interface{} {
	switch name {
	case "init":
		return new(InitAttachment)
	case "buyram":
		return new(BuyRamAttachment)
	case "buyrambytes":
		return new(BuyRamBytesAttachment)
	case "sellram":
		return new(SellRamAttachment)
	case "delegatebw":
		return new(DelegateBwAttachment)
	case "undelegatebw":
		return new(UndelegateBwAttachment)
	case "refund", "claimrewards", "unregprod", "rmvproducer":
		return new(OwnerAttachment)
	case "voteproducer":
		return new(VoteProducerAttachment)
	case "regproxy":
		return new(RegProxyAttachment)
	case "regproducer":
		return new(RegProducerAttachment)
	case "onblock":
		return new(OnBlockAttachment)
	case "bidname":
		return new(BidNameAttachment)
	case "bidrefund":
		return new(BidRefundAttachment)
	case "setram":
		return new(SetRamAttachment)
	case "setramrate":
		return new(SetRamRateAttachment)
	case "setalimits":
		return new(SetALimitsAttachment)
	case "setacctram", "setacctnet", "setacctcpu":
		return new(SetAcctLimitAttachment)
	case "setparams":
		return new(SetParamsAttachment)
	case "setpriv":
		return new(SetPrivAttachment)
	case "updtrevision":
		return new(UpdtRevisionAttachment)
	case "setabi":
		return new(SetAbiAttachment)
	case "newaccount":
		return new(NewAccountAttachment)
	case "updateauth":
		return new(UpdateAuthAttachment)
	case "deleteauth":
		return new(DeleteAuthAttachment)
	case "linkauth":
		return new(LinkAuthAttachment)
	case "unlinkauth":
		return new(UnlinkAuthAttachment)
	case "canceldelay":
		return new(CancelDelayAttachment)
	case "onerror":
		return new(OnErrorAttachment)
	case "setcode":
		return new(SetCodeAttachment)
	case "transfer":
		return new(TransferAttachment)
	case "issue":
		return new(IssueAttachment)
	case "create":
		return new(CreateTokenAttachment)
	case "retire":
		return new(RetireAttachment)
	default:
		return nil
	}
}

// Encode serializes an attachment built by Empty.
func Encode(attachment interface{}) []byte {
	return encode(attachment)
}
