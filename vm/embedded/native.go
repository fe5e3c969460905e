package embedded

import (
	"github.com/aggregion/agrio.contracts/blockchain/attachments"
)

func validAuthority(auth *attachments.Authority) bool {
	if auth.Threshold == 0 {
		return false
	}
	var total uint64
	for _, k := range auth.Keys {
		if k.Key == "" {
			return false
		}
		total += uint64(k.Weight)
	}
	for _, a := range auth.Accounts {
		total += uint64(a.Weight)
	}
	for _, w := range auth.Waits {
		total += uint64(w.Weight)
	}
	return total >= uint64(auth.Threshold)
}

var errInvalidAuthority = NewContractError("invalid authority", false)

func (s *System) newaccount() error {
	attach := attachments.ParseNewAccountAttachment(s.action())
	if attach == nil {
		return parseError("newaccount")
	}
	creator, name := attach.Creator, attach.Name
	if err := s.requireAuth(creator); err != nil {
		return err
	}
	if !validAuthority(&attach.Owner) || !validAuthority(&attach.Active) {
		return errInvalidAuthority
	}
	if creator != s.self() && name.HasDot() {
		if suffix := name.Suffix(); suffix == name {
			if err := s.claimName(creator, name); err != nil {
				return err
			}
		} else if creator != suffix {
			return NewContractError("only suffix may create this account", false)
		}
	}
	if err := s.env.CreateAccount(s.ctx, name); err != nil {
		return err
	}
	s.setUserResources(newUserResources(name))
	s.env.SetResourceLimits(name, 0, 0, 0)
	return nil
}

// The remaining native hooks only validate their arguments; permissions and code are
// kept by the host.

func (s *System) updateauth() error {
	attach := attachments.ParseUpdateAuthAttachment(s.action())
	if attach == nil {
		return parseError("updateauth")
	}
	if err := s.requireAuth(attach.Account); err != nil {
		return err
	}
	if attach.Permission.IsEmpty() || attach.Permission == attach.Parent {
		return NewContractError("invalid permission", false)
	}
	if !validAuthority(&attach.Auth) {
		return errInvalidAuthority
	}
	return nil
}

func (s *System) deleteauth() error {
	attach := attachments.ParseDeleteAuthAttachment(s.action())
	if attach == nil {
		return parseError("deleteauth")
	}
	return s.requireAuth(attach.Account)
}

func (s *System) linkauth() error {
	attach := attachments.ParseLinkAuthAttachment(s.action())
	if attach == nil {
		return parseError("linkauth")
	}
	if attach.Requirement.IsEmpty() {
		return NewContractError("required permission cannot be empty", false)
	}
	return s.requireAuth(attach.Account)
}

func (s *System) unlinkauth() error {
	attach := attachments.ParseUnlinkAuthAttachment(s.action())
	if attach == nil {
		return parseError("unlinkauth")
	}
	return s.requireAuth(attach.Account)
}

func (s *System) canceldelay() error {
	attach := attachments.ParseCancelDelayAttachment(s.action())
	if attach == nil {
		return parseError("canceldelay")
	}
	return s.requireAuth(attach.Canceler.Actor)
}

func (s *System) onerror() error {
	return NewContractError("the onerror action cannot be called directly", false)
}

func (s *System) setcode() error {
	attach := attachments.ParseSetCodeAttachment(s.action())
	if attach == nil {
		return parseError("setcode")
	}
	return s.requireAuth(attach.Account)
}

func (s *System) setabi() error {
	attach := attachments.ParseSetAbiAttachment(s.action())
	if attach == nil {
		return parseError("setabi")
	}
	if err := s.requireAuth(attach.Account); err != nil {
		return err
	}
	setRow(s.abihash, attach.Account.Bytes(), &AbiHash{Owner: attach.Account, Hash: s.env.Hash(attach.Abi)})
	return nil
}
