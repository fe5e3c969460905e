package embedded

import (
	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
)

func (s *System) regproducer() error {
	attach := attachments.ParseRegProducerAttachment(s.action())
	if attach == nil {
		return parseError("regproducer")
	}
	if len(attach.Url) >= s.conf.MaxUrlLength {
		return NewContractError("url too long", false)
	}
	if attach.ProducerKey == "" {
		return NewContractError("public key should not be the default value", false)
	}
	if err := s.requireAuth(attach.Producer); err != nil {
		return err
	}
	now := s.now()
	if p := s.getProducer(attach.Producer); p != nil {
		p.ProducerKey = attach.ProducerKey
		p.IsActive = true
		p.Url = attach.Url
		p.Location = attach.Location
		if p.LastClaimTime == 0 {
			p.LastClaimTime = now
		}
		s.setProducer(p)
		return nil
	}
	g := s.getGlobal()
	g.ProducerSeq++
	s.setProducer(&ProducerInfo{
		Owner:         attach.Producer,
		ProducerKey:   attach.ProducerKey,
		IsActive:      true,
		Url:           attach.Url,
		Location:      attach.Location,
		LastClaimTime: now,
		Seq:           g.ProducerSeq,
	})
	s.setProducer2(&ProducerInfo2{Owner: attach.Producer, LastVotepayShareUpdate: now})
	return nil
}

func (s *System) unregprod() error {
	attach := attachments.ParseOwnerAttachment(s.action())
	if attach == nil {
		return parseError("unregprod")
	}
	if err := s.requireAuth(attach.Owner); err != nil {
		return err
	}
	return s.deactivateProducer(attach.Owner)
}

func (s *System) rmvproducer() error {
	attach := attachments.ParseOwnerAttachment(s.action())
	if attach == nil {
		return parseError("rmvproducer")
	}
	if err := s.requireAuth(s.self()); err != nil {
		return err
	}
	return s.deactivateProducer(attach.Owner)
}

func (s *System) deactivateProducer(owner common.Name) error {
	p := s.getProducer(owner)
	if p == nil {
		return NewContractError("producer not found", false)
	}
	p.deactivate()
	s.setProducer(p)
	return nil
}

func (s *System) onblock() error {
	attach := attachments.ParseOnBlockAttachment(s.action())
	if attach == nil {
		return parseError("onblock")
	}
	if err := s.requireAuth(s.self()); err != nil {
		return err
	}
	s.updateRamSupply()
	g := s.getGlobal()

	if p := s.getProducer(attach.Producer); p != nil {
		p.UnpaidBlocks++
		g.TotalUnpaidBlocks++
		s.setProducer(p)
	}
	// start the presses
	if g.Activated() && g.LastPervoteBucketFill == 0 {
		g.LastPervoteBucketFill = s.now()
	}
	if attach.Timestamp >= g.LastProducerScheduleUpdate+s.conf.ScheduleIntervalSec {
		s.updateElectedProducers(attach.Timestamp)
	}
	return nil
}

func (s *System) updateElectedProducers(timestamp uint64) {
	g := s.getGlobal()
	g.LastProducerScheduleUpdate = timestamp

	var schedule []types.ProducerKey
	for _, p := range s.RankedProducers(s.conf.MaxProducers) {
		if !p.IsActive || p.TotalVotes <= 0 {
			break
		}
		schedule = append(schedule, types.ProducerKey{Owner: p.Owner, Key: p.ProducerKey})
	}
	// keep the current schedule rather than proposing an empty one
	if len(schedule) == 0 {
		return
	}
	if version := s.env.SetProposedProducers(schedule); version >= 0 {
		g.LastProducerScheduleSize = uint16(len(schedule))
	}
}
