package embedded

import (
	"math"
	"math/big"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/common"
)

// initial supply of market shares
var marketShareSupply = big.NewInt(100_000_000_000_000)

func toFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

// floorInt truncates a non-negative float to an integer.
func floorInt(f float64) *big.Int {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return new(big.Int)
	}
	res, _ := new(big.Float).SetFloat64(math.Floor(f)).Int(nil)
	return res
}

// bancorOutput returns how much of the out pool is received for in.
func bancorOutput(in, poolIn, poolOut *big.Int, weightIn, weightOut float64) *big.Int {
	i, pIn, pOut := toFloat(in), toFloat(poolIn), toFloat(poolOut)
	if pIn+i <= 0 {
		return new(big.Int)
	}
	return floorInt(pOut * (1 - math.Pow(pIn/(pIn+i), weightIn/weightOut)))
}

// bancorInput returns how much has to be paid into the in pool to receive out, or nil
// if the out pool cannot provide it.
func bancorInput(out, poolIn, poolOut *big.Int, weightIn, weightOut float64) *big.Int {
	if out.Cmp(poolOut) >= 0 {
		return nil
	}
	o, pIn, pOut := toFloat(out), toFloat(poolIn), toFloat(poolOut)
	return floorInt(math.Ceil(pIn * (math.Pow(pOut/(pOut-o), weightOut/weightIn) - 1)))
}

func (s *System) ramFee(amount *big.Int) *big.Int {
	d := big.NewInt(s.conf.RamFeeDivisor)
	fee := new(big.Int).Add(amount, d)
	fee.Sub(fee, big.NewInt(1))
	return fee.Quo(fee, d)
}

// updateRamSupply grows the RAM supply by NewRamPerBlock for every block since the
// previous increase.
func (s *System) updateRamSupply() {
	g := s.getGlobal()
	height := s.env.BlockNumber()
	if height <= g.LastRamIncrease {
		return
	}
	added := (height - g.LastRamIncrease) * uint64(g.NewRamPerBlock)
	if added > 0 {
		g.MaxRamSize += added
		if market := s.getMarket(); market != nil {
			market.Base.Balance.Add(market.Base.Balance, new(big.Int).SetUint64(added))
			s.setMarket(market)
		}
	}
	g.LastRamIncrease = height
}

func (s *System) init() error {
	attach := attachments.ParseInitAttachment(s.action())
	if attach == nil {
		return parseError("init")
	}
	if err := s.requireAuth(s.self()); err != nil {
		return err
	}
	if attach.Version != 0 {
		return NewContractError("unsupported version for init action", false)
	}
	if s.getMarket() != nil {
		return NewContractError("system contract has already been initialized", false)
	}
	if attach.Symbol != s.env.CoreSymbol() {
		return NewContractError("specified core symbol does not exist", false)
	}
	supply := s.env.Supply()
	if supply.Sign() <= 0 {
		return NewContractError("system token supply must be greater than 0", false)
	}
	g := s.getGlobal()
	s.updateRamSupply()
	s.setMarket(&RamMarket{
		Supply: new(big.Int).Set(marketShareSupply),
		Base: Connector{
			Balance: new(big.Int).SetUint64(g.FreeRam()),
			Weight:  Float64(s.conf.MarketWeight),
		},
		Quote: Connector{
			Balance: new(big.Int).Quo(supply, big.NewInt(s.conf.MarketTokenDivisor)),
			Weight:  Float64(s.conf.MarketWeight),
		},
		Symbol: attach.Symbol,
	})
	return nil
}

func (s *System) buyram() error {
	attach := attachments.ParseBuyRamAttachment(s.action())
	if attach == nil {
		return parseError("buyram")
	}
	return s.buyRam(attach.Payer, attach.Receiver, attach.Quant)
}

func (s *System) buyrambytes() error {
	attach := attachments.ParseBuyRamBytesAttachment(s.action())
	if attach == nil {
		return parseError("buyrambytes")
	}
	if attach.Bytes == 0 {
		return NewContractError("must reserve a positive amount", false)
	}
	s.updateRamSupply()
	market := s.getMarket()
	if market == nil {
		return NewContractError("ram market is not initialized", false)
	}
	cost := bancorInput(new(big.Int).SetUint64(attach.Bytes), market.Quote.Balance, market.Base.Balance,
		float64(market.Quote.Weight), float64(market.Base.Weight))
	if cost == nil {
		return NewContractError("insufficient ram available", false)
	}
	// gross up so that the amount left after the fee buys the requested bytes
	feeFactor := 1 - 1/float64(s.conf.RamFeeDivisor)
	costPlusFee := floorInt(toFloat(cost) / feeFactor)
	if costPlusFee.Sign() <= 0 {
		costPlusFee = big.NewInt(1)
	}
	return s.buyRam(attach.Payer, attach.Receiver, attachments.NewAsset(costPlusFee, s.env.CoreSymbol()))
}

func (s *System) buyRam(payer, receiver common.Name, quant attachments.Asset) error {
	if err := s.requireAuth(payer); err != nil {
		return err
	}
	s.updateRamSupply()
	if err := s.checkAsset(quant); err != nil {
		return err
	}
	if quant.Amount.Sign() <= 0 {
		return NewContractError("must purchase a positive amount", false)
	}
	market := s.getMarket()
	if market == nil {
		return NewContractError("ram market is not initialized", false)
	}
	if !s.env.IsAccount(receiver) {
		return NewContractError("receiver account does not exist", false)
	}
	fee := s.ramFee(quant.Amount)
	afterFee := new(big.Int).Sub(quant.Amount, fee)

	if afterFee.Sign() > 0 {
		if err := s.env.Transfer(s.ctx, payer, RamAccount, afterFee, "buy ram"); err != nil {
			return err
		}
	}
	if fee.Sign() > 0 {
		if err := s.env.Transfer(s.ctx, payer, RamFeeAccount, fee, "ram fee"); err != nil {
			return err
		}
	}

	bytesOut := bancorOutput(afterFee, market.Quote.Balance, market.Base.Balance,
		float64(market.Quote.Weight), float64(market.Base.Weight))
	if bytesOut.Sign() <= 0 || !bytesOut.IsUint64() {
		return NewContractError("must reserve a positive amount", false)
	}
	market.Quote.Balance.Add(market.Quote.Balance, afterFee)
	market.Base.Balance.Sub(market.Base.Balance, bytesOut)
	assert(market.Base.Balance.Sign() >= 0, "ram market base balance is negative")
	s.setMarket(market)

	bytes := bytesOut.Uint64()
	g := s.getGlobal()
	g.TotalRamBytesReserved += bytes
	assert(g.TotalRamBytesReserved <= g.MaxRamSize, "reserved ram %v exceeds max ram size %v", g.TotalRamBytesReserved, g.MaxRamSize)
	g.TotalRamStake.Add(g.TotalRamStake, afterFee)

	res := s.getUserResources(receiver)
	if res == nil {
		res = newUserResources(receiver)
	}
	res.RamBytes += bytes
	s.setUserResources(res)
	s.updateRamLimit(receiver, res)
	return nil
}

func (s *System) sellram() error {
	attach := attachments.ParseSellRamAttachment(s.action())
	if attach == nil {
		return parseError("sellram")
	}
	if err := s.requireAuth(attach.Account); err != nil {
		return err
	}
	s.updateRamSupply()
	if attach.Bytes == 0 {
		return NewContractError("cannot sell negative byte", false)
	}
	res := s.getUserResources(attach.Account)
	if res == nil {
		return NewContractError("no resource row", false)
	}
	if res.RamBytes < attach.Bytes {
		return NewContractError("insufficient quota", false)
	}
	market := s.getMarket()
	if market == nil {
		return NewContractError("ram market is not initialized", false)
	}
	bytes := new(big.Int).SetUint64(attach.Bytes)
	tokensOut := bancorOutput(bytes, market.Base.Balance, market.Quote.Balance,
		float64(market.Base.Weight), float64(market.Quote.Weight))
	if tokensOut.Sign() <= 0 {
		return NewContractError("token amount received from selling ram is too low", false)
	}
	market.Base.Balance.Add(market.Base.Balance, bytes)
	market.Quote.Balance.Sub(market.Quote.Balance, tokensOut)
	s.setMarket(market)

	g := s.getGlobal()
	assert(g.TotalRamBytesReserved >= attach.Bytes, "reserved ram underflow")
	g.TotalRamBytesReserved -= attach.Bytes
	g.TotalRamStake.Sub(g.TotalRamStake, tokensOut)
	if g.TotalRamStake.Sign() < 0 {
		return NewContractError("attempt to unstake more tokens than previously staked", false)
	}

	res.RamBytes -= attach.Bytes
	s.setUserResources(res)
	s.updateRamLimit(attach.Account, res)

	if err := s.env.Transfer(s.ctx, RamAccount, attach.Account, tokensOut, "sell ram"); err != nil {
		return err
	}
	if fee := s.ramFee(tokensOut); fee.Sign() > 0 {
		if err := s.env.Transfer(s.ctx, attach.Account, RamFeeAccount, fee, "sell ram fee"); err != nil {
			return err
		}
	}
	return nil
}

func (s *System) updateRamLimit(account common.Name, res *UserResources) {
	ram, net, cpu := s.env.GetResourceLimits(account)
	if !s.getVoter(account).hasFlag(ramManaged) {
		ram = res.RamBytes + s.conf.RamGiftBytes
	}
	s.env.SetResourceLimits(account, ram, net, cpu)
}

func (s *System) setram() error {
	attach := attachments.ParseSetRamAttachment(s.action())
	if attach == nil {
		return parseError("setram")
	}
	if err := s.requireAuth(s.self()); err != nil {
		return err
	}
	s.updateRamSupply()
	g := s.getGlobal()
	if attach.MaxRamSize <= g.MaxRamSize {
		return NewContractError("ram may only be increased", false)
	}
	if attach.MaxRamSize < g.TotalRamBytesReserved {
		return NewContractError("attempt to set max below reserved", false)
	}
	delta := attach.MaxRamSize - g.MaxRamSize
	if market := s.getMarket(); market != nil {
		market.Base.Balance.Add(market.Base.Balance, new(big.Int).SetUint64(delta))
		s.setMarket(market)
	}
	g.MaxRamSize = attach.MaxRamSize
	return nil
}

func (s *System) setramrate() error {
	attach := attachments.ParseSetRamRateAttachment(s.action())
	if attach == nil {
		return parseError("setramrate")
	}
	if err := s.requireAuth(s.self()); err != nil {
		return err
	}
	s.updateRamSupply()
	s.getGlobal().NewRamPerBlock = attach.BytesPerBlock
	return nil
}

// RamPrice returns the token amount the market currently asks for one kilobyte.
func (s *System) RamPrice() *big.Int {
	market := s.getMarket()
	if market == nil {
		return nil
	}
	return bancorInput(big.NewInt(1024), market.Quote.Balance, market.Base.Balance,
		float64(market.Quote.Weight), float64(market.Base.Weight))
}
