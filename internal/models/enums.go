package models

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

type InvestmentType string

const (
	InvestmentOneTime   InvestmentType = "one_time"
	InvestmentRecurring InvestmentType = "recurring"
)

func (t InvestmentType) Valid() bool {
	switch t {
	case InvestmentOneTime, InvestmentRecurring:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

type InvestmentStatus string

const (
	InvestmentActive    InvestmentStatus = "active"
	InvestmentPaused    InvestmentStatus = "paused"
	InvestmentCompleted InvestmentStatus = "completed"
	InvestmentCancelled InvestmentStatus = "cancelled"
)

func (s InvestmentStatus) Valid() bool {
	switch s {
	case InvestmentActive, InvestmentPaused, InvestmentCompleted, InvestmentCancelled:
		return true
	}
	return false
}

// TransactionType is the closed set of ledger movements. Every type is either a
// credit or a debit.
type TransactionType string

const (
	TxInvestment TransactionType = "investment"
	TxWithdrawal TransactionType = "withdrawal"
	TxInterest   TransactionType = "interest"
	TxFee        TransactionType = "fee"
	TxRefund     TransactionType = "refund"
)

type Direction int

const (
	DirectionUnknown Direction = iota
	Credit
	Debit
)

func (t TransactionType) Direction() Direction {
	switch t {
	case TxInvestment, TxInterest, TxRefund:
		return Credit
	case TxWithdrawal, TxFee:
		return Debit
	}
	return DirectionUnknown
}

func (t TransactionType) IsCredit() bool { return t.Direction() == Credit }
func (t TransactionType) IsDebit() bool  { return t.Direction() == Debit }
func (t TransactionType) Valid() bool    { return t.Direction() != DirectionUnknown }

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TxPending, TxCompleted, TxFailed, TxCancelled:
		return true
	}
	return false
}

type Token string

const (
	TokenUSDC Token = "USDC"
	TokenUSDT Token = "USDT"
	TokenETH  Token = "ETH"
	TokenBTC  Token = "BTC"
)

type ContractType string

const (
	ContractSavings    ContractType = "savings"
	ContractInvestment ContractType = "investment"
	ContractNFT        ContractType = "nft"
)

type ContractStatus string

const (
	ContractDeployed ContractStatus = "deployed"
	ContractPending  ContractStatus = "pending"
	ContractFailed   ContractStatus = "failed"
	ContractPaused   ContractStatus = "paused"
)

type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkSepolia Network = "sepolia"
	NetworkGoerli  Network = "goerli"
	NetworkPolygon Network = "polygon"
)

type NFTType string

const (
	NFTSavings     NFTType = "savings"
	NFTAchievement NFTType = "achievement"
	NFTMilestone   NFTType = "milestone"
)

type NFTStatus string

const (
	NFTMinted  NFTStatus = "minted"
	NFTPending NFTStatus = "pending"
	NFTFailed  NFTStatus = "failed"
	NFTBurned  NFTStatus = "burned"
)

type ChainTxType string

const (
	ChainTxDeploy   ChainTxType = "deploy"
	ChainTxMint     ChainTxType = "mint"
	ChainTxTransfer ChainTxType = "transfer"
	ChainTxWithdraw ChainTxType = "withdraw"
	ChainTxDeposit  ChainTxType = "deposit"
)

type ChainTxStatus string

const (
	ChainTxPending   ChainTxStatus = "pending"
	ChainTxConfirmed ChainTxStatus = "confirmed"
	ChainTxFailed    ChainTxStatus = "failed"
	ChainTxReverted  ChainTxStatus = "reverted"
)
