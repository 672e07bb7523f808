package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places kept for money, matching NUMERIC(15,2).
const MoneyScale = 2

var moneyLimit = decimal.New(1, 15-MoneyScale)

// IsMoney reports whether d fits a NUMERIC(15,2) column without rounding.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale)) && d.Abs().LessThan(moneyLimit)
}

type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	WalletAddress   string    `json:"walletAddress,omitempty"`
	WalletConnected bool      `json:"walletConnected"`
	WalletType      string    `json:"walletType,omitempty"`
	CreatedAt       time.Time `json:"createdTimestamp"`
	UpdatedAt       time.Time `json:"updatedTimestamp"`
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type WalletConnection struct {
	ID             string     `json:"id"`
	UserID         string     `json:"-"`
	WalletType     string     `json:"walletType"`
	WalletAddress  string     `json:"walletAddress"`
	ConnectedAt    time.Time  `json:"connectedTimestamp"`
	DisconnectedAt *time.Time `json:"disconnectedTimestamp,omitempty"`
	IsActive       bool       `json:"isActive"`
}

// Child is a custodial savings account. CurrentBalance is a materialized cache of
// completed transaction effects and is only written by the ledger.
type Child struct {
	ID             string          `json:"id"`
	UserID         string          `json:"-"`
	Name           string          `json:"name"`
	DateOfBirth    time.Time       `json:"dateOfBirth"`
	Gender         Gender          `json:"gender,omitempty"`
	TargetAmount   decimal.Decimal `json:"targetAmount"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	UnlockAge      int             `json:"unlockAge"`
	ColorTheme     string          `json:"colorTheme"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdTimestamp"`
	UpdatedAt      time.Time       `json:"updatedTimestamp"`
}

type Investment struct {
	ID                   string           `json:"id"`
	UserID               string           `json:"-"`
	ChildID              string           `json:"childId"`
	Type                 InvestmentType   `json:"investmentType"`
	Amount               decimal.Decimal  `json:"amount"`
	Frequency            Frequency        `json:"frequency,omitempty"`
	Status               InvestmentStatus `json:"status"`
	StartDate            time.Time        `json:"startDate"`
	EndDate              *time.Time       `json:"endDate,omitempty"`
	NextPaymentDate      *time.Time       `json:"nextPaymentDate,omitempty"`
	TotalContributed     decimal.Decimal  `json:"totalContributed"`
	SmartContractAddress string           `json:"smartContractAddress,omitempty"`
	TransactionHash      string           `json:"transactionHash,omitempty"`
	CreatedAt            time.Time        `json:"createdTimestamp"`
	UpdatedAt            time.Time        `json:"updatedTimestamp"`
}

func (i *Investment) IsRecurring() bool {
	return i.Type == InvestmentRecurring
}

// Transaction amounts are always positive; direction comes from Type.
// BalanceAppliedAt is set the first time the ledger applies the transaction's effect.
type Transaction struct {
	ID               string            `json:"id"`
	UserID           string            `json:"-"`
	ChildID          string            `json:"childId"`
	InvestmentID     string            `json:"investmentId,omitempty"`
	Type             TransactionType   `json:"transactionType"`
	Amount           decimal.Decimal   `json:"amount"`
	Token            Token             `json:"token"`
	Status           TransactionStatus `json:"status"`
	TransactionHash  string            `json:"transactionHash,omitempty"`
	BlockNumber      *int64            `json:"blockNumber,omitempty"`
	GasUsed          *int64            `json:"gasUsed,omitempty"`
	GasPrice         *int64            `json:"gasPrice,omitempty"`
	Description      string            `json:"description,omitempty"`
	BalanceAppliedAt *time.Time        `json:"-"`
	CreatedAt        time.Time         `json:"createdTimestamp"`
	UpdatedAt        time.Time         `json:"updatedTimestamp"`
}

type InvestmentGoal struct {
	ID                  string          `json:"id"`
	ChildID             string          `json:"childId"`
	TargetAmount        decimal.Decimal `json:"targetAmount"`
	TargetDate          time.Time       `json:"targetDate"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
	Description         string          `json:"description,omitempty"`
	IsActive            bool            `json:"isActive"`
	CreatedAt           time.Time       `json:"createdTimestamp"`
	UpdatedAt           time.Time       `json:"updatedTimestamp"`
}

type SmartContract struct {
	ID              string         `json:"id"`
	UserID          string         `json:"-"`
	ChildID         string         `json:"childId"`
	InvestmentID    string         `json:"investmentId,omitempty"`
	ContractType    ContractType   `json:"contractType"`
	ContractAddress string         `json:"contractAddress"`
	Network         Network        `json:"network"`
	Status          ContractStatus `json:"status"`
	DeploymentHash  string         `json:"deploymentHash,omitempty"`
	BlockNumber     *int64         `json:"blockNumber,omitempty"`
	GasUsed         *int64         `json:"gasUsed,omitempty"`
	GasPrice        *int64         `json:"gasPrice,omitempty"`
	DeployedAt      *time.Time     `json:"deployedTimestamp,omitempty"`
	CreatedAt       time.Time      `json:"createdTimestamp"`
	UpdatedAt       time.Time      `json:"updatedTimestamp"`
}

func (c *SmartContract) IsActive() bool {
	return c.Status == ContractDeployed
}

type NFT struct {
	ID              string         `json:"id"`
	UserID          string         `json:"-"`
	ChildID         string         `json:"childId"`
	SmartContractID string         `json:"smartContractId"`
	NFTType         NFTType        `json:"nftType"`
	TokenID         int64          `json:"tokenId"`
	TokenURI        string         `json:"tokenUri,omitempty"`
	Metadata        map[string]any `json:"metadata"`
	Status          NFTStatus      `json:"status"`
	MintHash        string         `json:"mintHash,omitempty"`
	BlockNumber     *int64         `json:"blockNumber,omitempty"`
	MintedAt        *time.Time     `json:"mintedTimestamp,omitempty"`
	CreatedAt       time.Time      `json:"createdTimestamp"`
	UpdatedAt       time.Time      `json:"updatedTimestamp"`
}

type BlockchainTransaction struct {
	ID              string           `json:"id"`
	UserID          string           `json:"-"`
	TransactionType ChainTxType      `json:"transactionType"`
	TransactionHash string           `json:"transactionHash"`
	BlockNumber     *int64           `json:"blockNumber,omitempty"`
	GasUsed         *int64           `json:"gasUsed,omitempty"`
	GasPrice        *int64           `json:"gasPrice,omitempty"`
	Status          ChainTxStatus    `json:"status"`
	Network         Network          `json:"network"`
	FromAddress     string           `json:"fromAddress"`
	ToAddress       string           `json:"toAddress,omitempty"`
	Value           *decimal.Decimal `json:"value,omitempty"`
	Data            string           `json:"data,omitempty"`
	Receipt         map[string]any   `json:"receipt"`
	ConfirmedAt     *time.Time       `json:"confirmedTimestamp,omitempty"`
	CreatedAt       time.Time        `json:"createdTimestamp"`
	UpdatedAt       time.Time        `json:"updatedTimestamp"`
}

func (t *BlockchainTransaction) IsConfirmed() bool {
	return t.Status == ChainTxConfirmed
}

type GasPrice struct {
	ID           int64           `json:"id"`
	Network      Network         `json:"network"`
	GasPriceGwei int64           `json:"gasPriceGwei"`
	GasPriceEth  decimal.Decimal `json:"gasPriceEth"`
	BlockNumber  int64           `json:"blockNumber"`
	Timestamp    time.Time       `json:"timestamp"`
}
