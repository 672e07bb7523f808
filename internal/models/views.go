package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserView is the read-optimised projection of a user.
// It never exposes PasswordHash. TotalSavings is derived on every read.
type UserView struct {
	ID              string          `json:"id"`
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	WalletAddress   string          `json:"walletAddress,omitempty"`
	WalletConnected bool            `json:"walletConnected"`
	WalletType      string          `json:"walletType,omitempty"`
	TotalSavings    decimal.Decimal `json:"totalSavings"`
	CreatedAt       time.Time       `json:"createdTimestamp"`
	UpdatedAt       time.Time       `json:"updatedTimestamp"`
}

// ChildView is the cached read model of a child account.
// UserID is populated for ownership checks but never serialised to the API response.
type ChildView struct {
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

// ChildProjection carries the derived metrics recomputed on read.
type ChildProjection struct {
	Age                    int             `json:"age"`
	YearsUntilUnlock       int             `json:"yearsUntilUnlock"`
	ProgressPercentage     decimal.Decimal `json:"progressPercentage"`
	ProjectedValueAtUnlock decimal.Decimal `json:"projectedValueAtUnlock"`
}

// ChildDetail is the API response for a child: the stored view plus projections.
type ChildDetail struct {
	ChildView
	ChildProjection
}

type TransactionView struct {
	ID              string            `json:"id"`
	UserID          string            `json:"-"`
	ChildID         string            `json:"childId"`
	ChildName       string            `json:"childName"`
	InvestmentID    string            `json:"investmentId,omitempty"`
	Type            TransactionType   `json:"transactionType"`
	Amount          decimal.Decimal   `json:"amount"`
	Token           Token             `json:"token"`
	Status          TransactionStatus `json:"status"`
	TransactionHash string            `json:"transactionHash,omitempty"`
	BlockNumber     *int64            `json:"blockNumber,omitempty"`
	GasCostEth      decimal.Decimal   `json:"gasCostEth"`
	Description     string            `json:"description,omitempty"`
	CreatedAt       time.Time         `json:"createdTimestamp"`
	UpdatedAt       time.Time         `json:"updatedTimestamp"`
}

type InvestmentView struct {
	Investment
	ChildName        string            `json:"childName"`
	TotalInvestments int               `json:"totalInvestments"`
	Transactions     []TransactionView `json:"transactions"`
}

type GoalView struct {
	InvestmentGoal
	ProgressPercentage decimal.Decimal `json:"progressPercentage"`
	MonthsRemaining    int             `json:"monthsRemaining"`
}

type ContractView struct {
	SmartContract
	TotalValueLocked decimal.Decimal `json:"totalValueLocked"`
	GasCostEth       decimal.Decimal `json:"gasCostEth"`
}

type NFTView struct {
	NFT
	IsTransferable bool `json:"isTransferable"`
}

type ChainTransactionView struct {
	BlockchainTransaction
	GasCostEth decimal.Decimal `json:"gasCostEth"`
}

// Stats is the aggregate statistics response, computed on demand.
type Stats struct {
	TotalSavings          decimal.Decimal `json:"totalSavings"`
	AccountCount          int             `json:"accountCount"`
	ActiveInvestmentCount int             `json:"activeInvestmentCount"`
}
