package cqrs

import "github.com/Beegash/BBWallet/internal/models"

// ---------- User queries ----------

// GetUserQuery fetches a single user by ID, subject to ownership check.
type GetUserQuery struct {
	UserID           string
	RequestingUserID string
}

// ---------- Child queries ----------

type GetChildQuery struct {
	ChildID          string
	RequestingUserID string
}

// ListChildrenQuery lists a user's children; deactivated ones only when IncludeInactive.
type ListChildrenQuery struct {
	UserID          string
	IncludeInactive bool
}

// ---------- Investment queries ----------

type GetInvestmentQuery struct {
	InvestmentID     string
	RequestingUserID string
}

type ListInvestmentsQuery struct {
	UserID  string
	ChildID string
	Status  models.InvestmentStatus
}

// ---------- Transaction queries ----------

type GetTransactionQuery struct {
	TransactionID    string
	RequestingUserID string
}

// ListTransactionsQuery filters by child when ChildID is set.
type ListTransactionsQuery struct {
	UserID  string
	ChildID string
	Status  models.TransactionStatus
}

// ---------- Goal & stats ----------

type GetGoalQuery struct {
	ChildID          string
	RequestingUserID string
}

type StatsQuery struct {
	UserID string
}

// ---------- Blockchain queries ----------

type GetContractQuery struct {
	ContractID       string
	RequestingUserID string
}

type ListContractsQuery struct {
	UserID  string
	ChildID string
}

type GetNFTQuery struct {
	NFTID            string
	RequestingUserID string
}

type ListNFTsQuery struct {
	UserID  string
	ChildID string
}

type GetChainTransactionQuery struct {
	ChainTxID        string
	RequestingUserID string
}

type ListChainTransactionsQuery struct {
	UserID string
}

type LatestGasPriceQuery struct {
	Network models.Network
}

// ---------- Reports ----------

type StatementQuery struct {
	UserID string
	Year   int
}
