package cqrs

import (
	"time"

	"github.com/Beegash/BBWallet/internal/models"
	"github.com/shopspring/decimal"
)

// ---------- Users & auth ----------

type CreateUserCommand struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateUserCommand leaves nil fields untouched.
type UpdateUserCommand struct {
	UserID           string
	RequestingUserID string
	Email            *string
	FirstName        *string
	LastName         *string
}

type ConnectWalletCommand struct {
	UserID           string
	RequestingUserID string
	WalletAddress    string
	WalletType       string
}

type DisconnectWalletCommand struct {
	UserID           string
	RequestingUserID string
}

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}

// ---------- Children ----------

type CreateChildCommand struct {
	UserID       string
	Name         string
	DateOfBirth  time.Time
	Gender       models.Gender
	TargetAmount decimal.Decimal
	UnlockAge    int
	ColorTheme   string
}

// UpdateChildCommand never carries a balance; only the ledger writes it.
type UpdateChildCommand struct {
	ChildID          string
	RequestingUserID string
	Name             *string
	DateOfBirth      *time.Time
	Gender           *models.Gender
	TargetAmount     *decimal.Decimal
	UnlockAge        *int
	ColorTheme       *string
}

type DeactivateChildCommand struct {
	ChildID          string
	RequestingUserID string
}

// ---------- Investments ----------

type CreateInvestmentCommand struct {
	UserID    string
	ChildID   string
	Type      models.InvestmentType
	Amount    decimal.Decimal
	Frequency models.Frequency
	StartDate time.Time
	EndDate   *time.Time
}

type UpdateInvestmentStatusCommand struct {
	InvestmentID     string
	RequestingUserID string
	Status           models.InvestmentStatus
}

// ---------- Transactions ----------

type CreateTransactionCommand struct {
	UserID          string
	ChildID         string
	InvestmentID    string
	Type            models.TransactionType
	Amount          decimal.Decimal
	Token           models.Token
	Status          models.TransactionStatus
	TransactionHash string
	Description     string
}

type UpdateTransactionStatusCommand struct {
	TransactionID    string
	RequestingUserID string
	Status           models.TransactionStatus
}

// ---------- Goals ----------

type SetGoalCommand struct {
	ChildID             string
	RequestingUserID    string
	TargetAmount        decimal.Decimal
	TargetDate          time.Time
	MonthlyContribution decimal.Decimal
	Description         string
}

// ---------- Blockchain bookkeeping ----------

type CreateContractCommand struct {
	UserID       string
	ChildID      string
	InvestmentID string
	ContractType models.ContractType
	Network      models.Network
}

type DeployContractCommand struct {
	ContractID       string
	RequestingUserID string
}

type CreateNFTCommand struct {
	UserID          string
	ChildID         string
	SmartContractID string
	NFTType         models.NFTType
	TokenURI        string
	Metadata        map[string]any
}

type MintNFTCommand struct {
	NFTID            string
	RequestingUserID string
}

type TransferNFTCommand struct {
	NFTID            string
	RequestingUserID string
}

type CreateChainTransactionCommand struct {
	UserID          string
	TransactionType models.ChainTxType
	TransactionHash string
	Network         models.Network
	FromAddress     string
	ToAddress       string
	Value           *decimal.Decimal
	GasUsed         *int64
	GasPrice        *int64
	Data            string
}

type ConfirmChainTransactionCommand struct {
	ChainTxID        string
	RequestingUserID string
	BlockNumber      int64
	GasUsed          *int64
	Receipt          map[string]any
}

type RecordGasPriceCommand struct {
	Network      models.Network
	GasPriceGwei int64
	BlockNumber  int64
}
