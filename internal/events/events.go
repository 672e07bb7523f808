package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	UserCreated         = "user.created"
	UserUpdated         = "user.updated"
	WalletConnected     = "wallet.connected"
	WalletDisconnected  = "wallet.disconnected"
	ChildCreated        = "child.created"
	ChildUpdated        = "child.updated"
	ChildDeactivated    = "child.deactivated"
	InvestmentCreated   = "investment.created"
	InvestmentUpdated   = "investment.updated"
	TransactionCreated  = "transaction.created"
	TransactionStatus   = "transaction.status_changed"
	BalanceUpdated      = "balance.updated"
	GoalSet             = "goal.set"
	ContractDeployed    = "contract.deployed"
	NFTMinted           = "nft.minted"
	NFTTransferred      = "nft.transferred"
	ChainTxConfirmed    = "chain_transaction.confirmed"
	MilestoneNFTCreated = "nft.milestone_created"
)

// Stream names (Kafka topics get the configured prefix).
const (
	UserEventsStream        = "user.events"
	ChildEventsStream       = "child.events"
	TransactionEventsStream = "transaction.events"
	BlockchainEventsStream  = "blockchain.events"
)

var AllStreams = []string{
	UserEventsStream,
	ChildEventsStream,
	TransactionEventsStream,
	BlockchainEventsStream,
}

// Base event structure
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func NewEvent(eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// Decode unmarshals the event payload into T.
func Decode[T any](e Event) (T, error) {
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return v, fmt.Errorf("failed to unmarshal %s event: %w", e.Type, err)
	}
	return v, nil
}

// User events
type UserCreatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserUpdatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type WalletEvent struct {
	UserID        string `json:"userId"`
	WalletAddress string `json:"walletAddress"`
	WalletType    string `json:"walletType"`
}

// Child events
type ChildEvent struct {
	ChildID      string          `json:"childId"`
	UserID       string          `json:"userId"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
}

type InvestmentEvent struct {
	InvestmentID string          `json:"investmentId"`
	ChildID      string          `json:"childId"`
	UserID       string          `json:"userId"`
	Type         string          `json:"investmentType"`
	Status       string          `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
}

type GoalSetEvent struct {
	GoalID       string          `json:"goalId"`
	ChildID      string          `json:"childId"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
}

// Transaction events
type TransactionCreatedEvent struct {
	TransactionID string          `json:"transactionId"`
	ChildID       string          `json:"childId"`
	UserID        string          `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Token         string          `json:"token"`
}

type TransactionStatusChangedEvent struct {
	TransactionID  string `json:"transactionId"`
	ChildID        string `json:"childId"`
	UserID         string `json:"userId"`
	PreviousStatus string `json:"previousStatus"`
	Status         string `json:"status"`
}

type BalanceUpdatedEvent struct {
	ChildID         string          `json:"childId"`
	UserID          string          `json:"userId"`
	TransactionID   string          `json:"transactionId"`
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	NewBalance      decimal.Decimal `json:"newBalance"`
	Change          decimal.Decimal `json:"change"`
	TargetAmount    decimal.Decimal `json:"targetAmount"`
}

// Blockchain events
type ContractDeployedEvent struct {
	ContractID      string `json:"contractId"`
	ChildID         string `json:"childId"`
	UserID          string `json:"userId"`
	ContractAddress string `json:"contractAddress"`
	Network         string `json:"network"`
}

type NFTEvent struct {
	NFTID   string `json:"nftId"`
	ChildID string `json:"childId"`
	UserID  string `json:"userId"`
	NFTType string `json:"nftType"`
	TokenID int64  `json:"tokenId"`
}

type ChainTxConfirmedEvent struct {
	ChainTxID       string `json:"chainTransactionId"`
	UserID          string `json:"userId"`
	TransactionHash string `json:"transactionHash"`
}
