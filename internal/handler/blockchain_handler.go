package handler

import (
	"context"
	"net/http"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/middleware"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BlockchainCommander defines the write-side operations used by BlockchainHandler.
type BlockchainCommander interface {
	CreateContract(context.Context, cqrs.CreateContractCommand) (*models.SmartContract, error)
	DeployContract(context.Context, cqrs.DeployContractCommand) (*models.SmartContract, error)
	CreateNFT(context.Context, cqrs.CreateNFTCommand) (*models.NFT, error)
	MintNFT(context.Context, cqrs.MintNFTCommand) (*models.NFT, error)
	TransferNFT(context.Context, cqrs.TransferNFTCommand) (*models.NFT, error)
	CreateChainTransaction(context.Context, cqrs.CreateChainTransactionCommand) (*models.BlockchainTransaction, error)
	ConfirmChainTransaction(context.Context, cqrs.ConfirmChainTransactionCommand) (*models.BlockchainTransaction, error)
	RecordGasPrice(context.Context, cqrs.RecordGasPriceCommand) (*models.GasPrice, error)
}

// BlockchainQuerier defines the read-side operations used by BlockchainHandler.
type BlockchainQuerier interface {
	GetContract(context.Context, cqrs.GetContractQuery) (*models.ContractView, error)
	ListContracts(context.Context, cqrs.ListContractsQuery) ([]models.ContractView, error)
	GetNFT(context.Context, cqrs.GetNFTQuery) (*models.NFTView, error)
	ListNFTs(context.Context, cqrs.ListNFTsQuery) ([]models.NFTView, error)
	GetChainTransaction(context.Context, cqrs.GetChainTransactionQuery) (*models.ChainTransactionView, error)
	ListChainTransactions(context.Context, cqrs.ListChainTransactionsQuery) ([]models.ChainTransactionView, error)
	LatestGasPrice(context.Context, cqrs.LatestGasPriceQuery) (*models.GasPrice, error)
}

// BlockchainHandler serves the off-chain records of contracts, NFTs, chain
// transactions and gas prices.
type BlockchainHandler struct {
	commands BlockchainCommander
	queries  BlockchainQuerier
}

type CreateContractRequest struct {
	ChildID      string `json:"childId" validate:"required"`
	InvestmentID string `json:"investmentId"`
	ContractType string `json:"contractType" validate:"required,oneof=savings investment nft"`
	Network      string `json:"network" validate:"omitempty,oneof=mainnet sepolia goerli polygon"`
}

type CreateNFTRequest struct {
	ChildID         string         `json:"childId" validate:"required"`
	SmartContractID string         `json:"smartContractId" validate:"required"`
	NFTType         string         `json:"nftType" validate:"required,oneof=savings achievement milestone"`
	TokenURI        string         `json:"tokenUri" validate:"omitempty,url"`
	Metadata        map[string]any `json:"metadata"`
}

type CreateChainTransactionRequest struct {
	TransactionType string           `json:"transactionType" validate:"required,oneof=deploy mint transfer withdraw deposit"`
	TransactionHash string           `json:"transactionHash" validate:"required,max=66"`
	Network         string           `json:"network" validate:"omitempty,oneof=mainnet sepolia goerli polygon"`
	FromAddress     string           `json:"fromAddress" validate:"required,max=42"`
	ToAddress       string           `json:"toAddress" validate:"omitempty,max=42"`
	Value           *decimal.Decimal `json:"value" validate:"omitempty,gte=0"`
	GasUsed         *int64           `json:"gasUsed" validate:"omitempty,gte=0"`
	GasPrice        *int64           `json:"gasPrice" validate:"omitempty,gte=0"`
	Data            string           `json:"data"`
}

type ConfirmChainTransactionRequest struct {
	BlockNumber int64          `json:"blockNumber" validate:"required,gt=0"`
	GasUsed     *int64         `json:"gasUsed" validate:"omitempty,gte=0"`
	Receipt     map[string]any `json:"receipt"`
}

type RecordGasPriceRequest struct {
	Network      string `json:"network" validate:"required,oneof=mainnet sepolia goerli polygon"`
	GasPriceGwei int64  `json:"gasPriceGwei" validate:"required,gt=0"`
	BlockNumber  int64  `json:"blockNumber" validate:"required,gt=0"`
}

type ListContractsResponse struct {
	Contracts []models.ContractView `json:"contracts"`
}

type ListNFTsResponse struct {
	NFTs []models.NFTView `json:"nfts"`
}

type ListChainTransactionsResponse struct {
	Transactions []models.ChainTransactionView `json:"transactions"`
}

func NewBlockchainHandler(commands BlockchainCommander, queries BlockchainQuerier) *BlockchainHandler {
	return &BlockchainHandler{commands: commands, queries: queries}
}

// ---------- Smart contracts ----------

func (h *BlockchainHandler) CreateContract(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateContractRequest
	if !bindJSON(c, &req) {
		return
	}

	contract, err := h.commands.CreateContract(c.Request.Context(), cqrs.CreateContractCommand{
		UserID:       userID,
		ChildID:      req.ChildID,
		InvestmentID: req.InvestmentID,
		ContractType: models.ContractType(req.ContractType),
		Network:      models.Network(req.Network),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to create contract")
		return
	}

	c.JSON(http.StatusCreated, contract)
}

func (h *BlockchainHandler) ListContracts(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	contracts, err := h.queries.ListContracts(c.Request.Context(), cqrs.ListContractsQuery{
		UserID:  userID,
		ChildID: c.Query("childId"),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to list contracts")
		return
	}

	c.JSON(http.StatusOK, ListContractsResponse{Contracts: contracts})
}

func (h *BlockchainHandler) GetContract(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	contract, err := h.queries.GetContract(c.Request.Context(), cqrs.GetContractQuery{
		ContractID:       c.Param("contractId"),
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to fetch contract")
		return
	}

	c.JSON(http.StatusOK, contract)
}

func (h *BlockchainHandler) DeployContract(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	contract, err := h.commands.DeployContract(c.Request.Context(), cqrs.DeployContractCommand{
		ContractID:       c.Param("contractId"),
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to deploy contract")
		return
	}

	c.JSON(http.StatusOK, contract)
}

// ---------- NFTs ----------

func (h *BlockchainHandler) CreateNFT(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateNFTRequest
	if !bindJSON(c, &req) {
		return
	}

	nft, err := h.commands.CreateNFT(c.Request.Context(), cqrs.CreateNFTCommand{
		UserID:          userID,
		ChildID:         req.ChildID,
		SmartContractID: req.SmartContractID,
		NFTType:         models.NFTType(req.NFTType),
		TokenURI:        req.TokenURI,
		Metadata:        req.Metadata,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to create nft")
		return
	}

	c.JSON(http.StatusCreated, nft)
}

func (h *BlockchainHandler) ListNFTs(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	nfts, err := h.queries.ListNFTs(c.Request.Context(), cqrs.ListNFTsQuery{
		UserID:  userID,
		ChildID: c.Query("childId"),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to list nfts")
		return
	}

	c.JSON(http.StatusOK, ListNFTsResponse{NFTs: nfts})
}

func (h *BlockchainHandler) GetNFT(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	nft, err := h.queries.GetNFT(c.Request.Context(), cqrs.GetNFTQuery{
		NFTID:            c.Param("nftId"),
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to fetch nft")
		return
	}

	c.JSON(http.StatusOK, nft)
}

func (h *BlockchainHandler) MintNFT(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	nft, err := h.commands.MintNFT(c.Request.Context(), cqrs.MintNFTCommand{
		NFTID:            c.Param("nftId"),
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to mint nft")
		return
	}

	c.JSON(http.StatusOK, nft)
}

func (h *BlockchainHandler) TransferNFT(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	nft, err := h.commands.TransferNFT(c.Request.Context(), cqrs.TransferNFTCommand{
		NFTID:            c.Param("nftId"),
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to transfer nft")
		return
	}

	c.JSON(http.StatusOK, nft)
}

// ---------- Chain transactions ----------

func (h *BlockchainHandler) CreateChainTransaction(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateChainTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.commands.CreateChainTransaction(c.Request.Context(), cqrs.CreateChainTransactionCommand{
		UserID:          userID,
		TransactionType: models.ChainTxType(req.TransactionType),
		TransactionHash: req.TransactionHash,
		Network:         models.Network(req.Network),
		FromAddress:     req.FromAddress,
		ToAddress:       req.ToAddress,
		Value:           req.Value,
		GasUsed:         req.GasUsed,
		GasPrice:        req.GasPrice,
		Data:            req.Data,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to record blockchain transaction")
		return
	}

	c.JSON(http.StatusCreated, tx)
}

func (h *BlockchainHandler) ListChainTransactions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	txs, err := h.queries.ListChainTransactions(c.Request.Context(), cqrs.ListChainTransactionsQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to list blockchain transactions")
		return
	}

	c.JSON(http.StatusOK, ListChainTransactionsResponse{Transactions: txs})
}

func (h *BlockchainHandler) GetChainTransaction(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	tx, err := h.queries.GetChainTransaction(c.Request.Context(), cqrs.GetChainTransactionQuery{
		ChainTxID:        c.Param("chainTxId"),
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to fetch blockchain transaction")
		return
	}

	c.JSON(http.StatusOK, tx)
}

func (h *BlockchainHandler) ConfirmChainTransaction(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req ConfirmChainTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.commands.ConfirmChainTransaction(c.Request.Context(), cqrs.ConfirmChainTransactionCommand{
		ChainTxID:        c.Param("chainTxId"),
		RequestingUserID: userID,
		BlockNumber:      req.BlockNumber,
		GasUsed:          req.GasUsed,
		Receipt:          req.Receipt,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to confirm blockchain transaction")
		return
	}

	c.JSON(http.StatusOK, tx)
}

// ---------- Gas prices ----------

func (h *BlockchainHandler) RecordGasPrice(c *gin.Context) {
	var req RecordGasPriceRequest
	if !bindJSON(c, &req) {
		return
	}

	price, err := h.commands.RecordGasPrice(c.Request.Context(), cqrs.RecordGasPriceCommand{
		Network:      models.Network(req.Network),
		GasPriceGwei: req.GasPriceGwei,
		BlockNumber:  req.BlockNumber,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to record gas price")
		return
	}

	c.JSON(http.StatusCreated, price)
}

// LatestGasPrice returns the newest sample for ?network= (default sepolia).
func (h *BlockchainHandler) LatestGasPrice(c *gin.Context) {
	price, err := h.queries.LatestGasPrice(c.Request.Context(), cqrs.LatestGasPriceQuery{
		Network: models.Network(c.Query("network")),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to fetch gas price")
		return
	}

	c.JSON(http.StatusOK, price)
}
