package command

import (
	"context"
	"fmt"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/events"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/projection"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/Beegash/BBWallet/internal/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	addressHexDigits = 40
	hashHexDigits    = 64
)

var validNetworks = map[models.Network]bool{
	models.NetworkMainnet: true,
	models.NetworkSepolia: true,
	models.NetworkGoerli:  true,
	models.NetworkPolygon: true,
}

// BlockchainCommandService keeps the off-chain records of contracts, NFTs and
// chain transactions. Deploying and minting only move the record to its final
// status; no RPC is made.
type BlockchainCommandService struct {
	repo           *repository.BlockchainRepository
	childRepo      *repository.ChildReadRepository
	investmentRepo *repository.InvestmentRepository
	notifier
}

func NewBlockchainCommandService(
	repo *repository.BlockchainRepository,
	childRepo *repository.ChildReadRepository,
	investmentRepo *repository.InvestmentRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *BlockchainCommandService {
	return &BlockchainCommandService{
		repo:           repo,
		childRepo:      childRepo,
		investmentRepo: investmentRepo,
		notifier:       notifier{publisher: publisher, logger: logger},
	}
}

// ---------- Smart contracts ----------

func (s *BlockchainCommandService) CreateContract(ctx context.Context, cmd cqrs.CreateContractCommand) (*models.SmartContract, error) {
	switch cmd.ContractType {
	case models.ContractSavings, models.ContractInvestment, models.ContractNFT:
	default:
		return nil, fmt.Errorf("%w: unknown contract type %q", models.ErrValidation, cmd.ContractType)
	}
	network := cmd.Network
	if network == "" {
		network = models.NetworkSepolia
	}
	if !validNetworks[network] {
		return nil, fmt.Errorf("%w: unknown network %q", models.ErrValidation, network)
	}
	if _, err := ownedChild(ctx, s.childRepo, cmd.ChildID, cmd.UserID); err != nil {
		return nil, err
	}
	if cmd.InvestmentID != "" {
		inv, err := s.investmentRepo.GetByID(ctx, cmd.InvestmentID)
		if err != nil {
			return nil, err
		}
		if inv.UserID != cmd.UserID || inv.ChildID != cmd.ChildID {
			return nil, models.ErrInvalidReference
		}
	}

	ts := now()
	contract := &models.SmartContract{
		ID:              utils.GenerateID(utils.PrefixContract),
		UserID:          cmd.UserID,
		ChildID:         cmd.ChildID,
		InvestmentID:    cmd.InvestmentID,
		ContractType:    cmd.ContractType,
		ContractAddress: utils.PlaceholderHex(addressHexDigits),
		Network:         network,
		Status:          models.ContractPending,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	if err := s.repo.CreateContract(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// DeployContract marks a pending contract deployed. Deploying twice is a no-op.
func (s *BlockchainCommandService) DeployContract(ctx context.Context, cmd cqrs.DeployContractCommand) (*models.SmartContract, error) {
	contract, err := s.repo.GetContract(ctx, cmd.ContractID)
	if err != nil {
		return nil, err
	}
	if contract.UserID != cmd.RequestingUserID {
		return nil, models.ErrForbidden
	}
	switch contract.Status {
	case models.ContractDeployed:
		return contract, nil
	case models.ContractPending, models.ContractFailed:
	default:
		return nil, models.ErrInvalidStateMove
	}

	ts := now()
	contract.Status = models.ContractDeployed
	contract.DeploymentHash = utils.PlaceholderHex(hashHexDigits)
	contract.DeployedAt = &ts
	contract.UpdatedAt = ts
	if err := s.repo.UpdateContractDeployment(ctx, contract); err != nil {
		return nil, err
	}
	s.publish(ctx, events.BlockchainEventsStream, events.ContractDeployed, events.ContractDeployedEvent{
		ContractID:      contract.ID,
		ChildID:         contract.ChildID,
		UserID:          contract.UserID,
		ContractAddress: contract.ContractAddress,
		Network:         string(contract.Network),
	})
	return contract, nil
}

// ---------- NFTs ----------

func (s *BlockchainCommandService) CreateNFT(ctx context.Context, cmd cqrs.CreateNFTCommand) (*models.NFT, error) {
	switch cmd.NFTType {
	case models.NFTSavings, models.NFTAchievement, models.NFTMilestone:
	default:
		return nil, fmt.Errorf("%w: unknown nft type %q", models.ErrValidation, cmd.NFTType)
	}
	contract, err := s.repo.GetContract(ctx, cmd.SmartContractID)
	if err != nil {
		return nil, err
	}
	if contract.UserID != cmd.UserID || contract.ChildID != cmd.ChildID {
		return nil, models.ErrInvalidReference
	}

	ts := now()
	nft := &models.NFT{
		ID:              utils.GenerateID(utils.PrefixNFT),
		UserID:          cmd.UserID,
		ChildID:         cmd.ChildID,
		SmartContractID: contract.ID,
		NFTType:         cmd.NFTType,
		TokenURI:        cmd.TokenURI,
		Metadata:        cmd.Metadata,
		Status:          models.NFTPending,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	if nft.Metadata == nil {
		nft.Metadata = map[string]any{}
	}
	if err := s.repo.CreateNFT(ctx, nft, nil); err != nil {
		return nil, err
	}
	return nft, nil
}

func (s *BlockchainCommandService) MintNFT(ctx context.Context, cmd cqrs.MintNFTCommand) (*models.NFT, error) {
	nft, err := s.ownedNFT(ctx, cmd.NFTID, cmd.RequestingUserID)
	if err != nil {
		return nil, err
	}
	switch nft.Status {
	case models.NFTMinted:
		return nft, nil
	case models.NFTPending, models.NFTFailed:
	default:
		return nil, models.ErrInvalidStateMove
	}

	ts := now()
	nft.Status = models.NFTMinted
	nft.MintHash = utils.PlaceholderHex(hashHexDigits)
	nft.MintedAt = &ts
	nft.UpdatedAt = ts
	if err := s.repo.UpdateNFT(ctx, nft); err != nil {
		return nil, err
	}
	s.publish(ctx, events.BlockchainEventsStream, events.NFTMinted, nftEvent(nft))
	return nft, nil
}

// TransferNFT hands a minted NFT to the child once they reach the unlock age.
func (s *BlockchainCommandService) TransferNFT(ctx context.Context, cmd cqrs.TransferNFTCommand) (*models.NFT, error) {
	nft, err := s.ownedNFT(ctx, cmd.NFTID, cmd.RequestingUserID)
	if err != nil {
		return nil, err
	}
	if nft.Status != models.NFTMinted {
		return nil, models.ErrInvalidStateMove
	}
	child, err := s.childRepo.GetByID(ctx, nft.ChildID)
	if err != nil {
		return nil, err
	}
	if !projection.IsNFTTransferable(child, utils.Today()) {
		return nil, models.ErrNotTransferable
	}

	ts := now()
	nft.Metadata["transferred_to_child"] = true
	nft.Metadata["transfer_date"] = ts.Format(utils.DateLayout)
	nft.UpdatedAt = ts
	if err := s.repo.UpdateNFT(ctx, nft); err != nil {
		return nil, err
	}
	s.publish(ctx, events.BlockchainEventsStream, events.NFTTransferred, nftEvent(nft))
	return nft, nil
}

func (s *BlockchainCommandService) ownedNFT(ctx context.Context, id, userID string) (*models.NFT, error) {
	nft, err := s.repo.GetNFT(ctx, id)
	if err != nil {
		return nil, err
	}
	if nft.UserID != userID {
		return nil, models.ErrForbidden
	}
	if nft.Metadata == nil {
		nft.Metadata = map[string]any{}
	}
	return nft, nil
}

func nftEvent(n *models.NFT) events.NFTEvent {
	return events.NFTEvent{
		NFTID:   n.ID,
		ChildID: n.ChildID,
		UserID:  n.UserID,
		NFTType: string(n.NFTType),
		TokenID: n.TokenID,
	}
}

// ---------- Chain transactions ----------

func (s *BlockchainCommandService) CreateChainTransaction(ctx context.Context, cmd cqrs.CreateChainTransactionCommand) (*models.BlockchainTransaction, error) {
	switch cmd.TransactionType {
	case models.ChainTxDeploy, models.ChainTxMint, models.ChainTxTransfer, models.ChainTxWithdraw, models.ChainTxDeposit:
	default:
		return nil, fmt.Errorf("%w: unknown transaction type %q", models.ErrValidation, cmd.TransactionType)
	}
	network := cmd.Network
	if network == "" {
		network = models.NetworkSepolia
	}
	if !validNetworks[network] {
		return nil, fmt.Errorf("%w: unknown network %q", models.ErrValidation, network)
	}
	if cmd.Value != nil && cmd.Value.IsNegative() {
		return nil, fmt.Errorf("%w: value must not be negative", models.ErrValidation)
	}

	ts := now()
	tx := &models.BlockchainTransaction{
		ID:              utils.GenerateID(utils.PrefixChainTx),
		UserID:          cmd.UserID,
		TransactionType: cmd.TransactionType,
		TransactionHash: cmd.TransactionHash,
		GasUsed:         cmd.GasUsed,
		GasPrice:        cmd.GasPrice,
		Status:          models.ChainTxPending,
		Network:         network,
		FromAddress:     cmd.FromAddress,
		ToAddress:       cmd.ToAddress,
		Value:           cmd.Value,
		Data:            cmd.Data,
		Receipt:         map[string]any{},
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	if err := s.repo.CreateChainTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *BlockchainCommandService) ConfirmChainTransaction(ctx context.Context, cmd cqrs.ConfirmChainTransactionCommand) (*models.BlockchainTransaction, error) {
	tx, err := s.repo.GetChainTransaction(ctx, cmd.ChainTxID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != cmd.RequestingUserID {
		return nil, models.ErrForbidden
	}
	if tx.Status != models.ChainTxPending {
		return nil, models.ErrInvalidStateMove
	}

	ts := now()
	block := cmd.BlockNumber
	tx.Status = models.ChainTxConfirmed
	tx.BlockNumber = &block
	if cmd.GasUsed != nil {
		tx.GasUsed = cmd.GasUsed
	}
	if cmd.Receipt != nil {
		tx.Receipt = cmd.Receipt
	}
	tx.ConfirmedAt = &ts
	tx.UpdatedAt = ts
	if err := s.repo.UpdateChainTransaction(ctx, tx); err != nil {
		return nil, err
	}
	s.publish(ctx, events.BlockchainEventsStream, events.ChainTxConfirmed, events.ChainTxConfirmedEvent{
		ChainTxID:       tx.ID,
		UserID:          tx.UserID,
		TransactionHash: tx.TransactionHash,
	})
	return tx, nil
}

// ---------- Gas prices ----------

func (s *BlockchainCommandService) RecordGasPrice(ctx context.Context, cmd cqrs.RecordGasPriceCommand) (*models.GasPrice, error) {
	if !validNetworks[cmd.Network] {
		return nil, fmt.Errorf("%w: unknown network %q", models.ErrValidation, cmd.Network)
	}
	if cmd.GasPriceGwei <= 0 {
		return nil, fmt.Errorf("%w: gasPriceGwei must be greater than zero", models.ErrValidation)
	}
	g := &models.GasPrice{
		Network:      cmd.Network,
		GasPriceGwei: cmd.GasPriceGwei,
		GasPriceEth:  decimal.New(cmd.GasPriceGwei, -9),
		BlockNumber:  cmd.BlockNumber,
		Timestamp:    now(),
	}
	if err := s.repo.RecordGasPrice(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}
