package query

import (
	"context"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/projection"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/Beegash/BBWallet/internal/utils"
)

type BlockchainQueryService struct {
	repo      *repository.BlockchainRepository
	childRepo *repository.ChildReadRepository
}

func NewBlockchainQueryService(repo *repository.BlockchainRepository, childRepo *repository.ChildReadRepository) *BlockchainQueryService {
	return &BlockchainQueryService{repo: repo, childRepo: childRepo}
}

func (s *BlockchainQueryService) GetContract(ctx context.Context, q cqrs.GetContractQuery) (*models.ContractView, error) {
	contract, err := s.repo.GetContract(ctx, q.ContractID)
	if err != nil {
		return nil, err
	}
	if contract.UserID != q.RequestingUserID {
		return nil, models.ErrForbidden
	}
	child, err := s.childRepo.GetByID(ctx, contract.ChildID)
	if err != nil {
		return nil, err
	}
	return contractView(contract, child), nil
}

func (s *BlockchainQueryService) ListContracts(ctx context.Context, q cqrs.ListContractsQuery) ([]models.ContractView, error) {
	contracts, err := s.repo.ListContracts(ctx, q.UserID, q.ChildID)
	if err != nil {
		return nil, err
	}
	children := map[string]*models.ChildView{}
	views := make([]models.ContractView, 0, len(contracts))
	for i := range contracts {
		c := &contracts[i]
		child, ok := children[c.ChildID]
		if !ok {
			if child, err = s.childRepo.GetByID(ctx, c.ChildID); err != nil {
				return nil, err
			}
			children[c.ChildID] = child
		}
		views = append(views, *contractView(c, child))
	}
	return views, nil
}

func contractView(c *models.SmartContract, child *models.ChildView) *models.ContractView {
	return &models.ContractView{
		SmartContract:    *c,
		TotalValueLocked: projection.ContractValueLocked(c, child),
		GasCostEth:       projection.GasCostInNativeUnit(c.GasUsed, c.GasPrice),
	}
}

func (s *BlockchainQueryService) GetNFT(ctx context.Context, q cqrs.GetNFTQuery) (*models.NFTView, error) {
	nft, err := s.repo.GetNFT(ctx, q.NFTID)
	if err != nil {
		return nil, err
	}
	if nft.UserID != q.RequestingUserID {
		return nil, models.ErrForbidden
	}
	child, err := s.childRepo.GetByID(ctx, nft.ChildID)
	if err != nil {
		return nil, err
	}
	return &models.NFTView{NFT: *nft, IsTransferable: projection.IsNFTTransferable(child, utils.Today())}, nil
}

func (s *BlockchainQueryService) ListNFTs(ctx context.Context, q cqrs.ListNFTsQuery) ([]models.NFTView, error) {
	nfts, err := s.repo.ListNFTs(ctx, q.UserID, q.ChildID)
	if err != nil {
		return nil, err
	}
	today := utils.Today()
	transferable := map[string]bool{}
	views := make([]models.NFTView, 0, len(nfts))
	for _, n := range nfts {
		ok, seen := transferable[n.ChildID]
		if !seen {
			child, err := s.childRepo.GetByID(ctx, n.ChildID)
			if err != nil {
				return nil, err
			}
			ok = projection.IsNFTTransferable(child, today)
			transferable[n.ChildID] = ok
		}
		views = append(views, models.NFTView{NFT: n, IsTransferable: ok})
	}
	return views, nil
}

func (s *BlockchainQueryService) GetChainTransaction(ctx context.Context, q cqrs.GetChainTransactionQuery) (*models.ChainTransactionView, error) {
	tx, err := s.repo.GetChainTransaction(ctx, q.ChainTxID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != q.RequestingUserID {
		return nil, models.ErrForbidden
	}
	return &models.ChainTransactionView{
		BlockchainTransaction: *tx,
		GasCostEth:            projection.GasCostInNativeUnit(tx.GasUsed, tx.GasPrice),
	}, nil
}

func (s *BlockchainQueryService) ListChainTransactions(ctx context.Context, q cqrs.ListChainTransactionsQuery) ([]models.ChainTransactionView, error) {
	txs, err := s.repo.ListChainTransactions(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	views := make([]models.ChainTransactionView, len(txs))
	for i, tx := range txs {
		views[i] = models.ChainTransactionView{
			BlockchainTransaction: tx,
			GasCostEth:            projection.GasCostInNativeUnit(tx.GasUsed, tx.GasPrice),
		}
	}
	return views, nil
}

func (s *BlockchainQueryService) LatestGasPrice(ctx context.Context, q cqrs.LatestGasPriceQuery) (*models.GasPrice, error) {
	network := q.Network
	if network == "" {
		network = models.NetworkSepolia
	}
	return s.repo.LatestGasPrice(ctx, network)
}
