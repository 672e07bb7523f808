package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Beegash/BBWallet/internal/models"
	"github.com/shopspring/decimal"
)

// BlockchainRepository stores the off-chain bookkeeping for contracts, NFTs,
// chain transactions and gas price samples.
type BlockchainRepository struct {
	db *sql.DB
}

func NewBlockchainRepository(db *sql.DB) *BlockchainRepository {
	return &BlockchainRepository{db: db}
}

// ---------- Smart contracts ----------

const contractColumns = `id, user_id, child_id, investment_id, contract_type, contract_address, network, status,
	deployment_hash, block_number, gas_used, gas_price, deployed_at, created_at, updated_at`

func scanContract(row rowScanner) (*models.SmartContract, error) {
	var c models.SmartContract
	var investmentID sql.NullString
	var block, gasUsed, gasPrice sql.NullInt64
	var deployedAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.UserID, &c.ChildID, &investmentID, &c.ContractType, &c.ContractAddress, &c.Network, &c.Status,
		&c.DeploymentHash, &block, &gasUsed, &gasPrice, &deployedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.InvestmentID = investmentID.String
	c.BlockNumber = int64Ptr(block)
	c.GasUsed = int64Ptr(gasUsed)
	c.GasPrice = int64Ptr(gasPrice)
	c.DeployedAt = timePtr(deployedAt)
	return &c, nil
}

func (r *BlockchainRepository) CreateContract(ctx context.Context, c *models.SmartContract) error {
	query := `
		INSERT INTO smart_contracts (id, user_id, child_id, investment_id, contract_type, contract_address, network,
			status, deployment_hash, block_number, gas_used, gas_price, deployed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.ChildID, nullString(c.InvestmentID), c.ContractType, c.ContractAddress, c.Network,
		c.Status, c.DeploymentHash, nullInt64(c.BlockNumber), nullInt64(c.GasUsed), nullInt64(c.GasPrice),
		nullTime(c.DeployedAt), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", mapPQError(err, models.ErrConflict))
	}
	return nil
}

func (r *BlockchainRepository) GetContract(ctx context.Context, id string) (*models.SmartContract, error) {
	query := `SELECT ` + contractColumns + ` FROM smart_contracts WHERE id = $1`
	c, err := scanContract(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return c, nil
}

// ListContracts returns a user's contracts, optionally for one child.
func (r *BlockchainRepository) ListContracts(ctx context.Context, userID, childID string) ([]models.SmartContract, error) {
	query := `SELECT ` + contractColumns + `
		FROM smart_contracts
		WHERE user_id = $1 AND ($2 = '' OR child_id = $2)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	contracts := []models.SmartContract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, *c)
	}
	return contracts, rows.Err()
}

// DeployedNFTContract returns the child's deployed nft contract, newest first.
func (r *BlockchainRepository) DeployedNFTContract(ctx context.Context, childID string) (*models.SmartContract, error) {
	query := `SELECT ` + contractColumns + `
		FROM smart_contracts
		WHERE child_id = $1 AND contract_type = $2 AND status = $3
		ORDER BY deployed_at DESC NULLS LAST
		LIMIT 1`
	c, err := scanContract(r.db.QueryRowContext(ctx, query, childID, models.ContractNFT, models.ContractDeployed))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nft contract: %w", err)
	}
	return c, nil
}

func (r *BlockchainRepository) UpdateContractDeployment(ctx context.Context, c *models.SmartContract) error {
	query := `
		UPDATE smart_contracts
		SET status = $2, deployment_hash = $3, block_number = $4, gas_used = $5, gas_price = $6,
			deployed_at = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		c.ID, c.Status, c.DeploymentHash, nullInt64(c.BlockNumber), nullInt64(c.GasUsed), nullInt64(c.GasPrice),
		nullTime(c.DeployedAt), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	return expectOneRow(result, models.ErrContractNotFound)
}

// ---------- NFTs ----------

const nftColumns = `id, user_id, child_id, smart_contract_id, nft_type, token_id, token_uri, metadata, status,
	mint_hash, block_number, minted_at, created_at, updated_at`

func scanNFT(row rowScanner) (*models.NFT, error) {
	var n models.NFT
	var metadata []byte
	var block sql.NullInt64
	var mintedAt sql.NullTime
	err := row.Scan(
		&n.ID, &n.UserID, &n.ChildID, &n.SmartContractID, &n.NFTType, &n.TokenID, &n.TokenURI, &metadata, &n.Status,
		&n.MintHash, &block, &mintedAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode nft metadata: %w", err)
	}
	n.BlockNumber = int64Ptr(block)
	n.MintedAt = timePtr(mintedAt)
	return &n, nil
}

func marshalJSONB(v map[string]any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

// CreateNFT assigns the next token id within the contract. milestone is
// stored for milestone NFTs so each (child, milestone) is issued once; a
// repeat returns models.ErrConflict.
func (r *BlockchainRepository) CreateNFT(ctx context.Context, n *models.NFT, milestone *int64) error {
	metadata, err := marshalJSONB(n.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode nft metadata: %w", err)
	}
	query := `
		INSERT INTO nfts (id, user_id, child_id, smart_contract_id, nft_type, token_id, token_uri, metadata,
			status, mint_hash, block_number, minted_at, milestone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(token_id), 0) + 1 FROM nfts WHERE smart_contract_id = $4),
			$6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING token_id
	`
	err = r.db.QueryRowContext(ctx, query,
		n.ID, n.UserID, n.ChildID, n.SmartContractID, n.NFTType, n.TokenURI, metadata,
		n.Status, n.MintHash, nullInt64(n.BlockNumber), nullTime(n.MintedAt), nullInt64(milestone),
		n.CreatedAt, n.UpdatedAt,
	).Scan(&n.TokenID)
	if err != nil {
		return fmt.Errorf("failed to create nft: %w", mapPQError(err, models.ErrConflict))
	}
	return nil
}

func (r *BlockchainRepository) GetNFT(ctx context.Context, id string) (*models.NFT, error) {
	query := `SELECT ` + nftColumns + ` FROM nfts WHERE id = $1`
	n, err := scanNFT(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNFTNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}
	return n, nil
}

func (r *BlockchainRepository) ListNFTs(ctx context.Context, userID, childID string) ([]models.NFT, error) {
	query := `SELECT ` + nftColumns + `
		FROM nfts
		WHERE user_id = $1 AND ($2 = '' OR child_id = $2)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nfts: %w", err)
	}
	defer rows.Close()

	nfts := []models.NFT{}
	for rows.Next() {
		n, err := scanNFT(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nft: %w", err)
		}
		nfts = append(nfts, *n)
	}
	return nfts, rows.Err()
}

func (r *BlockchainRepository) UpdateNFT(ctx context.Context, n *models.NFT) error {
	metadata, err := marshalJSONB(n.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode nft metadata: %w", err)
	}
	query := `
		UPDATE nfts
		SET status = $2, mint_hash = $3, block_number = $4, minted_at = $5, metadata = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		n.ID, n.Status, n.MintHash, nullInt64(n.BlockNumber), nullTime(n.MintedAt), metadata, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update nft: %w", err)
	}
	return expectOneRow(result, models.ErrNFTNotFound)
}

// ---------- Blockchain transactions ----------

const chainTxColumns = `id, user_id, transaction_type, transaction_hash, block_number, gas_used, gas_price, status,
	network, from_address, to_address, value, data, receipt, confirmed_at, created_at, updated_at`

func scanChainTx(row rowScanner) (*models.BlockchainTransaction, error) {
	var t models.BlockchainTransaction
	var block, gasUsed, gasPrice sql.NullInt64
	var value decimal.NullDecimal
	var receipt []byte
	var confirmedAt sql.NullTime
	err := row.Scan(
		&t.ID, &t.UserID, &t.TransactionType, &t.TransactionHash, &block, &gasUsed, &gasPrice, &t.Status,
		&t.Network, &t.FromAddress, &t.ToAddress, &value, &t.Data, &receipt, &confirmedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(receipt, &t.Receipt); err != nil {
		return nil, fmt.Errorf("failed to decode receipt: %w", err)
	}
	t.BlockNumber = int64Ptr(block)
	t.GasUsed = int64Ptr(gasUsed)
	t.GasPrice = int64Ptr(gasPrice)
	t.Value = decimalPtr(value)
	t.ConfirmedAt = timePtr(confirmedAt)
	return &t, nil
}

func (r *BlockchainRepository) CreateChainTransaction(ctx context.Context, t *models.BlockchainTransaction) error {
	receipt, err := marshalJSONB(t.Receipt)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}
	var value decimal.NullDecimal
	if t.Value != nil {
		value = decimal.NullDecimal{Decimal: *t.Value, Valid: true}
	}
	query := `
		INSERT INTO blockchain_transactions (id, user_id, transaction_type, transaction_hash, block_number, gas_used,
			gas_price, status, network, from_address, to_address, value, data, receipt, confirmed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.TransactionType, t.TransactionHash, nullInt64(t.BlockNumber), nullInt64(t.GasUsed),
		nullInt64(t.GasPrice), t.Status, t.Network, t.FromAddress, t.ToAddress, value, t.Data, receipt,
		nullTime(t.ConfirmedAt), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create blockchain transaction: %w", mapPQError(err, models.ErrDuplicateHash))
	}
	return nil
}

func (r *BlockchainRepository) GetChainTransaction(ctx context.Context, id string) (*models.BlockchainTransaction, error) {
	query := `SELECT ` + chainTxColumns + ` FROM blockchain_transactions WHERE id = $1`
	t, err := scanChainTx(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrChainTxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blockchain transaction: %w", err)
	}
	return t, nil
}

func (r *BlockchainRepository) ListChainTransactions(ctx context.Context, userID string) ([]models.BlockchainTransaction, error) {
	query := `SELECT ` + chainTxColumns + `
		FROM blockchain_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blockchain transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.BlockchainTransaction{}
	for rows.Next() {
		t, err := scanChainTx(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blockchain transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (r *BlockchainRepository) UpdateChainTransaction(ctx context.Context, t *models.BlockchainTransaction) error {
	receipt, err := marshalJSONB(t.Receipt)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}
	query := `
		UPDATE blockchain_transactions
		SET status = $2, block_number = $3, gas_used = $4, receipt = $5, confirmed_at = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		t.ID, t.Status, nullInt64(t.BlockNumber), nullInt64(t.GasUsed), receipt, nullTime(t.ConfirmedAt), t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update blockchain transaction: %w", err)
	}
	return expectOneRow(result, models.ErrChainTxNotFound)
}

// ---------- Gas prices ----------

func (r *BlockchainRepository) RecordGasPrice(ctx context.Context, g *models.GasPrice) error {
	query := `
		INSERT INTO gas_prices (network, gas_price_gwei, gas_price_eth, block_number, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, g.Network, g.GasPriceGwei, g.GasPriceEth, g.BlockNumber, g.Timestamp).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("failed to record gas price: %w", mapPQError(err, models.ErrConflict))
	}
	return nil
}

// LatestGasPrice returns the most recent sample for the network.
func (r *BlockchainRepository) LatestGasPrice(ctx context.Context, network models.Network) (*models.GasPrice, error) {
	query := `
		SELECT id, network, gas_price_gwei, gas_price_eth, block_number, recorded_at
		FROM gas_prices
		WHERE network = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`
	var g models.GasPrice
	err := r.db.QueryRowContext(ctx, query, network).Scan(
		&g.ID, &g.Network, &g.GasPriceGwei, &g.GasPriceEth, &g.BlockNumber, &g.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrGasPriceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return &g, nil
}
