package core

import (
	"math/big"

	"github.com/eth2030/eth2030/core/state"
	"github.com/eth2030/eth2030/core/types"
)

// GenesisAccount is one entry of a genesis allocation: the starting
// balance, nonce, code and storage an address carries at block zero
// (§6 chain specification's "accounts" map).
type GenesisAccount struct {
	Balance *big.Int
	Nonce   uint64
	Code    []byte
	Storage map[types.Hash256]types.Hash256
}

// GenesisAlloc maps addresses to their genesis account state.
type GenesisAlloc map[types.Address]GenesisAccount

// Genesis holds the chain-spec JSON's genesis section (§6): the header
// fields fixed at block zero plus the pre-funded account set.
type Genesis struct {
	Config     *ChainConfig
	Nonce      uint64
	Timestamp  uint64
	ExtraData  []byte
	GasLimit   uint64
	Difficulty *big.Int
	MixHash    types.Hash256
	Author     types.Address
	ParentHash types.Hash256
	Alloc      GenesisAlloc
}

// ToBlock builds the genesis header with StateRoot left zero; callers
// needing a committed root go through Commit instead, which applies
// Alloc to a fresh StateDB first.
func (g *Genesis) ToBlock() *types.Block {
	header := g.header()
	return types.NewBlock(header, nil)
}

func (g *Genesis) header() *types.Header {
	difficulty := g.Difficulty
	if difficulty == nil {
		difficulty = new(big.Int)
	}
	header := &types.Header{
		ParentHash:  g.ParentHash,
		UnclesHash:  types.EmptyRootHash,
		Author:      g.Author,
		TxRoot:      types.EmptyRootHash,
		ReceiptRoot: types.EmptyRootHash,
		Difficulty:  difficulty,
		Number:      new(big.Int),
		GasLimit:    g.GasLimit,
		Timestamp:   g.Timestamp,
		ExtraData:   g.ExtraData,
		MixHash:     g.MixHash,
	}
	nonce := g.Nonce
	for i := 7; i >= 0; i-- {
		header.Nonce[i] = byte(nonce)
		nonce >>= 8
	}
	return header
}

// Commit applies the genesis allocation to a fresh in-memory StateDB,
// commits it, and returns the genesis block with StateRoot populated
// from the resulting trie root plus the StateDB itself, ready to back
// an Executive for block one.
func (g *Genesis) Commit() (*types.Block, *state.StateDB, error) {
	statedb := state.NewMemoryStateDB()
	for addr, account := range g.Alloc {
		statedb.CreateAccount(addr)
		if account.Balance != nil {
			statedb.AddBalance(addr, wordFromBig(account.Balance))
		}
		if account.Nonce > 0 {
			statedb.SetNonce(addr, account.Nonce)
		}
		if len(account.Code) > 0 {
			statedb.SetCode(addr, account.Code)
		}
		for key, val := range account.Storage {
			statedb.SetState(addr, key, val)
		}
	}
	root, err := statedb.Commit()
	if err != nil {
		return nil, nil, err
	}
	header := g.header()
	header.StateRoot = root
	return types.NewBlock(header, nil), statedb, nil
}

// MainnetGenesis returns a genesis specification with no pre-funded
// accounts, using MainnetConfig's fork schedule and classical Frontier
// difficulty/gas-limit starting values.
func MainnetGenesis() *Genesis {
	return &Genesis{
		Config:     MainnetConfig(),
		Difficulty: big.NewInt(17_179_869_184),
		GasLimit:   5000,
		Alloc:      GenesisAlloc{},
	}
}
