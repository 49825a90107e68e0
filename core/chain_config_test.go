package core

import (
	"math/big"
	"testing"
)

func TestForkFlagsAtActivationBoundary(t *testing.T) {
	cfg := &ChainConfig{
		ByzantiumBlock:      big.NewInt(100),
		ConstantinopleBlock: big.NewInt(200),
		LondonBlock:         big.NewInt(300),
	}

	cases := []struct {
		number         int64
		wantByzantium  bool
		wantConstant   bool
		wantLondon     bool
	}{
		{99, false, false, false},
		{100, true, false, false},
		{199, true, false, false},
		{200, true, true, false},
		{300, true, true, true},
	}
	for _, c := range cases {
		flags := cfg.ForkFlagsAt(big.NewInt(c.number))
		if flags.Byzantium != c.wantByzantium || flags.Constantinople != c.wantConstant || flags.London != c.wantLondon {
			t.Errorf("block %d: flags = %+v, want byzantium=%v constantinople=%v london=%v",
				c.number, flags, c.wantByzantium, c.wantConstant, c.wantLondon)
		}
	}
}

func TestMainnetConfigOrdersForksAscending(t *testing.T) {
	cfg := MainnetConfig()
	blocks := []*big.Int{cfg.HomesteadBlock, cfg.EIP150Block, cfg.EIP158Block, cfg.ByzantiumBlock, cfg.ConstantinopleBlock, cfg.LondonBlock}
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Cmp(blocks[i-1]) <= 0 {
			t.Errorf("fork block %d (%s) not strictly after block %d (%s)", i, blocks[i], i-1, blocks[i-1])
		}
	}
}
