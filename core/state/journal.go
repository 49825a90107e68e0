package state

import "github.com/eth2030/eth2030/core/types"

// journalEntry is one undoable mutation. revert restores the StateDB to
// how it looked immediately before the mutation was applied.
type journalEntry interface {
	revert(*StateDB)
}

// journal is the append-only mutation log behind StateDB.Snapshot and
// RevertToSnapshot (§4.3, §5 "transactional journaling, not locks,
// provides isolation between sub-frames"). A snapshot is simply the
// journal's length at the moment it was taken; reverting replays undo
// actions from the end back to that length.
type journal struct {
	entries []journalEntry
}

func newJournal() *journal { return &journal{} }

func (j *journal) append(e journalEntry) { j.entries = append(j.entries, e) }

func (j *journal) length() int { return len(j.entries) }

func (j *journal) revertTo(db *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(db)
	}
	j.entries = j.entries[:snapshot]
}

type (
	createObjectChange struct {
		address types.Address
	}
	balanceChange struct {
		address types.Address
		prev    *types.Word
	}
	nonceChange struct {
		address types.Address
		prev    uint64
	}
	codeChange struct {
		address  types.Address
		prevCode []byte
		prevHash types.Hash256
	}
	storageChange struct {
		address  types.Address
		key      types.Hash256
		prevVal  types.Hash256
		hadValue bool
	}
	destructChange struct {
		address     types.Address
		prevDeleted bool
	}
	refundChange struct {
		prev uint64
	}
	addLogChange struct {
		txLogIndex int
	}
)

func (c createObjectChange) revert(db *StateDB) {
	delete(db.objects, c.address)
}

func (c balanceChange) revert(db *StateDB) {
	db.getOrCreateObject(c.address).account.Balance = c.prev
}

func (c nonceChange) revert(db *StateDB) {
	db.getOrCreateObject(c.address).account.Nonce = c.prev
}

func (c codeChange) revert(db *StateDB) {
	obj := db.getOrCreateObject(c.address)
	obj.code = c.prevCode
	obj.account.CodeHash = c.prevHash
}

func (c storageChange) revert(db *StateDB) {
	obj := db.getOrCreateObject(c.address)
	if c.hadValue {
		obj.dirtyStorage[c.key] = c.prevVal
	} else {
		delete(obj.dirtyStorage, c.key)
	}
}

func (c destructChange) revert(db *StateDB) {
	db.getOrCreateObject(c.address).deleted = c.prevDeleted
}

func (c refundChange) revert(db *StateDB) {
	db.refund = c.prev
}

func (c addLogChange) revert(db *StateDB) {
	db.logs = db.logs[:c.txLogIndex]
}
