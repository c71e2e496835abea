// Package models defines the ledger domain types shared by every ledger
// component: transactions, games and players, plus the boundary decoding
// that turns loosely shaped stored records into them.
package models
