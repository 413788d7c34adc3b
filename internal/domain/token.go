// Package domain holds the data model shared by the cache, the encoder,
// and the submitter: tokens, orders, balance queries, and the auction
// snapshot handed to solvers.
package domain

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Token is the 20-byte ERC20 address identifying a tradable asset.
// Ordering is byte-lexicographic, matching the on-chain settlement
// contract's token-index encoding.
type Token = common.Address

// SortTokens sorts a slice of tokens ascending in place and returns it.
func SortTokens(tokens []Token) []Token {
	sort.Slice(tokens, func(i, j int) bool {
		return bytes.Compare(tokens[i].Bytes(), tokens[j].Bytes()) < 0
	})
	return tokens
}

// TokensSorted reports whether tokens is strictly ascending with no duplicates.
func TokensSorted(tokens []Token) bool {
	for i := 1; i < len(tokens); i++ {
		if bytes.Compare(tokens[i-1].Bytes(), tokens[i].Bytes()) >= 0 {
			return false
		}
	}
	return true
}

// IndexOf returns the index of t in a slice known to be sorted ascending,
// or -1 if absent. Binary search mirrors the encoder's index lookups.
func IndexOf(tokens []Token, t Token) int {
	lo, hi := 0, len(tokens)
	for lo < hi {
		mid := (lo + hi) / 2
		switch bytes.Compare(tokens[mid].Bytes(), t.Bytes()) {
		case 0:
			return mid
		case -1:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1
}
