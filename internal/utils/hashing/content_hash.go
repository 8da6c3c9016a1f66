// Package hashing computes stable fingerprints of transaction set contents.
package hashing

import (
	"encoding/hex"
	"strconv"

	"github.com/SscSPs/bizledger/internal/core/domain"
	"golang.org/x/crypto/blake2b"
)

const fieldSep = 0x1f

// ContentHash returns the hex blake2b-256 digest of the business transactions in order.
// Decimals are written in their canonical string form so 1.50 and 1.5 hash the same.
func ContentHash(setID string, bts []domain.BusinessTransaction) string {
	h, _ := blake2b.New256(nil) // only fails for keys longer than 64 bytes
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{fieldSep})
	}

	write(setID)
	for _, bt := range bts {
		write("bt")
		write(bt.ID)
		write(bt.Type)
		write(bt.Memo)
		for _, l := range bt.Lines {
			write(strconv.Itoa(l.LineNo))
			write(l.Description)
			write(l.Quantity.String())
			write(l.UnitPrice.String())
			write(l.Amount.String())
			write(l.TaxCode)
			write(l.TaxAmount.String())
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
