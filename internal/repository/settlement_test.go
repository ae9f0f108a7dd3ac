package repository

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// ledger_entries.related_transaction_id is TEXT while settlement ids are
// UUID; Postgres has no implicit equality between the two, so the owner
// history join must cast the settlement id
func TestListByOwnerQuery_CastsSettlementIDToText(t *testing.T) {
	require.Contains(t, listByOwnerQuery, "le.related_transaction_id = st.id::text")

	// the wallet join compares two UUID columns and needs no cast
	require.Contains(t, listByOwnerQuery, "w.id = le.wallet_id")
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "settlement_transactions_booking_id_key"}
	require.True(t, IsUniqueViolation(unique))
	require.True(t, IsUniqueViolation(fmt.Errorf("insert settlement: %w", unique)))

	require.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsUniqueViolation(fmt.Errorf("connection reset")))
	require.False(t, IsUniqueViolation(nil))
}
