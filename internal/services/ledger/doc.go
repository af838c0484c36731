/*
Package ledger posts immutable credit and debit entries against user and
tournament accounts.

Every posting locks the account row, derives the new running balance and
writes the entry together with the balance, inside the transaction of the
caller:

	err := store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
	    _, err := ledgerSvc.Post(ctx, tx, ledger.PostRequest{
	        AccountType: models.AccountTournament,
	        OwnerID:     tournamentID,
	        Type:        models.EntryCredit,
	        Amount:      1000,
	        Category:    models.LedgerEntryFee,
	    })
	    return err
	})

Balances may go negative. Entries are never updated or deleted; a refund is a
new DEBIT entry.

Reconcile re-sums the entries of an account and reports whether the stored
balance and the latest BalanceAfter agree with that sum.
*/
package ledger
