// Package archive records rendered entries in a SQLite download archive.
//
// The archive lets a batch run skip (subscription, entry) pairs that an
// earlier run already produced. Each row holds the run that last wrote it,
// so a single run can be listed or audited later.
//
//	a, err := archive.Open(ctx, "archive.db")
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//
//	done, err := a.Has(ctx, "Nature Channel", "abc123")
package archive
