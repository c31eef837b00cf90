// Package history persists the shares published from this machine.
//
// The server never learns the fragment of a share, so a lost link cannot be
// recovered from it. The CLI therefore records every published link in a
// local SQLite database (see internal/client/migrations) and lets the user
// list and forget them.
//
//	repo := history.NewSQLiteRepository(db)
//	_ = repo.Add(ctx, share)
//	list, _ := repo.List(ctx)
//	_ = repo.Forget(ctx, server, id)
//	n, _ := repo.PurgeExpired(ctx, time.Now())
package history
