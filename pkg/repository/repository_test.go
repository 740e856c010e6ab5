package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
	"github.com/chatling/chatling/pkg/repository/memory"
	"github.com/chatling/chatling/pkg/repository/sqlite"
)

func newMemoryRepo(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

func newSQLiteRepo(t *testing.T) interfaces.Repository {
	t.Helper()
	repo, err := sqlite.New(context.Background(), t.TempDir()+"/chatling.db")
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func runBackends(t *testing.T, test func(t *testing.T, newRepo func(t *testing.T) interfaces.Repository)) {
	t.Helper()
	t.Run("Memory", func(t *testing.T) {
		test(t, newMemoryRepo)
	})
	t.Run("SQLite", func(t *testing.T) {
		test(t, newSQLiteRepo)
	})
}

var userSeq atomic.Int64

func newUserID() types.UserID {
	return types.UserID(fmt.Sprintf("u-%d", userSeq.Add(1)))
}

func TestUserRepository(t *testing.T) {
	runBackends(t, runUserRepositoryTest)
}

func runUserRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetOrCreate creates on first contact", func(t *testing.T) {
		repo := newRepo(t)
		uid := newUserID()

		got, err := repo.User().Get(ctx, uid)
		gt.NoError(t, err).Required()
		gt.Value(t, got).Nil()

		created, err := repo.User().GetOrCreate(ctx, uid)
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID).Equal(uid)
		gt.Value(t, created.Language).Equal("")

		got, err = repo.User().Get(ctx, uid)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(uid)
	})

	t.Run("GetOrCreate preserves existing state", func(t *testing.T) {
		repo := newRepo(t)
		uid := newUserID()

		_, err := repo.User().GetOrCreate(ctx, uid)
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.User().UpdateLanguage(ctx, uid, "es")).Required()

		again, err := repo.User().GetOrCreate(ctx, uid)
		gt.NoError(t, err).Required()
		gt.Value(t, again.Language).Equal("es")
	})

	t.Run("UpdateLanguage on unknown user fails", func(t *testing.T) {
		repo := newRepo(t)
		gt.Error(t, repo.User().UpdateLanguage(ctx, newUserID(), "en"))
	})
}

func TestMessageRepository(t *testing.T) {
	runBackends(t, runMessageRepositoryTest)
}

func runMessageRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()
	ctx := context.Background()

	setup := func(t *testing.T, repo interfaces.Repository) types.UserID {
		t.Helper()
		uid := newUserID()
		_, err := repo.User().GetOrCreate(ctx, uid)
		gt.NoError(t, err).Required()
		return uid
	}

	t.Run("Append assigns increasing gap-free sequences", func(t *testing.T) {
		repo := newRepo(t)
		uid := setup(t, repo)

		for i := 0; i < 6; i++ {
			role := types.RoleUser
			if i%2 == 1 {
				role = types.RoleAgent
			}
			msg, err := repo.Message().Append(ctx, uid, role, fmt.Sprintf("message %d", i))
			gt.NoError(t, err).Required()
			gt.Value(t, msg.Seq).Equal(int64(i))
		}

		last, err := repo.Message().LastSeq(ctx, uid)
		gt.NoError(t, err).Required()
		gt.Value(t, last).Equal(int64(5))
	})

	t.Run("Append rejects invalid role", func(t *testing.T) {
		repo := newRepo(t)
		uid := setup(t, repo)

		_, err := repo.Message().Append(ctx, uid, types.RoleSystem, "not storable")
		gt.Error(t, err)
	})

	t.Run("AppendPair stores one turn as consecutive rows", func(t *testing.T) {
		repo := newRepo(t)
		uid := setup(t, repo)

		inbound, reply, err := repo.Message().AppendPair(ctx, uid, "hello", "hi there")
		gt.NoError(t, err).Required()
		gt.Value(t, inbound.Seq).Equal(int64(0))
		gt.Value(t, inbound.Role).Equal(types.RoleUser)
		gt.Value(t, reply.Seq).Equal(int64(1))
		gt.Value(t, reply.Role).Equal(types.RoleAgent)

		msgs, err := repo.Message().Recent(ctx, uid, 10)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(2)
	})

	t.Run("Recent returns last N oldest first", func(t *testing.T) {
		repo := newRepo(t)
		uid := setup(t, repo)

		for i := 0; i < 5; i++ {
			_, err := repo.Message().Append(ctx, uid, types.RoleUser, fmt.Sprintf("message %d", i))
			gt.NoError(t, err).Required()
		}

		msgs, err := repo.Message().Recent(ctx, uid, 3)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(3)
		gt.Value(t, msgs[0].Text).Equal("message 2")
		gt.Value(t, msgs[2].Text).Equal("message 4")
	})

	t.Run("Recent for unknown user is empty", func(t *testing.T) {
		repo := newRepo(t)

		msgs, err := repo.Message().Recent(ctx, newUserID(), 10)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(0)
	})

	t.Run("Range returns inclusive block oldest first", func(t *testing.T) {
		repo := newRepo(t)
		uid := setup(t, repo)

		for i := 0; i < 8; i++ {
			_, err := repo.Message().Append(ctx, uid, types.RoleUser, fmt.Sprintf("message %d", i))
			gt.NoError(t, err).Required()
		}

		msgs, err := repo.Message().Range(ctx, uid, 2, 5)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(4)
		gt.Value(t, msgs[0].Seq).Equal(int64(2))
		gt.Value(t, msgs[3].Seq).Equal(int64(5))
	})

	t.Run("LastSeq is -1 without messages", func(t *testing.T) {
		repo := newRepo(t)
		uid := setup(t, repo)

		last, err := repo.Message().LastSeq(ctx, uid)
		gt.NoError(t, err).Required()
		gt.Value(t, last).Equal(int64(-1))
	})

	t.Run("Concurrent appends never collide or leave gaps", func(t *testing.T) {
		repo := newRepo(t)
		uid := setup(t, repo)

		const workers = 10
		const perWorker = 10

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					_, err := repo.Message().Append(ctx, uid, types.RoleUser, "concurrent")
					gt.NoError(t, err)
				}
			}()
		}
		wg.Wait()

		msgs, err := repo.Message().Recent(ctx, uid, workers*perWorker+1)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(workers * perWorker)
		for i, m := range msgs {
			gt.Value(t, m.Seq).Equal(int64(i))
		}
	})
}

func TestSummaryRepository(t *testing.T) {
	runBackends(t, runSummaryRepositoryTest)
}

func runSummaryRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()
	ctx := context.Background()

	setup := func(t *testing.T, repo interfaces.Repository) types.UserID {
		t.Helper()
		uid := newUserID()
		_, err := repo.User().GetOrCreate(ctx, uid)
		gt.NoError(t, err).Required()
		return uid
	}

	t.Run("Put accepts contiguous ranges only", func(t *testing.T) {
		repo := newRepo(t)
		uid := setup(t, repo)

		gt.NoError(t, repo.Summary().Put(ctx, model.NewSummary(uid, "first", 0, 14))).Required()
		gt.NoError(t, repo.Summary().Put(ctx, model.NewSummary(uid, "second", 15, 29))).Required()

		// Gap
		err := repo.Summary().Put(ctx, model.NewSummary(uid, "gapped", 40, 50))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrSummaryConflict)).True()

		// Overlap
		err = repo.Summary().Put(ctx, model.NewSummary(uid, "overlapping", 20, 35))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrSummaryConflict)).True()

		// Duplicate of an already summarized range
		err = repo.Summary().Put(ctx, model.NewSummary(uid, "duplicate", 0, 14))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrSummaryConflict)).True()
	})

	t.Run("First summary must start at zero", func(t *testing.T) {
		repo := newRepo(t)
		uid := setup(t, repo)

		err := repo.Summary().Put(ctx, model.NewSummary(uid, "late start", 5, 10))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrSummaryConflict)).True()
	})

	t.Run("List returns summaries oldest first", func(t *testing.T) {
		repo := newRepo(t)
		uid := setup(t, repo)

		gt.NoError(t, repo.Summary().Put(ctx, model.NewSummary(uid, "first", 0, 9))).Required()
		gt.NoError(t, repo.Summary().Put(ctx, model.NewSummary(uid, "second", 10, 19))).Required()

		sums, err := repo.Summary().List(ctx, uid)
		gt.NoError(t, err).Required()
		gt.Array(t, sums).Length(2)
		gt.Value(t, sums[0].Text).Equal("first")
		gt.Value(t, sums[1].Text).Equal("second")

		latest, err := repo.Summary().Latest(ctx, uid)
		gt.NoError(t, err).Required()
		gt.Value(t, latest.Text).Equal("second")
		gt.Value(t, latest.RangeEnd).Equal(int64(19))
	})

	t.Run("Latest without summaries is nil", func(t *testing.T) {
		repo := newRepo(t)
		uid := setup(t, repo)

		latest, err := repo.Summary().Latest(ctx, uid)
		gt.NoError(t, err).Required()
		gt.Value(t, latest).Nil()
	})
}
