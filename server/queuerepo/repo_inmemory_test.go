package queuerepo_test

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/jrsteele09/go-queue-client/apimodel"
	"github.com/jrsteele09/go-queue-client/internal/utils"
	"github.com/jrsteele09/go-queue-client/server/queuerepo"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo *queuerepo.InMemoryRepo, owner int, names ...string) []apimodel.Queue {
	t.Helper()
	out := make([]apimodel.Queue, 0, len(names))
	for _, name := range names {
		q, err := repo.Create(apimodel.Queue{Name: name, ServiceProviderID: utils.Ptr(owner), MaxBlockCapacity: 1, MaxPartyCapacity: 1})
		require.NoError(t, err)
		out = append(out, q)
	}
	return out
}

func TestCreate_AssignsCodes(t *testing.T) {
	repo := queuerepo.NewInMemoryRepo()
	created := seed(t, repo, 1, "a", "b", "c")

	codePattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	seen := map[string]bool{}
	for _, q := range created {
		require.Regexp(t, codePattern, q.Code)
		require.False(t, seen[q.Code])
		seen[q.Code] = true

		got, err := repo.Get(q.Code)
		require.NoError(t, err)
		require.Equal(t, q, *got)
	}

	_, err := repo.Get("NOPE00")
	require.ErrorIs(t, err, queuerepo.ErrNotFound)
}

func TestCreate_RetriesTakenCodes(t *testing.T) {
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	i := 0
	repo := queuerepo.NewInMemoryRepo(queuerepo.WithCodeFunc(func() (string, error) {
		c := codes[i]
		i++
		return c, nil
	}))

	first := seed(t, repo, 1, "first")
	second := seed(t, repo, 1, "second")
	require.Equal(t, "AAAAAA", first[0].Code)
	require.Equal(t, "BBBBBB", second[0].Code)
}

func TestList(t *testing.T) {
	repo := queuerepo.NewInMemoryRepo()
	names := make([]string, 7)
	for i := range names {
		names[i] = fmt.Sprintf("Queue %d", i)
	}
	seed(t, repo, 1, names...)
	seed(t, repo, 2, "Other provider")

	t.Run("pages keep a stable total", func(t *testing.T) {
		page, total, err := repo.List(queuerepo.ListQuery{OwnerID: 1, Limit: 5})
		require.NoError(t, err)
		require.Len(t, page, 5)
		require.Equal(t, 7, total)
		require.Equal(t, "Queue 0", page[0].Name)

		page, total, err = repo.List(queuerepo.ListQuery{OwnerID: 1, Limit: 5, Offset: 5})
		require.NoError(t, err)
		require.Len(t, page, 2)
		require.Equal(t, 7, total)
		require.Equal(t, "Queue 6", page[1].Name)
	})

	t.Run("offset past the end", func(t *testing.T) {
		page, total, err := repo.List(queuerepo.ListQuery{OwnerID: 1, Limit: 5, Offset: 10})
		require.NoError(t, err)
		require.Empty(t, page)
		require.Equal(t, 7, total)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		page, total, err := repo.List(queuerepo.ListQuery{OwnerID: 1, Search: "queue 3", Limit: 5})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, "Queue 3", page[0].Name)
	})

	t.Run("scoped to owner", func(t *testing.T) {
		page, total, err := repo.List(queuerepo.ListQuery{OwnerID: 2, Limit: 5})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, "Other provider", page[0].Name)
	})
}
