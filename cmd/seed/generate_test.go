package main

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sngm3741/survey-manager-api/internal/infrastructure/memory"
	"github.com/sngm3741/survey-manager-api/internal/survey/application"
)

func TestGenerateAuthors_Unique(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	authors := generateAuthors(rng, 20)
	require.Len(t, authors, 20)

	seen := make(map[string]struct{})
	for _, a := range authors {
		_, dup := seen[a]
		require.False(t, dup, a)
		seen[a] = struct{}{}
	}
}

func TestGenerateSurveys_EveryAuthorGetsOne(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	authors := []string{"a", "b", "c"}
	cmds := generateSurveys(rng, authors, 10)
	require.Len(t, cmds, 10)

	perAuthor := map[string]int{}
	for _, cmd := range cmds {
		perAuthor[cmd.Author]++
		require.NotEmpty(t, cmd.Title)
		require.NotEmpty(t, cmd.Questions)
		for _, q := range cmd.Questions {
			require.True(t, q.Kind.Valid())
			if q.Kind.HasChoices() {
				require.GreaterOrEqual(t, len(q.Choices), 2)
			} else {
				require.Empty(t, q.Choices)
			}
		}
	}
	for _, a := range authors {
		require.GreaterOrEqual(t, perAuthor[a], 1, a)
	}
}

func TestGenerateSurveys_Deterministic(t *testing.T) {
	first := generateSurveys(rand.New(rand.NewSource(42)), []string{"x", "y"}, 6)
	second := generateSurveys(rand.New(rand.NewSource(42)), []string{"x", "y"}, 6)
	require.Equal(t, first, second)
}

func TestGeneratedSurveysDispatch(t *testing.T) {
	store := memory.NewSurveyRepository()
	commands := application.NewCommandDispatcher(store, nil)
	rng := rand.New(rand.NewSource(3))

	for _, cmd := range generateSurveys(rng, []string{"sakura"}, 4) {
		_, err := commands.Dispatch(context.Background(), cmd)
		require.NoError(t, err)
	}

	payload, err := store.FindByAuthor(context.Background(), "sakura", nil)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"author":"sakura"`)
}

func TestDistribute(t *testing.T) {
	counts := distribute(10, 3, 1, 10, rand.New(rand.NewSource(1)))
	sum := 0
	for _, c := range counts {
		require.GreaterOrEqual(t, c, 1)
		sum += c
	}
	require.Equal(t, 10, sum)
	require.Nil(t, distribute(5, 0, 1, 5, rand.New(rand.NewSource(1))))
}
