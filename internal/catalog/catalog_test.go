package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ParsesEmbeddedDecks(t *testing.T) {
	c := Default()

	assert.NotEmpty(t, c.Challenges())
	assert.NotEmpty(t, c.Roles())
	assert.NotEmpty(t, c.Synergies())
	// pair contents come in complete pairs
	assert.Zero(t, len(c.PairContents())%2)
}

func TestCatalog_LookupByID(t *testing.T) {
	c := Default()

	ch := c.Challenges()[0]
	got, ok := c.Challenge(ch.ID)
	assert.True(t, ok)
	assert.Equal(t, ch, got)

	role := c.Roles()[0]
	gotRole, ok := c.Role(role.ID)
	assert.True(t, ok)
	assert.Equal(t, role, gotRole)

	syn := c.Synergies()[0]
	gotSyn, ok := c.Synergy(syn.ID)
	assert.True(t, ok)
	assert.Equal(t, syn, gotSyn)

	_, ok = c.Challenge("no-such-card")
	assert.False(t, ok)
	_, ok = c.Role("no-such-card")
	assert.False(t, ok)
	_, ok = c.Synergy("no-such-card")
	assert.False(t, ok)
}

func TestCatalog_ChallengesByCategory(t *testing.T) {
	c := Default()

	for _, ch := range c.ChallengesByCategory("strategy") {
		assert.Equal(t, "strategy", ch.Category)
	}

	// empty category means no filter
	assert.Len(t, c.ChallengesByCategory(""), len(c.Challenges()))
}

func TestCatalog_ChallengesByDifficulty(t *testing.T) {
	c := Default()

	easy := c.ChallengesByDifficulty(1)
	for _, ch := range easy {
		assert.LessOrEqual(t, ch.Difficulty, 1)
	}
	assert.Len(t, c.ChallengesByDifficulty(3), len(c.Challenges()))
}

func TestCatalog_AccessorsReturnCopies(t *testing.T) {
	c := Default()

	chs := c.Challenges()
	original := chs[0].ID
	chs[0].ID = "mutated"

	again := c.Challenges()
	assert.Equal(t, original, again[0].ID)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decks.yaml")
	content := `
challenges:
  - id: "ch-test"
    title: "测试挑战"
    category: "strategy"
    difficulty: 1
    base_points: 40
    time_budget: 60
    tags: ["vision"]
roles:
  - id: "role-test"
    name: "测试角色"
    category: "strategy"
    tags: ["vision"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	ch, ok := c.Challenge("ch-test")
	require.True(t, ok)
	assert.Equal(t, 40, ch.BasePoints)
	assert.Equal(t, []string{"vision"}, ch.Tags)
}

func TestLoad_RejectsIncompleteDecks(t *testing.T) {
	dir := t.TempDir()

	noChallenges := filepath.Join(dir, "no-challenges.yaml")
	require.NoError(t, os.WriteFile(noChallenges, []byte(`
roles:
  - id: "role-1"
    name: "角色"
`), 0o644))
	_, err := Load(noChallenges)
	assert.Error(t, err)

	noRoles := filepath.Join(dir, "no-roles.yaml")
	require.NoError(t, os.WriteFile(noRoles, []byte(`
challenges:
  - id: "ch-1"
    title: "挑战"
`), 0o644))
	_, err = Load(noRoles)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/no/such/decks.yaml")
	assert.Error(t, err)
}
