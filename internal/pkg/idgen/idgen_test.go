package idgen_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calistree/progression-api/internal/pkg/idgen"
)

func TestPrefixedGeneratorFormat(t *testing.T) {
	gen := idgen.NewPrefixed("quest")

	id := gen.Generate()
	assert.Regexp(t, `^quest_\d+_[0-9a-f]{8}$`, id)
	assert.NotEqual(t, id, gen.Generate())
}

func TestSequentialGeneratorCounts(t *testing.T) {
	gen := idgen.NewSequential("q")

	assert.Equal(t, "q_1", gen.Generate())
	assert.Equal(t, "q_2", gen.Generate())

	bare := idgen.NewSequential("")
	assert.Equal(t, "1", bare.Generate())
}

func TestUUIDGenerator(t *testing.T) {
	gen := idgen.NewUUID("quest")

	id := gen.Generate()
	require.Regexp(t, `^quest_`, id)
	_, err := uuid.Parse(id[len("quest_"):])
	require.NoError(t, err)

	assert.NotEqual(t, id, gen.Generate())

	bare := idgen.NewUUID("")
	_, err = uuid.Parse(bare.Generate())
	require.NoError(t, err)
}
