package replica

import (
	"testing"

	"github.com/stretchr/testify/require"

	"heartystore/internal/layout"
	"heartystore/internal/store"
)

func mustCreateStore(t *testing.T, base string, id uint32) *store.Container {
	t.Helper()
	c, err := store.Create(base, id)
	require.NoError(t, err)
	return c
}

func TestCreateClonesDataAndCrossLinks(t *testing.T) {
	base := t.TempDir()
	src := mustCreateStore(t, base, 1)

	desc, blocks, err := src.LoadDescriptors()
	require.NoError(t, err)
	require.NoError(t, src.WriteBlock(0, []byte("payload")))
	blocks[0].IsUsed = true
	blocks[0].ObjectID = "obj1"
	blocks[0].DataSize = 7
	desc.UsedBlocks = 1
	require.NoError(t, src.SaveDescriptors(desc, blocks))

	replicaID, err := Create(base, 1)
	require.NoError(t, err)
	require.True(t, replicaID >= idMin && replicaID <= idMax)

	dst, err := store.Open(base, replicaID)
	require.NoError(t, err)
	dstDesc, dstBlocks, err := dst.LoadDescriptors()
	require.NoError(t, err)
	require.True(t, dstDesc.IsReplica)
	require.Equal(t, int32(1), dstDesc.ReplicaOf)
	require.True(t, dstBlocks[0].IsUsed)
	require.Equal(t, "obj1", dstBlocks[0].ObjectID)

	srcDesc2, _, err := src.LoadDescriptors()
	require.NoError(t, err)
	require.Equal(t, int32(replicaID), srcDesc2.ReplicaOf)
	require.False(t, srcDesc2.IsReplica)
}

func TestCreateRejectsAlreadyPaired(t *testing.T) {
	base := t.TempDir()
	mustCreateStore(t, base, 1)

	_, err := Create(base, 1)
	require.NoError(t, err)

	_, err = Create(base, 1)
	require.ErrorIs(t, err, ErrAlreadyPaired)
}

func TestSyncPropagatesPutsAndKeepsRoles(t *testing.T) {
	base := t.TempDir()
	mustCreateStore(t, base, 1)
	replicaID, err := Create(base, 1)
	require.NoError(t, err)

	src, err := store.Open(base, 1)
	require.NoError(t, err)
	desc, blocks, err := src.LoadDescriptors()
	require.NoError(t, err)
	require.NoError(t, src.WriteBlock(3, []byte("new-data")))
	blocks[3].IsUsed = true
	blocks[3].ObjectID = "obj2"
	blocks[3].DataSize = 8
	desc.UsedBlocks++
	require.NoError(t, src.SaveDescriptors(desc, blocks))

	require.NoError(t, Sync(base, 1, replicaID))

	dst, err := store.Open(base, replicaID)
	require.NoError(t, err)
	dstDesc, dstBlocks, err := dst.LoadDescriptors()
	require.NoError(t, err)
	require.True(t, dstBlocks[3].IsUsed)
	require.Equal(t, "obj2", dstBlocks[3].ObjectID)
	require.True(t, dstDesc.IsReplica)
	require.Equal(t, int32(1), dstDesc.ReplicaOf)
	require.Equal(t, uint32(replicaID), dstDesc.StoreID)
}

func TestReadFromPeerFindsObjectAndMisses(t *testing.T) {
	base := t.TempDir()
	src := mustCreateStore(t, base, 1)
	desc, blocks, err := src.LoadDescriptors()
	require.NoError(t, err)
	require.NoError(t, src.WriteBlock(0, []byte("hi")))
	blocks[0].IsUsed = true
	blocks[0].ObjectID = "found-me"
	blocks[0].DataSize = 2
	desc.UsedBlocks = 1
	require.NoError(t, src.SaveDescriptors(desc, blocks))

	data, err := ReadFromPeer(base, 1, "found-me")
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), data)

	_, err = ReadFromPeer(base, 1, "missing")
	require.ErrorIs(t, err, store.ErrObjectNotFound)
}

func TestCreatePicksDistinctIDWhenOneTaken(t *testing.T) {
	base := t.TempDir()
	mustCreateStore(t, base, 1)
	mustCreateStore(t, base, 2)

	r1, err := Create(base, 1)
	require.NoError(t, err)
	r2, err := Create(base, 2)
	require.NoError(t, err)
	require.NotEqual(t, r1, r2)
	require.True(t, layout.StoreExists(base, r1))
	require.True(t, layout.StoreExists(base, r2))
}
