package ha

import (
	"os"
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

func writeObject(t *testing.T, c *store.Container, blockIdx uint32, objectID string, payload []byte) {
	t.Helper()
	desc, blocks, err := c.LoadDescriptors()
	require.NoError(t, err)
	require.NoError(t, c.WriteBlock(blockIdx, payload))
	blocks[blockIdx].IsUsed = true
	blocks[blockIdx].ObjectID = objectID
	blocks[blockIdx].DataSize = uint32(len(payload))
	desc.UsedBlocks++
	require.NoError(t, c.SaveDescriptors(desc, blocks))
}

func TestCreateRejectsTooFewAndDuplicateMembers(t *testing.T) {
	base := t.TempDir()
	mustCreateStore(t, base, 1)

	_, err := Create(base, []uint32{1})
	require.ErrorIs(t, err, ErrTooFewMembers)

	mustCreateStore(t, base, 2)
	_, err = Create(base, []uint32{1, 1})
	require.ErrorIs(t, err, ErrDuplicateMember)
}

func TestCreateComputesInitialParity(t *testing.T) {
	base := t.TempDir()
	c1 := mustCreateStore(t, base, 1)
	c2 := mustCreateStore(t, base, 2)
	c3 := mustCreateStore(t, base, 3)

	writeObject(t, c1, 0, "a", []byte("AAA"))
	writeObject(t, c2, 0, "b", []byte("BB"))
	writeObject(t, c3, 0, "c", []byte("C"))

	groupID, err := Create(base, []uint32{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, uint32(1), groupID)

	requireParityStripeMatches(t, base, groupID, 0, []uint32{1, 2, 3})

	for _, id := range []uint32{1, 2, 3} {
		c, err := store.Open(base, id)
		require.NoError(t, err)
		desc, _, err := c.LoadDescriptors()
		require.NoError(t, err)
		require.Equal(t, int32(groupID), desc.HAGroupID)
	}
}

func TestCreateRejectsAlreadyGroupedOrReplicated(t *testing.T) {
	base := t.TempDir()
	mustCreateStore(t, base, 1)
	mustCreateStore(t, base, 2)
	mustCreateStore(t, base, 3)

	_, err := Create(base, []uint32{1, 2})
	require.NoError(t, err)

	_, err = Create(base, []uint32{1, 3})
	require.ErrorIs(t, err, ErrAlreadyInGroup)

	// A member that belongs to a replica pair is rejected too.
	c4 := mustCreateStore(t, base, 4)
	desc, blocks, err := c4.LoadDescriptors()
	require.NoError(t, err)
	desc.ReplicaOf = 99
	require.NoError(t, c4.SaveDescriptors(desc, blocks))

	_, err = Create(base, []uint32{4, 3})
	require.ErrorIs(t, err, ErrReplicated)
}

func TestUpdateParityForPutReflectsNewBlock(t *testing.T) {
	base := t.TempDir()
	c1 := mustCreateStore(t, base, 1)
	c2 := mustCreateStore(t, base, 2)
	c3 := mustCreateStore(t, base, 3)
	writeObject(t, c1, 0, "a", []byte("AAA"))
	writeObject(t, c2, 0, "b", []byte("BB"))
	writeObject(t, c3, 0, "c", []byte("C"))

	groupID, err := Create(base, []uint32{1, 2, 3})
	require.NoError(t, err)

	writeObject(t, c2, 1, "d", []byte("new-data"))
	require.NoError(t, UpdateParityForPut(base, groupID, 1))

	requireParityStripeMatches(t, base, groupID, 1, []uint32{1, 2, 3})
}

func TestReconstructRebuildsDestroyedMemberBlock(t *testing.T) {
	base := t.TempDir()
	c1 := mustCreateStore(t, base, 1)
	c2 := mustCreateStore(t, base, 2)
	c3 := mustCreateStore(t, base, 3)
	writeObject(t, c1, 0, "a", []byte("AAA"))
	writeObject(t, c2, 0, "b", []byte("BB"))
	writeObject(t, c3, 0, "c", []byte("C"))

	groupID, err := Create(base, []uint32{1, 2, 3})
	require.NoError(t, err)

	tornDown, err := MarkDestroyed(base, groupID, 2)
	require.NoError(t, err)
	require.False(t, tornDown)

	recon, err := Reconstruct(base, groupID, 2, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("BB"), recon[:2])
}

func TestReconstructFailsWithTwoMembersDestroyed(t *testing.T) {
	base := t.TempDir()
	c1 := mustCreateStore(t, base, 1)
	c2 := mustCreateStore(t, base, 2)
	c3 := mustCreateStore(t, base, 3)
	writeObject(t, c1, 0, "a", []byte("AAA"))
	writeObject(t, c2, 0, "b", []byte("BB"))
	writeObject(t, c3, 0, "c", []byte("C"))

	groupID, err := Create(base, []uint32{1, 2, 3})
	require.NoError(t, err)

	_, err = MarkDestroyed(base, groupID, 2)
	require.NoError(t, err)

	_, err = Reconstruct(base, groupID, 2, 0)
	require.NoError(t, err)

	// Directly mark a second member destroyed without going through
	// MarkDestroyed's teardown path, to exercise the unreconstructable case.
	c3b, err := store.Open(base, 3)
	require.NoError(t, err)
	desc, blocks, err := c3b.LoadDescriptors()
	require.NoError(t, err)
	desc.IsDestroyed = true
	require.NoError(t, c3b.SaveDescriptors(desc, blocks))

	_, err = Reconstruct(base, groupID, 2, 0)
	require.ErrorIs(t, err, ErrUnreconstructable)
}

func TestMarkDestroyedTearsDownOnSecondMember(t *testing.T) {
	base := t.TempDir()
	c1 := mustCreateStore(t, base, 1)
	c2 := mustCreateStore(t, base, 2)
	c3 := mustCreateStore(t, base, 3)
	writeObject(t, c1, 0, "a", []byte("AAA"))
	writeObject(t, c2, 0, "b", []byte("BB"))
	writeObject(t, c3, 0, "c", []byte("C"))

	groupID, err := Create(base, []uint32{1, 2, 3})
	require.NoError(t, err)

	tornDown, err := MarkDestroyed(base, groupID, 2)
	require.NoError(t, err)
	require.False(t, tornDown)

	tornDown, err = MarkDestroyed(base, groupID, 3)
	require.NoError(t, err)
	require.True(t, tornDown)

	require.False(t, layout.GroupExists(base, groupID))

	survivor, err := store.Open(base, 1)
	require.NoError(t, err)
	desc, _, err := survivor.LoadDescriptors()
	require.NoError(t, err)
	require.Equal(t, int32(-1), desc.HAGroupID)

	require.False(t, layout.StoreExists(base, 2))
	require.False(t, layout.StoreExists(base, 3))
}

func TestMarkDestroyedIsIdempotentForSameMember(t *testing.T) {
	base := t.TempDir()
	c1 := mustCreateStore(t, base, 1)
	c2 := mustCreateStore(t, base, 2)
	c3 := mustCreateStore(t, base, 3)
	writeObject(t, c1, 0, "a", []byte("AAA"))
	writeObject(t, c2, 0, "b", []byte("BB"))
	writeObject(t, c3, 0, "c", []byte("C"))

	groupID, err := Create(base, []uint32{1, 2, 3})
	require.NoError(t, err)

	tornDown, err := MarkDestroyed(base, groupID, 2)
	require.NoError(t, err)
	require.False(t, tornDown)

	// A repeated destroy of the same already-destroyed member must not
	// advance destroyed_count a second time, or this would tear the
	// group down with only one member ever genuinely destroyed.
	tornDown, err = MarkDestroyed(base, groupID, 2)
	require.NoError(t, err)
	require.False(t, tornDown)

	require.True(t, layout.GroupExists(base, groupID))
	status, err := LoadStatus(base, groupID)
	require.NoError(t, err)
	require.Equal(t, uint32(1), status.DestroyedCount)

	_, err = store.Open(base, 3)
	require.NoError(t, err)
}

func requireParityStripeMatches(t *testing.T, base string, groupID uint32, blockIndex uint32, members []uint32) {
	t.Helper()
	paths := layout.GroupPaths(base, groupID)
	parityFile, err := os.Open(paths.Parity)
	require.NoError(t, err)
	defer parityFile.Close()

	got := make([]byte, store.BlockSize)
	_, err = parityFile.ReadAt(got, int64(blockIndex)*store.BlockSize)
	require.NoError(t, err)

	want := make([]byte, store.BlockSize)
	for _, id := range members {
		dataFile, err := os.Open(layout.StorePaths(base, id).Data)
		require.NoError(t, err)
		block := make([]byte, store.BlockSize)
		_, err = dataFile.ReadAt(block, int64(blockIndex)*store.BlockSize)
		dataFile.Close()
		require.NoError(t, err)
		for i := range want {
			want[i] ^= block[i]
		}
	}
	require.Equal(t, want, got)
}
