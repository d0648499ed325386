package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofKey(t *testing.T) {
	id := uuid.New()

	k := ProofKey(id, "IMG_001.JPEG")
	assert.True(t, strings.HasPrefix(k, "work_proofs/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(k, ".jpg"))

	assert.True(t, strings.HasSuffix(ProofKey(id, "shot.png"), ".png"))
	assert.True(t, strings.HasSuffix(ProofKey(id, "payload.exe"), ".jpg"))
	assert.NotEqual(t, ProofKey(id, "a.png"), ProofKey(id, "a.png"))

	pic := ProfilePicKey("agent", id, "me.webp")
	assert.True(t, strings.HasPrefix(pic, "profile_pics/agent/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(pic, ".webp"))
}

func TestLocal_PutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, nil)
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Put(ctx, "work_proofs/a/b.jpg", "image/jpeg", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, "work_proofs/a/b.jpg", ref)

	got, err := os.ReadFile(filepath.Join(dir, "work_proofs", "a", "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(got))

	require.NoError(t, store.Delete(ctx, ref))
	_, err = os.Stat(filepath.Join(dir, "work_proofs", "a", "b.jpg"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(ctx, ref))
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../outside.jpg", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, store.Delete(context.Background(), "a/../../b"), ErrInvalidKey)
}
