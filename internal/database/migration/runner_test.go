package migration

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_OrdersByVersion(t *testing.T) {
	src := fstest.MapFS{
		"V10__later.sql":    {Data: []byte("SELECT 10;")},
		"V2__second.sql":    {Data: []byte("SELECT 2;")},
		"V1__first.sql":     {Data: []byte("  SELECT 1;\n")},
		"README.md":         {Data: []byte("ignored")},
		"v3__lowercase.sql": {Data: []byte("ignored")},
	}

	migs, err := loadMigrations(src)
	require.NoError(t, err)
	require.Len(t, migs, 3)
	assert.Equal(t, []int64{1, 2, 10}, []int64{migs[0].Version, migs[1].Version, migs[2].Version})
	assert.Equal(t, "first", migs[0].Name)
	assert.Equal(t, "SELECT 1;", migs[0].SQL)
	assert.Len(t, migs[0].Checksum, 64)
}

func TestLoadMigrations_Rejects(t *testing.T) {
	_, err := loadMigrations(fstest.MapFS{"V1__empty.sql": {Data: []byte("   ")}})
	assert.Error(t, err)

	_, err = loadMigrations(fstest.MapFS{
		"V1__a.sql":  {Data: []byte("SELECT 1;")},
		"V01__b.sql": {Data: []byte("SELECT 1;")},
	})
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := Runner{}.source()
	require.NoError(t, err)

	migs, err := loadMigrations(src)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(migs), 2)
	assert.Equal(t, "accounts", migs[0].Name)
	assert.Equal(t, "job_lifecycle", migs[1].Name)

	for table := range RequiredColumns {
		found := false
		for _, m := range migs {
			if strings.Contains(m.SQL, "CREATE TABLE IF NOT EXISTS "+table+" (") {
				found = true
			}
		}
		assert.True(t, found, "no migration creates %s", table)
	}
}
