package datasource

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill"
)

func seedDB(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "data.db")
	db, err := openDB(dsn)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE items (product TEXT, qty INTEGER, price REAL)`,
		`INSERT INTO items VALUES ('Widget', 2, 19.5), ('Gadget', 1, 5)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	return dsn
}

func TestLoadSQLite(t *testing.T) {
	dsn := seedDB(t)

	data, err := LoadSQLite(context.Background(), dsn, map[string]string{
		"items": `SELECT product, qty, price FROM items ORDER BY product DESC`,
		"empty": `SELECT product FROM items WHERE qty > 100`,
	})
	require.NoError(t, err)

	items, ok := data["items"].(wordfill.List)
	require.True(t, ok)
	require.Len(t, items, 2)
	first := items[0].(wordfill.Map)
	assert.Equal(t, wordfill.StringValue("Widget"), first["product"])
	assert.Equal(t, wordfill.IntValue(2), first["qty"])
	assert.Equal(t, wordfill.FloatValue(19.5), first["price"])

	assert.Equal(t, wordfill.List{}, data["empty"])
}

func TestLoadSQLiteBadQuery(t *testing.T) {
	dsn := seedDB(t)

	_, err := LoadSQLite(context.Background(), dsn, map[string]string{"broken": `SELECT nope FROM missing`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query=broken")
}
