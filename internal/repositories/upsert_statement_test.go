package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpsertStatement(t *testing.T) {
	statement, args := upsertStatement("productos", map[string]interface{}{
		"shopify_id": "1",
		"title":      "Deck A",
		"price":      49.99,
	}, []string{"price", "title", "updated_at"})

	assert.Equal(t,
		`INSERT INTO "productos" ("price", "shopify_id", "title") VALUES (?, ?, ?) `+
			`ON CONFLICT ("shopify_id") DO UPDATE SET "price" = EXCLUDED."price", "title" = EXCLUDED."title", "updated_at" = EXCLUDED."updated_at" `+
			`RETURNING (xmax = 0) AS inserted`,
		statement)
	assert.Equal(t, []interface{}{49.99, "1", "Deck A"}, args)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"title"`, quoteIdent("title"))
	assert.Equal(t, `"odd""name"`, quoteIdent(`odd"name`))
}
