package controllers

import (
	"bytes"
	"encoding/json"
	"testing"

	"ormperfapi/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gotest.tools/assert"
)

var productColumns = []string{"id", "name", "price", "status", "row_version", "created_at", "category_id"}

func init() {
	gin.SetMode(gin.TestMode)
}

func parsePayload(p interface{}) *bytes.Buffer {
	data, _ := json.Marshal(p)
	return bytes.NewBuffer(data)
}

// newTestAPI wires an API to a gorm store backed by sqlmock and captures logs.
func newTestAPI(t *testing.T) (*API, sqlmock.Sqlmock, *bytes.Buffer) {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	assert.Equal(t, nil, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := store.Dial(db, store.Options{Logger: zerolog.Nop()})
	assert.Equal(t, nil, err)

	var logs bytes.Buffer
	api := NewAPI()
	api.Store = store.New(gdb)
	api.Log = zerolog.New(&logs)
	api.LongQueryDelay = 0

	return api, dbMock, &logs
}
