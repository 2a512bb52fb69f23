// Package storetest opens throwaway in-memory stores for tests.
package storetest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/haasonsaas/darkan/pkg/store"
)

var seq atomic.Int64

// New returns a migrated store backed by a private shared-cache SQLite database
// that is closed when the test ends.
func New(t *testing.T) *store.GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:darkan-test-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	st, err := store.New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// AcceptedHost inserts an approved host holding key.
func AcceptedHost(t *testing.T, st *store.GormStore, hostname, key string) *store.Host {
	t.Helper()
	host := &store.Host{Hostname: hostname, Interval: 60, Acknowledged: true, Key: &key}
	require.NoError(t, st.DB().Create(host).Error)
	return host
}

// PendingHost inserts a host awaiting approval.
func PendingHost(t *testing.T, st *store.GormStore, hostname string) *store.Host {
	t.Helper()
	host := &store.Host{Hostname: hostname, Interval: 60}
	require.NoError(t, st.DB().Create(host).Error)
	return host
}

// Count returns the number of rows of model.
func Count(t *testing.T, st *store.GormStore, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, st.DB().Model(model).Count(&n).Error)
	return n
}
