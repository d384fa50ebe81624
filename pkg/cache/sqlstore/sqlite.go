// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package sqlstore

import (
	"context"
	"strings"

	"github.com/leseb/beebot-mcp/pkg/cache"

	_ "modernc.org/sqlite"
)

func init() {
	cache.Providers.Register("sqlite", func(ctx context.Context, params map[string]string) (cache.Cache, error) {
		return NewSQLite(ctx, params["dsn"])
	})
}

// NewSQLite opens a SQLite cache. dsn is a file path or ":memory:".
func NewSQLite(ctx context.Context, dsn string) (*Store, error) {
	d := sqliteDialect
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		d.singleCon = true
	}
	return open(ctx, d, dsn)
}
