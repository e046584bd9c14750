//go:build !bolt

package main

import (
	"github.com/shxh08/pastebin-clone/internal/storage"
	"github.com/shxh08/pastebin-clone/internal/storage/sqlitestore"
)

func openStore(path string) (storage.Store, error) {
	return sqlitestore.Open(path)
}
