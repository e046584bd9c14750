//go:build bolt

package main

import (
	"github.com/shxh08/pastebin-clone/internal/storage"
	"github.com/shxh08/pastebin-clone/internal/storage/boltstore"
)

func openStore(path string) (storage.Store, error) {
	return boltstore.Open(path)
}
