package testutil

import (
	"context"
	"crypto/rand"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/andrebq/authbox/credential"
	"github.com/andrebq/authbox/userstore"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireStore opens a sqlite user store inside a fresh temp dir.
func AcquireStore(ctx context.Context, t TestLog) (*userstore.SQLite, func()) {
	dir, err := ioutil.TempDir("", "authbox-tests")
	if err != nil {
		t.Fatal(err)
	}
	store, err := userstore.OpenSQLite(ctx, filepath.Join(dir, "users.db"))
	if err != nil {
		t.Fatal(err)
	}
	return store, func() {
		err := store.Close()
		if err != nil {
			t.Log("unable to close store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

// RandomHasher returns a hasher keyed with a random application key.
func RandomHasher(t TestLog) *credential.Hasher {
	var k credential.Key
	if _, err := rand.Read(k[:]); err != nil {
		t.Fatal(err)
	}
	h, err := credential.NewHasher(&k)
	if err != nil {
		t.Fatal(err)
	}
	return h
}
