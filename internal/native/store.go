package native

import (
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/alexchoi0/blueprint-engine/internal/value"
)

// storeHandle wraps a bbolt database used as a script-local key-value
// store. Keys and values are strings; each open file has one bucket.
type storeHandle struct {
	db *bolt.DB
}

func (h *storeHandle) close() { h.db.Close() }

var storeBucket = []byte("blueprint")

func storeFns() []*Fn {
	return []*Fn{
		{Name: "open", Call: storeOpen},
		{Name: "get", Call: storeGet},
		{Name: "put", Call: storePut},
		{Name: "delete", Call: storeDelete},
		{Name: "keys", Call: storeKeys},
		{Name: "close", Call: storeClose},
	}
}

func (c *Context) storeHandle(id int64) (*storeHandle, *value.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.spans[id]
	if !ok {
		return nil, value.NewValueError("store: invalid handle %d", id)
	}
	return h, nil
}

func storeOpen(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	path, errv := argString("store.open", args, 0)
	if errv != nil {
		return errv
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return value.NewNativeError("store.open: %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(storeBucket)
		return err
	})
	if err != nil {
		db.Close()
		return value.NewNativeError("store.open: %v", err)
	}

	id := ctx.NextHandleID()
	ctx.mu.Lock()
	ctx.spans[id] = &storeHandle{db: db}
	ctx.mu.Unlock()
	return &value.Int{Value: id}
}

func storeGet(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	id, errv := argInt("store.get", args, 0)
	if errv != nil {
		return errv
	}
	key, errv := argString("store.get", args, 1)
	if errv != nil {
		return errv
	}
	h, errv := ctx.storeHandle(id)
	if errv != nil {
		return errv
	}

	var out value.Value = value.None
	err := h.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket(storeBucket).Get([]byte(key)); raw != nil {
			out = &value.String{Value: string(raw)}
		}
		return nil
	})
	if err != nil {
		return value.NewNativeError("store.get: %v", err)
	}
	return out
}

func storePut(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	id, errv := argInt("store.put", args, 0)
	if errv != nil {
		return errv
	}
	key, errv := argString("store.put", args, 1)
	if errv != nil {
		return errv
	}
	val, errv := argString("store.put", args, 2)
	if errv != nil {
		return errv
	}
	h, errv := ctx.storeHandle(id)
	if errv != nil {
		return errv
	}

	err := h.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(storeBucket).Put([]byte(key), []byte(val))
	})
	if err != nil {
		return value.NewNativeError("store.put: %v", err)
	}
	return value.None
}

func storeDelete(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	id, errv := argInt("store.delete", args, 0)
	if errv != nil {
		return errv
	}
	key, errv := argString("store.delete", args, 1)
	if errv != nil {
		return errv
	}
	h, errv := ctx.storeHandle(id)
	if errv != nil {
		return errv
	}

	err := h.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(storeBucket).Delete([]byte(key))
	})
	if err != nil {
		return value.NewNativeError("store.delete: %v", err)
	}
	return value.None
}

func storeKeys(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	id, errv := argInt("store.keys", args, 0)
	if errv != nil {
		return errv
	}
	h, errv := ctx.storeHandle(id)
	if errv != nil {
		return errv
	}

	out := &value.List{}
	err := h.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(storeBucket).ForEach(func(k, v []byte) error {
			out.Elements = append(out.Elements, &value.String{Value: string(k)})
			return nil
		})
	})
	if err != nil {
		return value.NewNativeError("store.keys: %v", err)
	}
	return out
}

func storeClose(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	id, errv := argInt("store.close", args, 0)
	if errv != nil {
		return errv
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	h, ok := ctx.spans[id]
	if !ok {
		return value.None
	}
	h.close()
	delete(ctx.spans, id)
	return value.None
}
