package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type payload struct {
	Name string
	Size int64
}

func TestCache(t *testing.T) {

	var value = payload{
		Name: "file.jpeg",
		Size: 1024,
	}
	var result payload

	cache := NewMemoryCache(1 * 1024 * 1024)

	err := cache.Set("key", value, 1*time.Second)
	assert.NoError(t, err)

	err = cache.Get("key", &result)
	assert.NoError(t, err)
	assert.Equal(t, result, value)
}

func TestFetch(t *testing.T) {
	cache := NewMemoryCache(1 * 1024 * 1024)

	calls := 0
	loader := func() (payload, error) {
		calls++
		return payload{Name: "a"}, nil
	}

	v, err := Fetch(cache, KeyBatch("x"), time.Minute, loader)
	assert.NoError(t, err)
	assert.Equal(t, "a", v.Name)

	v, err = Fetch(cache, KeyBatch("x"), time.Minute, loader)
	assert.NoError(t, err)
	assert.Equal(t, "a", v.Name)
	assert.Equal(t, 1, calls)
}

func TestFetch_LoaderError(t *testing.T) {
	cache := NewMemoryCache(1 * 1024 * 1024)

	want := errors.New("boom")
	_, err := Fetch(cache, "k", time.Minute, func() (payload, error) {
		return payload{}, want
	})
	assert.ErrorIs(t, err, want)
}
