package cache

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/Borislavv/masjid-tv-display/pkg/config"
)

func BenchmarkSetGet(b *testing.B) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(ctx, "bench", &config.Cache{MaxSize: 100})
	defer s.Stop()

	value := []byte(`{"id":"c-1","title":"Jumuah khutbah"}`)
	keys := make([]string, 256)
	for i := range keys {
		keys[i] = "k" + strconv.Itoa(i)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		k := keys[i%len(keys)]
		s.Set(k, value)
		_, _ = s.Get(k)
	}
}

func BenchmarkCompressedGet(b *testing.B) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(ctx, "bench", &config.Cache{EnableCompression: true})
	defer s.Stop()

	s.Set("large", bytes.Repeat([]byte(`{"title":"Eid"},`), 512))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get("large")
	}
}
