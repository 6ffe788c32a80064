package sqlpilot

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionStoreAppendAndGet(t *testing.T) {
	store := NewSessionStore(5)
	store.Append("s1", Turn{Role: "user", Content: "hello"})
	store.Append("s1", Turn{Role: "assistant", Content: "hi there"})

	turns := store.Get("s1")
	require.Len(t, turns, 2)
	require.Equal(t, "user", turns[0].Role)
	require.Equal(t, "hi there", turns[1].Content)

	require.Empty(t, store.Get("unknown"))
}

func TestSessionStoreWindow(t *testing.T) {
	store := NewSessionStore(3)
	for i := 0; i < 10; i++ {
		store.Append("s1", Turn{Role: "user", Content: fmt.Sprintf("msg %d", i)})
	}
	turns := store.Get("s1")
	require.Len(t, turns, 3)
	require.Equal(t, "msg 7", turns[0].Content)
	require.Equal(t, "msg 9", turns[2].Content)
}

func TestSessionStoreClear(t *testing.T) {
	store := NewSessionStore(5)
	store.Append("s1", Turn{Role: "user", Content: "hello"})
	store.Clear("s1")
	require.Empty(t, store.Get("s1"))
}

func TestSessionStorePairedTurnsStayAdjacent(t *testing.T) {
	store := NewSessionStore(100)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("%d", i)
			store.Append("shared",
				Turn{Role: "user", Content: id},
				Turn{Role: "assistant", Content: id},
			)
		}(i)
	}
	wg.Wait()

	turns := store.Get("shared")
	require.Len(t, turns, 40)
	for i := 0; i < len(turns); i += 2 {
		require.Equal(t, "user", turns[i].Role)
		require.Equal(t, "assistant", turns[i+1].Role)
		require.Equal(t, turns[i].Content, turns[i+1].Content)
	}
}

func TestSessionStoreIndependentSessions(t *testing.T) {
	store := NewSessionStore(5)
	store.Append("a", Turn{Role: "user", Content: "for a"})
	store.Append("b", Turn{Role: "user", Content: "for b"})
	require.Equal(t, "for a", store.Get("a")[0].Content)
	require.Equal(t, "for b", store.Get("b")[0].Content)
}
