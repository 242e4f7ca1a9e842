package registry

import (
	"strings"
	"sync"
	"testing"
)

func TestJoinLeaveCounts(t *testing.T) {
	r := New(6)

	if got := r.Join("ABC123", "a"); got != 1 {
		t.Fatalf("first join: %d", got)
	}
	if got := r.Join("ABC123", "b"); got != 2 {
		t.Fatalf("second join: %d", got)
	}
	if got := r.ActiveCount("ABC123"); got != 2 {
		t.Fatalf("active count: %d", got)
	}

	if got := r.Leave("ABC123", "a"); got != 1 {
		t.Fatalf("leave: %d", got)
	}
	if got := r.Leave("ABC123", "b"); got != 0 {
		t.Fatalf("last leave: %d", got)
	}

	// Empty rooms stay known until the lifecycle sweep forgets them.
	if !r.Known("ABC123") {
		t.Fatal("empty room must remain known (pending expiry)")
	}
	r.Forget("ABC123")
	if r.Known("ABC123") {
		t.Fatal("forgotten room must not be known")
	}
}

func TestLeaveUnknownRoom(t *testing.T) {
	r := New(6)
	if got := r.Leave("NOPE99", "a"); got != 0 {
		t.Fatalf("leave on unknown room: %d", got)
	}
}

func TestConcurrentJoinLeaveSameRoom(t *testing.T) {
	r := New(6)
	const n = 100

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26)) + string(rune('0'+i/26))
			r.Join("ABC123", id+"x")
			r.Leave("ABC123", id+"x")
		}(i)
	}
	wg.Wait()

	if got := r.ActiveCount("ABC123"); got != 0 {
		t.Fatalf("count after balanced join/leave: %d", got)
	}
}

func TestNewCodeShape(t *testing.T) {
	r := New(6)
	code, err := r.NewCode(nil)
	if err != nil {
		t.Fatalf("NewCode: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code length: %q", code)
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			t.Fatalf("code %q contains %q outside the alphabet", code, c)
		}
	}
}

func TestNewCodeRerollsOnCollision(t *testing.T) {
	r := New(6)

	seen := make(map[string]bool)
	// Reject the first two candidates; the generator must keep rolling.
	rejected := 0
	code, err := r.NewCode(func(c string) bool {
		if rejected < 2 {
			rejected++
			seen[c] = true
			return true
		}
		return false
	})
	if err != nil {
		t.Fatalf("NewCode: %v", err)
	}
	if seen[code] {
		t.Fatalf("returned a rejected code: %q", code)
	}
}

func TestNewCodeAvoidsKnownRooms(t *testing.T) {
	r := New(6)

	var mu sync.Mutex
	codes := make(map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := r.NewCode(nil)
			if err != nil {
				t.Errorf("NewCode: %v", err)
				return
			}
			// Claim the code immediately, as the bootstrap create flow does.
			r.Join(code, "creator")
			mu.Lock()
			if codes[code] {
				t.Errorf("duplicate code: %q", code)
			}
			codes[code] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
}
