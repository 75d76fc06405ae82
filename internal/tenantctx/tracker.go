package tenantctx

import (
	"sync"

	"github.com/google/uuid"
)

// Tracker はパーティションごとのアクティブな束縛数を数えます。
// デコミッション済みパーティションの後片付けは、猶予期間の経過に加えて
// ここのカウントがゼロであることを条件にします。
type Tracker struct {
	mu     sync.Mutex
	active map[uuid.UUID]int
}

func NewTracker() *Tracker {
	return &Tracker{active: make(map[uuid.UUID]int)}
}

func (t *Tracker) acquire(partitionID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[partitionID]++
}

func (t *Tracker) release(partitionID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active[partitionID] <= 1 {
		delete(t.active, partitionID)
		return
	}
	t.active[partitionID]--
}

// ActiveCount は現在そのパーティションに束縛されているコンテキスト数を返します
func (t *Tracker) ActiveCount(partitionID uuid.UUID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[partitionID]
}
