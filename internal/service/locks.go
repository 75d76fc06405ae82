package service

import "sync"

// keyedLocks はキー単位の直列化を提供します。
// レジストリ変異は tenant_id 単位、マイグレーション適用は partition_id 単位で
// 直列化され、同一テナントへの並行 activate が両方成功することはありません。
// I/O 中にグローバルロックを保持しない点に注意（ロックはキーごと）。
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock はキーのロックを取得し、解放用の関数を返します
func (k *keyedLocks) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
