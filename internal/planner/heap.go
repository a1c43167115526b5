package planner

// key is a two-component priority compared lexicographically. A* and Theta*
// use (f, -g) so that among equal f the deeper node wins; D* Lite uses its
// native (k1, k2) keys.
type key struct {
	k1, k2 float64
}

func (k key) less(o key) bool {
	if k.k1 != o.k1 {
		return k.k1 < o.k1
	}
	return k.k2 < o.k2
}

// indexedHeap is a binary min-heap over node ids with decrease-key and
// removal support, backed by a position index over the dense id space.
type indexedHeap struct {
	ids  []int
	keys []key
	pos  []int // node id -> heap slot, -1 when absent
}

func newIndexedHeap(n int) *indexedHeap {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}
	return &indexedHeap{pos: pos}
}

func (h *indexedHeap) len() int { return len(h.ids) }

func (h *indexedHeap) contains(id int) bool { return h.pos[id] >= 0 }

// push inserts id or updates its key if already present.
func (h *indexedHeap) push(id int, k key) {
	if i := h.pos[id]; i >= 0 {
		h.keys[i] = k
		h.up(i)
		h.down(i)
		return
	}
	h.ids = append(h.ids, id)
	h.keys = append(h.keys, k)
	h.pos[id] = len(h.ids) - 1
	h.up(len(h.ids) - 1)
}

// pop removes and returns the minimum entry.
func (h *indexedHeap) pop() (int, key) {
	id, k := h.ids[0], h.keys[0]
	h.removeAt(0)
	return id, k
}

// peek returns the minimum key without removing it.
func (h *indexedHeap) peek() key { return h.keys[0] }

// remove deletes id if present.
func (h *indexedHeap) remove(id int) {
	if i := h.pos[id]; i >= 0 {
		h.removeAt(i)
	}
}

func (h *indexedHeap) removeAt(i int) {
	last := len(h.ids) - 1
	h.pos[h.ids[i]] = -1
	if i != last {
		h.ids[i] = h.ids[last]
		h.keys[i] = h.keys[last]
		h.pos[h.ids[i]] = i
	}
	h.ids = h.ids[:last]
	h.keys = h.keys[:last]
	if i < last {
		h.up(i)
		h.down(i)
	}
}

func (h *indexedHeap) up(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.keys[i].less(h.keys[p]) {
			return
		}
		h.swap(i, p)
		i = p
	}
}

func (h *indexedHeap) down(i int) {
	for {
		l, r := 2*i+1, 2*i+2
		small := i
		if l < len(h.ids) && h.keys[l].less(h.keys[small]) {
			small = l
		}
		if r < len(h.ids) && h.keys[r].less(h.keys[small]) {
			small = r
		}
		if small == i {
			return
		}
		h.swap(i, small)
		i = small
	}
}

func (h *indexedHeap) swap(i, j int) {
	h.ids[i], h.ids[j] = h.ids[j], h.ids[i]
	h.keys[i], h.keys[j] = h.keys[j], h.keys[i]
	h.pos[h.ids[i]] = i
	h.pos[h.ids[j]] = j
}
