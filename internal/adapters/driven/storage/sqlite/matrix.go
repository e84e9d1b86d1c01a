package sqlite

import (
	"sort"
	"sync"
)

// matrixRow is one quantised embedding row.
type matrixRow struct {
	chunkID int64
	bytes   []byte
	scale   float32
	offset  float32
}

// scoredRow is a vector search hit before chunk hydration.
type scoredRow struct {
	chunkID int64
	score   float64
}

// vectorMatrix caches all quantised paragraph embeddings in memory for fast
// dot-product search. Disk is the source of truth: the matrix is rebuilt
// from the embeddings column whenever a delete marks it dirty, and appended
// to on every stored embedding. Readers tolerate a briefly stale tail.
type vectorMatrix struct {
	mu    sync.RWMutex
	rowsv []matrixRow
	dim   int
	stale bool
}

func newVectorMatrix(dim int) *vectorMatrix {
	return &vectorMatrix{dim: dim, stale: true}
}

func (m *vectorMatrix) dirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stale
}

func (m *vectorMatrix) markDirty() {
	m.mu.Lock()
	m.stale = true
	m.mu.Unlock()
}

func (m *vectorMatrix) rows() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rowsv)
}

func (m *vectorMatrix) reload(rows []matrixRow) {
	m.mu.Lock()
	m.rowsv = rows
	m.stale = false
	m.mu.Unlock()
}

// append extends a loaded matrix with one freshly stored embedding.
// A dirty matrix is left dirty; the next search reloads everything.
func (m *vectorMatrix) append(chunkID int64, bytes []byte, scale, offset float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stale {
		return
	}
	m.rowsv = append(m.rowsv, matrixRow{chunkID: chunkID, bytes: bytes, scale: scale, offset: offset})
}

// search scores the normalised query against every row and returns the top
// k by dot product. Rows are dequantised on read:
//
//	dot(q, b*scale+offset) = scale*dot(q, b) + offset*sum(q)
func (m *vectorMatrix) search(query []float32, k int) []scoredRow {
	q := l2Normalize(append([]float32(nil), query...))

	var qSum float64
	var qNorm float64
	for _, v := range q {
		qSum += float64(v)
		qNorm += float64(v) * float64(v)
	}
	if qNorm < 1e-12 {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.rowsv) == 0 || k <= 0 {
		return nil
	}

	scored := make([]scoredRow, 0, len(m.rowsv))
	for _, row := range m.rowsv {
		if len(row.bytes) != len(q) {
			continue
		}
		var dot float64
		for i, b := range row.bytes {
			dot += float64(q[i]) * float64(b)
		}
		score := float64(row.scale)*dot + float64(row.offset)*qSum
		scored = append(scored, scoredRow{chunkID: row.chunkID, score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].chunkID < scored[j].chunkID
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
