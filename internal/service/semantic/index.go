package semantic

import (
	"math"
	"sort"
	"sync"

	"github.com/sandevgo/recall/internal/core"
)

// Result is a single search hit; Score is cosine similarity in [0,1].
type Result struct {
	Message core.Message
	Score   float64
}

type document struct {
	message   core.Message
	termFreq  map[string]float64
	vector    map[string]float64
	magnitude float64
	seq       int
}

// Index is an incremental TF-IDF index over message content. Document
// frequencies are maintained on every add/remove; per-document TF-IDF vectors
// are only recomputed lazily before the next search, because any mutation
// shifts IDF for the whole corpus. A dirty index never serves a score.
type Index struct {
	mu      sync.Mutex
	docs    map[string]*document
	df      map[string]int
	nextSeq int
	dirty   bool
}

func NewIndex() *Index {
	return &Index{
		docs: make(map[string]*document),
		df:   make(map[string]int),
	}
}

// Add indexes a message's content under its id, replacing any previous
// document with the same id.
func (ix *Index) Add(msg core.Message) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.docs[msg.ID]; exists {
		ix.removeLocked(msg.ID)
	}

	tf := termFrequencies(tokenize(msg.Content))
	for term := range tf {
		ix.df[term]++
	}

	ix.docs[msg.ID] = &document{
		message:  msg,
		termFreq: tf,
		seq:      ix.nextSeq,
	}
	ix.nextSeq++
	ix.dirty = true
}

// Remove unindexes a message, restoring document-frequency counts to exactly
// their pre-add state. It reports whether the id was indexed.
func (ix *Index) Remove(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.removeLocked(id)
}

func (ix *Index) removeLocked(id string) bool {
	doc, ok := ix.docs[id]
	if !ok {
		return false
	}

	for term := range doc.termFreq {
		ix.df[term]--
		if ix.df[term] <= 0 {
			delete(ix.df, term)
		}
	}

	delete(ix.docs, id)
	ix.dirty = true
	return true
}

func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.docs)
}

// Search ranks indexed messages by cosine similarity against the query,
// descending, ties broken by insertion order. A query with no indexable
// terms yields an empty result.
func (ix *Index) Search(query string, topK int, minScore float64) []Result {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.dirty {
		ix.recalculateLocked()
	}

	queryVec, queryMag := ix.vectorizeLocked(query)
	if len(queryVec) == 0 || queryMag == 0 {
		return nil
	}

	type scored struct {
		doc   *document
		score float64
	}

	var hits []scored
	for _, doc := range ix.docs {
		if doc.magnitude == 0 {
			continue
		}
		dot := 0.0
		for term, qw := range queryVec {
			if dw, ok := doc.vector[term]; ok {
				dot += qw * dw
			}
		}
		if dot == 0 {
			continue
		}
		score := dot / (queryMag * doc.magnitude)
		if score >= minScore {
			hits = append(hits, scored{doc: doc, score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].doc.seq < hits[j].doc.seq
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{Message: h.doc.message, Score: h.score}
	}
	return results
}

// FindRelevant ranks exactly the given messages against the query through a
// disposable index, so one turn's ranking cannot be polluted by whatever
// other sessions put in a shared index.
func FindRelevant(query string, messages []core.Message, topK int) []Result {
	scratch := NewIndex()
	for _, msg := range messages {
		scratch.Add(msg)
	}
	return scratch.Search(query, topK, 0)
}

// recalculateLocked rebuilds every document vector with current IDF values.
// Smoothed IDF: ln(N/(df+1)) + 1.
func (ix *Index) recalculateLocked() {
	n := float64(len(ix.docs))
	for _, doc := range ix.docs {
		vec := make(map[string]float64, len(doc.termFreq))
		sumSq := 0.0
		for term, tf := range doc.termFreq {
			idf := math.Log(n/float64(ix.df[term]+1)) + 1
			w := tf * idf
			vec[term] = w
			sumSq += w * w
		}
		doc.vector = vec
		doc.magnitude = math.Sqrt(sumSq)
	}
	ix.dirty = false
}

// vectorizeLocked builds the query's TF-IDF vector with the corpus IDF.
func (ix *Index) vectorizeLocked(query string) (map[string]float64, float64) {
	tf := termFrequencies(tokenize(query))
	if len(tf) == 0 {
		return nil, 0
	}

	n := float64(len(ix.docs))
	vec := make(map[string]float64, len(tf))
	sumSq := 0.0
	for term, f := range tf {
		idf := math.Log(n/float64(ix.df[term]+1)) + 1
		w := f * idf
		vec[term] = w
		sumSq += w * w
	}
	return vec, math.Sqrt(sumSq)
}
