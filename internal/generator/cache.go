package generator

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matea/trainer/internal/challenge"
	"github.com/matea/trainer/internal/logger"
	"github.com/matea/trainer/internal/models"
)

// Cache holds prefetched challenge documents per track so a session can
// start without waiting on the generator. Documents are single use: a
// successful Take removes the entry.
type Cache struct {
	docs *lru.Cache[models.ChallengeID, *challenge.Doc]
	log  *logger.Logger
}

func NewCache(size int) (*Cache, error) {
	docs, err := lru.New[models.ChallengeID, *challenge.Doc](size)
	if err != nil {
		return nil, err
	}
	return &Cache{docs: docs, log: logger.Default().WithPrefix("doc_cache")}, nil
}

// Put stores a prefetched document for the track, replacing any unused one.
func (c *Cache) Put(typ models.ChallengeID, doc *challenge.Doc) {
	c.docs.Add(typ, doc)
	c.log.Debug("cached challenge %s for track %s", doc.ChallengeID, typ)
}

// Take removes and returns the prefetched document for the track, if any.
func (c *Cache) Take(typ models.ChallengeID) (*challenge.Doc, bool) {
	doc, ok := c.docs.Get(typ)
	if !ok {
		return nil, false
	}
	c.docs.Remove(typ)
	c.log.Debug("served cached challenge %s for track %s", doc.ChallengeID, typ)
	return doc, true
}

// Has reports whether a prefetched document is waiting for the track.
func (c *Cache) Has(typ models.ChallengeID) bool {
	return c.docs.Contains(typ)
}
