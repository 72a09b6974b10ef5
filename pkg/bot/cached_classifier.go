package bot

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedClassifier memoizes intent classifications. Chat traffic repeats
// short lines ("yes", "go on") constantly, so an LRU in front of the NLU
// service saves most round trips.
type CachedClassifier struct {
	classifier Classifier
	cache      *lru.Cache[string, classificationResult]
}

type classificationResult struct {
	Intent string
	Score  float64
}

func NewCachedClassifier(classifier Classifier, cacheSize int) *CachedClassifier {
	cache, err := lru.New[string, classificationResult](cacheSize)
	if err != nil {
		// Only happens when cacheSize <= 0.
		log.Printf("Error creating LRU cache: %v. Using size 1000.", err)
		cache, _ = lru.New[string, classificationResult](1000)
	}

	return &CachedClassifier{
		classifier: classifier,
		cache:      cache,
	}
}

func (c *CachedClassifier) Classify(ctx context.Context, text string) (string, float64, error) {
	h := md5.Sum([]byte(text))
	key := hex.EncodeToString(h[:])

	if result, ok := c.cache.Get(key); ok {
		return result.Intent, result.Score, nil
	}

	intent, score, err := c.classifier.Classify(ctx, text)
	if err != nil {
		return "", 0, err
	}

	c.cache.Add(key, classificationResult{
		Intent: intent,
		Score:  score,
	})

	return intent, score, nil
}
