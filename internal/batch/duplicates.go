package batch

import (
	"fmt"
	"log"

	"github.com/mburuwhiz/idmaker-sub000/internal/fingerprint"
	"github.com/mburuwhiz/idmaker-sub000/internal/smartcrop"
)

// DuplicatePhotos reports pairs of entries whose photos look like the same
// picture, within threshold bits on both perceptual hashes. A threshold of
// zero or less selects fingerprint.DefaultThreshold. Entries whose photo is
// missing or unreadable are skipped; Run reports those as exceptions.
func DuplicatePhotos(entries []Entry, dir string, threshold int) []Issue {
	if threshold <= 0 {
		threshold = fingerprint.DefaultThreshold
	}

	type hashed struct {
		admNo string
		hash  fingerprint.Hash
	}
	var seen []hashed
	var issues []Issue

	for _, e := range entries {
		data, reason := loadPhoto(dir, e)
		if reason != "" {
			continue
		}
		img, err := smartcrop.Decode(data)
		if err != nil {
			log.Printf("WARNING: failed to decode photo for %s: %v", e.AdmNo, err)
			continue
		}
		h := fingerprint.Of(img)
		for _, prev := range seen {
			if fingerprint.Same(prev.hash, h, threshold) {
				issues = append(issues, Issue{
					AdmNo:   e.AdmNo,
					Message: fmt.Sprintf("Possible duplicate photo: %s and %s", prev.admNo, e.AdmNo),
				})
				break
			}
		}
		seen = append(seen, hashed{admNo: e.AdmNo, hash: h})
	}
	return issues
}
