package storage

import "listing-extractor/models"

// ListingWriter is the interface any storage backend must satisfy. The
// extraction engine itself never writes; storage is a CLI-side collaborator
// that accepts final (possibly human-edited) records.
type ListingWriter interface {
	Write(listings []*models.ExtractedListing) error
	Close() error
}
