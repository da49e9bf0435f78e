package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NextRevision returns the revision token that follows prev. Tokens have
// the form "<generation>-<32 hex digits>"; the generation starts at 1 and
// increments on every successful write.
func NextRevision(prev string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d-%s", RevisionGeneration(prev)+1, suffix)
}

// RevisionGeneration returns the generation encoded in rev, or 0 when rev
// is empty or malformed.
func RevisionGeneration(rev string) int {
	head, _, ok := strings.Cut(rev, "-")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(head)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NewDocumentID generates a UUID v7 document ID.
func NewDocumentID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
