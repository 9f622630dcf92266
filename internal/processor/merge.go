package processor

import "github.com/insightdelivered/bank-parser/internal/models"

// MergeHybridPages combines two extractions of the same document page by
// page. Native text is exact while OCR misreads amounts, so the primary page
// wins whenever it has text. The result has the length of primary.
func MergeHybridPages(primary, secondary []models.PageText) []models.PageText {
	merged := make([]models.PageText, len(primary))
	for i, page := range primary {
		switch {
		case !page.IsEmpty():
			merged[i] = page
		case i < len(secondary) && !secondary[i].IsEmpty():
			merged[i] = secondary[i]
		default:
			merged[i] = page
		}
	}
	return merged
}
