package subtitles

import (
	"strings"

	"clipforge/internal/models"
)

// AlignEditedText re-times user-edited text against the original word
// timestamps of one segment. It never fails: malformed input degrades to nil
// and the caller keeps whatever timing it had.
//
// Three cases:
//   - equal token count: pair positionally and keep every original span, so
//     punctuation/spelling fixes preserve timing exactly
//   - more tokens than words: distribute the segment span proportionally to
//     token character length, pinning the last token's end to the segment end
//   - fewer tokens than words: partition the original words into contiguous,
//     non-overlapping ranges that cover all of them, merging each range's span
func AlignEditedText(editedText string, originalWords []models.Word) []models.Word {
	if len(originalWords) == 0 {
		return nil
	}
	tokens := strings.Fields(editedText)
	if len(tokens) == 0 {
		return nil
	}

	segStart := originalWords[0].Start
	segEnd := originalWords[len(originalWords)-1].End
	totalDur := segEnd - segStart

	if len(tokens) == len(originalWords) {
		aligned := make([]models.Word, len(tokens))
		for i, tok := range tokens {
			aligned[i] = models.Word{
				Start: originalWords[i].Start,
				End:   originalWords[i].End,
				Word:  tok,
			}
		}
		return aligned
	}

	if len(tokens) > len(originalWords) {
		totalChars := 0
		for _, tok := range tokens {
			totalChars += len(tok)
		}
		if totalChars == 0 {
			totalChars = 1
		}

		aligned := make([]models.Word, 0, len(tokens))
		t := segStart
		for i, tok := range tokens {
			var end float64
			if i == len(tokens)-1 {
				// pin to the segment end to eliminate float drift
				end = segEnd
			} else {
				frac := float64(len(tok)) / float64(totalChars)
				end = t + totalDur*frac
			}
			aligned = append(aligned, models.Word{Start: t, End: end, Word: tok})
			t = end
		}
		return aligned
	}

	// Fewer tokens: token i covers original words [floor(i*n/m), floor((i+1)*n/m))
	// widened to at least one word, which keeps ranges contiguous and covering.
	n, m := len(originalWords), len(tokens)
	aligned := make([]models.Word, 0, m)
	for i, tok := range tokens {
		j0 := i * n / m
		j1 := (i + 1) * n / m
		if j1 > n {
			j1 = n
		}
		if j1 <= j0 {
			j1 = j0 + 1
		}
		aligned = append(aligned, models.Word{
			Start: originalWords[j0].Start,
			End:   originalWords[j1-1].End,
			Word:  tok,
		})
	}
	return aligned
}

// ApplyEdits merges user-edited segment text into the stored segments,
// realigning word timestamps so animated captions stay usable after free-form
// editing. Segments beyond the stored list are accepted as-is (no words to
// realign against).
func ApplyEdits(existing models.SegmentList, edits []models.EditedSegment) models.SegmentList {
	merged := make(models.SegmentList, 0, len(edits))
	for i, edit := range edits {
		seg := models.Segment{
			Start: edit.Start,
			End:   edit.End,
			Text:  strings.TrimSpace(edit.Text),
		}

		if i < len(existing) {
			origWords := existing[i].Words
			switch {
			case len(origWords) > 0 && seg.Text != "":
				if aligned := AlignEditedText(seg.Text, origWords); aligned != nil {
					seg.Words = aligned
				}
			case len(origWords) > 0 && seg.Text == existing[i].Text:
				seg.Words = origWords
			}
		}

		merged = append(merged, seg)
	}
	return merged
}
