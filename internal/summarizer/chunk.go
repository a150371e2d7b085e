package summarizer

// Split cuts text into windows of size runes that start every size-overlap
// runes. The last window may be shorter. Overlapping runes appear in both
// neighbouring windows.
func Split(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 || size <= 0 {
		return nil
	}
	stride := size - overlap
	if stride <= 0 {
		stride = size
	}

	var chunks []string
	for i := 0; i < len(runes); i += stride {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
