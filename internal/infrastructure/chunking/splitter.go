package chunking

const DefaultWindowSize = 1000

// Splitter cuts text into consecutive fixed-size windows measured in
// characters (runes). Windows never overlap and are not trimmed, so joining
// them in order reproduces the input exactly.
type Splitter struct {
	WindowSize int
}

func NewSplitter(windowSize int) *Splitter {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Splitter{WindowSize: windowSize}
}

// Split uses size when positive, otherwise the splitter default.
func (s *Splitter) Split(text string, size int) []string {
	if size <= 0 {
		size = s.WindowSize
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
