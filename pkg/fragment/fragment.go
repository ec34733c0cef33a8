package fragment

import "github.com/google/uuid"

// DefaultMaxFragmentSize is the default plaintext ceiling per fragment.
const DefaultMaxFragmentSize = 256 * 1024

// Fragment is one chunk of a larger message split for transport.
type Fragment struct {
	MessageID      uuid.UUID `json:"messageId"`
	FragmentIndex  uint16    `json:"fragmentIndex"`
	TotalFragments uint16    `json:"totalFragments"`
	Data           []byte    `json:"data"`
}

// Fragmenter splits byte payloads into Fragments no larger than
// maxFragmentSize.
type Fragmenter struct {
	maxFragmentSize int
}

// New creates a Fragmenter with the given maximum fragment size in
// bytes. A zero or negative size falls back to DefaultMaxFragmentSize.
func New(maxFragmentSize int) *Fragmenter {
	if maxFragmentSize <= 0 {
		maxFragmentSize = DefaultMaxFragmentSize
	}
	return &Fragmenter{maxFragmentSize: maxFragmentSize}
}

// NeedsFragmentation reports whether data exceeds the configured ceiling.
func (f *Fragmenter) NeedsFragmentation(data []byte) bool {
	return len(data) > f.maxFragmentSize
}

// Fragment splits data into one or more Fragments sharing a fresh
// message id. An empty input produces a single empty fragment.
func (f *Fragmenter) Fragment(data []byte) []Fragment {
	messageID := uuid.New()

	if len(data) == 0 {
		return []Fragment{{
			MessageID:      messageID,
			FragmentIndex:  0,
			TotalFragments: 1,
			Data:           []byte{},
		}}
	}

	var chunks [][]byte
	for start := 0; start < len(data); start += f.maxFragmentSize {
		end := start + f.maxFragmentSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[start:end])
	}

	total := uint16(len(chunks))
	fragments := make([]Fragment, len(chunks))
	for i, chunk := range chunks {
		fragments[i] = Fragment{
			MessageID:      messageID,
			FragmentIndex:  uint16(i),
			TotalFragments: total,
			Data:           chunk,
		}
	}
	return fragments
}
