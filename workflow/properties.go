package workflow

import "strconv"

// Properties is the free-form job-level configuration submitted alongside a
// workflow definition. Keys the parser reads are documented on their
// consumers; everything else passes through untouched.
type Properties map[string]string

// Get returns the value for key, or "" when absent.
func (p Properties) Get(key string) string {
	if p == nil {
		return ""
	}
	return p[key]
}

// GetBool returns the value for key parsed as a boolean, or def when the key
// is absent or unparsable.
func (p Properties) GetBool(key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Set stores a value under key.
func (p Properties) Set(key, value string) {
	p[key] = value
}
