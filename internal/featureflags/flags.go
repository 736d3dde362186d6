// Package featureflags evaluates rollout switches such as "realtime_activity=on,feed_cache=25%".
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

const (
	// RealtimeActivity pushes reply and like events over websockets.
	RealtimeActivity = "realtime_activity"
	// FeedCache serves feed pages from Redis.
	FeedCache = "feed_cache"
)

// rule is one parsed flag. percent is 0..100; plain on/off map to 100 and 0.
type rule struct {
	raw     string
	percent int
}

// Set holds parsed flags. A nil *Set has every flag off.
type Set struct {
	rules map[string]rule
}

// Parse reads a comma-separated name=value list. Values are on/off, true/false, 1/0
// or N%. Malformed entries are skipped.
func Parse(raw string) *Set {
	s := &Set{rules: make(map[string]rule)}
	for _, entry := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" {
			continue
		}
		if r, ok := parseRule(value); ok {
			s.rules[name] = r
		}
	}
	return s
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, percent: 100}, true
	case "off", "false", "0":
		return rule{raw: value, percent: 0}, true
	}
	pct, ok := strings.CutSuffix(value, "%")
	if !ok {
		return rule{}, false
	}
	n, err := strconv.Atoi(pct)
	if err != nil {
		return rule{}, false
	}
	return rule{raw: value, percent: min(max(n, 0), 100)}, true
}

// Enabled reports whether name is on for userID. Partial rollouts bucket users
// deterministically and are off for anonymous callers (userID 0).
func (s *Set) Enabled(name string, userID uint) bool {
	if s == nil {
		return false
	}
	r, ok := s.rules[normalize(name)]
	if !ok {
		return false
	}
	switch r.percent {
	case 0:
		return false
	case 100:
		return true
	}
	return userID != 0 && bucket(name, userID) < r.percent
}

// On reports whether name is fully rolled out. Used for process-wide switches.
func (s *Set) On(name string) bool {
	if s == nil {
		return false
	}
	r, ok := s.rules[normalize(name)]
	return ok && r.percent == 100
}

// Raw returns the configured values by flag name.
func (s *Set) Raw() map[string]string {
	out := map[string]string{}
	if s == nil {
		return out
	}
	for name, r := range s.rules {
		out[name] = r.raw
	}
	return out
}

// Snapshot evaluates every configured flag for userID.
func (s *Set) Snapshot(userID uint) map[string]bool {
	out := map[string]bool{}
	if s == nil {
		return out
	}
	for name := range s.rules {
		out[name] = s.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
