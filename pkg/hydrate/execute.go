package hydrate

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/vango-dev/dumbstore/internal/errors"
	"github.com/vango-dev/dumbstore/pkg/store"
)

var scriptPattern = regexp.MustCompile(
	`(?is)<script[^>]*>\s*window\[\s*("(?:[^"\\]|\\.)*"|'[^'\\]*')\s*\]\s*=\s*(.*?);?\s*</script>`,
)

// Execute runs the hydration scripts found in doc against w, assigning each
// named slot. doc may be a bare fragment or a full document. Scripts run in
// document order.
func Execute(doc string, w *store.Window) error {
	matches := scriptPattern.FindAllStringSubmatch(doc, -1)
	if len(matches) == 0 {
		return errors.New("E041").WithDetail("no hydration script found")
	}

	type assignment struct {
		slot  string
		state store.State
	}
	assignments := make([]assignment, 0, len(matches))

	for _, m := range matches {
		slot, err := parseSlot(m[1])
		if err != nil {
			return errors.New("E041").Wrap(err)
		}

		var state map[string]any
		if err := json.Unmarshal([]byte(m[2]), &state); err != nil {
			return errors.New("E041").Wrap(err)
		}
		if state == nil {
			return errors.New("E041").WithDetail("slot " + slot + " is not assigned an object")
		}
		assignments = append(assignments, assignment{slot: slot, state: store.State(state)})
	}

	for _, a := range assignments {
		w.SetGlobal(a.slot, a.state)
	}
	return nil
}

func parseSlot(lit string) (string, error) {
	if strings.HasPrefix(lit, "'") {
		return strings.Trim(lit, "'"), nil
	}
	var slot string
	err := json.Unmarshal([]byte(lit), &slot)
	return slot, err
}
