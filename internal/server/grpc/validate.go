package grpc

import (
	"fmt"
	"math"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/common"
)

// validator checks payload fields of one kind. With partial set the fields
// come from an update patch and absent keys are fine.
type validator func(fields map[string]any, partial bool) error

var validators = map[string]validator{
	common.KindTasks:   validateTask,
	common.KindJournal: validateJournal,
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrInvalidPayload, fmt.Sprintf(format, args...))
}

func stringField(fields map[string]any, key string) (string, bool, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, isString := v.(string)
	if !isString {
		return "", true, invalid("%s must be a string", key)
	}
	return s, true, nil
}

func oneOf(fields map[string]any, key string, allowed ...string) error {
	s, ok, err := stringField(fields, key)
	if err != nil || !ok {
		return err
	}
	for _, a := range allowed {
		if s == a {
			return nil
		}
	}
	return invalid("unknown %s %q", key, s)
}

func validateTask(fields map[string]any, partial bool) error {
	title, ok, err := stringField(fields, "title")
	if err != nil {
		return err
	}
	_, present := fields["title"]
	if (!partial || present) && (!ok || strings.TrimSpace(title) == "") {
		return invalid("task title is required")
	}
	if err := oneOf(fields, "status", "todo", "in_progress", "done"); err != nil {
		return err
	}
	return oneOf(fields, "priority", "low", "medium", "high")
}

func validateJournal(fields map[string]any, partial bool) error {
	title, _, err := stringField(fields, "title")
	if err != nil {
		return err
	}
	content, _, err := stringField(fields, "content")
	if err != nil {
		return err
	}
	if !partial && strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return invalid("journal entry needs a title or content")
	}
	if v, ok := fields["mood"]; ok && v != nil {
		n, isNum := v.(float64)
		if !isNum || n < 0 || n > 5 || n != math.Trunc(n) {
			return invalid("mood must be an integer from 0 to 5")
		}
	}
	return nil
}
