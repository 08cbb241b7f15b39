package log

import (
	"fmt"

	"go.uber.org/zap"
)

// toFields turns logr-style key/value arguments into zap fields.
//
// A zap.Field or a bare error may appear anywhere and takes a single slot.
// Everything else is read as a key followed by its value; zap.Any picks the
// typed encoder. A trailing key without value is kept under "arg#<index>",
// and a non-string key is kept, with its value, under "invalid_key_<n>".
func toFields(args ...any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2+1)

	for i := 0; i < len(args); {
		switch v := args[i].(type) {
		case zap.Field:
			fields = append(fields, v)
			i++
			continue
		case error:
			fields = append(fields, zap.Error(v))
			i++
			continue
		}

		if i == len(args)-1 {
			fields = append(fields, zap.Any(fmt.Sprintf("arg#%d", i), args[i]))
			break
		}

		key, val := args[i], args[i+1]
		i += 2

		name, ok := key.(string)
		if !ok {
			fields = append(fields, zap.Any(fmt.Sprintf("invalid_key_%d", i/2-1), map[string]any{
				"key":   key,
				"value": val,
			}))
			continue
		}

		fields = append(fields, zap.Any(name, val))
	}

	return fields
}
