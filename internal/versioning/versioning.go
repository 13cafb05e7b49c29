package versioning

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	kerrors "github.com/semmy-space/keyver/internal/errors"
)

// Separator joins a logical name and its timestamp inside a Version Key.
const Separator = "__secret_v"

// Key builds the Version Key for name at t (UTC Unix seconds).
func Key(name string, t time.Time) string {
	return name + Separator + strconv.FormatInt(t.UTC().Unix(), 10)
}

// LogicalName recovers the logical name by truncating at the first separator.
// A key without a separator is its own logical name.
func LogicalName(key string) string {
	if i := strings.Index(key, Separator); i >= 0 {
		return key[:i]
	}
	return key
}

// Timestamp parses the epoch suffix of a Version Key.
func Timestamp(key string) (time.Time, bool) {
	i := strings.Index(key, Separator)
	if i < 0 {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(key[i+len(Separator):], 10, 64)
	if err != nil || secs < 0 {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}

// Latest returns the lexicographically maximal key whose logical name equals
// name. Timestamps share a fixed width, so this is also the newest version.
func Latest(keys []string, name string) (string, bool) {
	var best string
	found := false
	for _, k := range keys {
		if LogicalName(k) != name {
			continue
		}
		if !found || k > best {
			best = k
			found = true
		}
	}
	return best, found
}

// ValidateName rejects logical names that would break prefix resolution or
// that the dotenv key grammar cannot read back: only letters, digits, '_' and
// '.' are allowed.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", kerrors.ErrValidation)
	}
	if strings.Contains(name, Separator) {
		return fmt.Errorf("%w: name %q contains reserved token %q", kerrors.ErrValidation, name, Separator)
	}
	for _, r := range name {
		if !isNameRune(r) {
			return fmt.Errorf("%w: name %q contains %q; use letters, digits, '_' or '.'", kerrors.ErrValidation, name, r)
		}
	}
	return nil
}

func isNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '.'
}

// Stringify converts a secret value to its stored string form.
func Stringify(v any) (string, error) {
	switch v.(type) {
	case nil:
		return "", fmt.Errorf("%w: value is nil", kerrors.ErrValidation)
	}

	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return "", fmt.Errorf("%w: value is a nil %T", kerrors.ErrValidation, v)
	}

	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case fmt.Stringer:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	}

	return "", fmt.Errorf("%w: value of type %T is not representable as a string", kerrors.ErrValidation, v)
}
