package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DuplicateKeyError reports an object key that occurs more than once.
type DuplicateKeyError struct {
	Path string
	Key  string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q at %s", e.Key, e.Path)
}

// CheckDuplicateKeys walks the whole document and fails on the first repeated key
// within a single object. encoding/json would otherwise keep the last value.
func CheckDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return walkValue(dec, "$")
}

func walkValue(dec *json.Decoder, path string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	switch delim {
	case '{':
		seen := make(map[string]struct{})
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := kt.(string)
			if !ok {
				return fmt.Errorf("unexpected token %v at %s", kt, path)
			}
			if _, dup := seen[key]; dup {
				return &DuplicateKeyError{Path: path, Key: key}
			}
			seen[key] = struct{}{}
			if err := walkValue(dec, path+"."+key); err != nil {
				return err
			}
		}
	case '[':
		for i := 0; dec.More(); i++ {
			if err := walkValue(dec, path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
	}
	// closing delimiter
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
