package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringArray stores a list of strings as a JSON document in a text
// column. Value always writes JSON, so Scan only has to read it back.
type StringArray []string

// Scan implements sql.Scanner.
func (a *StringArray) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		return a.decode(v)
	case string:
		return a.decode([]byte(v))
	default:
		return fmt.Errorf("StringArray: cannot scan %T", src)
	}
}

func (a *StringArray) decode(data []byte) error {
	if len(data) == 0 {
		*a = nil
		return nil
	}
	return json.Unmarshal(data, a)
}

// Value implements driver.Valuer.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDataType tells the migrator which column type to use.
func (StringArray) GormDataType() string {
	return "text"
}
