package router

import "encoding/json"

// deepCopy clones v by serializing then parsing it back. Non-serializable
// fields (funcs, channels) are dropped by encoding/json itself rather than
// by any code here.
func deepCopy(v Message) (Message, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out Message
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
