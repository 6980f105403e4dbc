package user

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// emptyHistory is the column default for accounts created before any
// exchange is recorded.
const emptyHistory = "{}"

// decodeHistory decodes the conversation_history column into ordered
// exchanges with dense 1-based message ids.
//
// The canonical encoding is a JSON array in storage order. Rows
// written by earlier versions used a mapping keyed by the stringified
// message id; those decode too, ordered numerically by key. Empty,
// "{}" and JSON null all decode as an empty log. Anything else is
// ErrMalformedHistory.
func decodeHistory(raw string) ([]Exchange, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == emptyHistory || trimmed == "null" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var exchanges []Exchange
		if err := json.Unmarshal([]byte(trimmed), &exchanges); err != nil {
			return nil, ErrMalformedHistory
		}
		for i := range exchanges {
			exchanges[i].MessageID = i + 1
		}
		return exchanges, nil
	}

	var keyed map[string]Exchange
	if err := json.Unmarshal([]byte(trimmed), &keyed); err != nil {
		return nil, ErrMalformedHistory
	}

	ids := make([]int, 0, len(keyed))
	byID := make(map[int]Exchange, len(keyed))
	for k, ex := range keyed {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, ErrMalformedHistory
		}
		ids = append(ids, id)
		byID[id] = ex
	}
	sort.Ints(ids)

	exchanges := make([]Exchange, 0, len(ids))
	for i, id := range ids {
		ex := byID[id]
		ex.MessageID = i + 1
		exchanges = append(exchanges, ex)
	}
	return exchanges, nil
}

// encodeHistory serializes exchanges in the canonical array form.
func encodeHistory(exchanges []Exchange) (string, error) {
	if len(exchanges) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(exchanges)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
