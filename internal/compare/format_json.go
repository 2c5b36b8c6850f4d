package compare

import (
	json "github.com/goccy/go-json"
)

// JSONFormatter formats ranking results as JSON
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

// Format generates JSON output for ranking results
func (jf *JSONFormatter) Format(rs *RankingSet) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(rs, "", "  ")
	} else {
		data, err = json.Marshal(rs)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}
