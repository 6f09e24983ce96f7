package sqlcheck

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes an injection pattern found in a parameter
// value supplied alongside a raw SQL statement.
type InjectionCheckResult struct {
	Fingerprint string // libinjection fingerprint of the detected pattern
	ParamIndex  int    // 1-based position of the offending parameter
	ParamValue  any    // the value that was checked
}

// CheckParameters screens positional parameter values for SQL injection
// patterns. Only string values are checked; numbers and booleans cannot
// carry injection payloads. Returns one result per flagged parameter.
func CheckParameters(params []any) []InjectionCheckResult {
	var results []InjectionCheckResult
	for i, value := range params {
		strValue, ok := value.(string)
		if !ok {
			continue
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(strValue); isSQLi {
			results = append(results, InjectionCheckResult{
				Fingerprint: string(fingerprint),
				ParamIndex:  i + 1,
				ParamValue:  value,
			})
		}
	}
	return results
}
