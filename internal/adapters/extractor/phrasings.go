package extractor

// Phrasing is one wording of the authentication requirements used to show
// that differently phrased specifications normalize to the same invariants.
type Phrasing struct {
	Name    string
	Content string
}

// Phrasings returns the same four requirements written five ways.
func Phrasings() []Phrasing {
	return []Phrasing{
		{"direct-statement", `
# User Authentication System

## Requirements

1. User ID must be a positive integer
2. Password length must be at least 8 characters
3. Response time must be under 500 milliseconds
4. Error rate must be less than 1%
`},
		{"alternative-phrasing", `
# User Authentication System

1. User identifier should be greater than zero
2. Password must contain no fewer than 8 characters
3. Response time cannot exceed 500 milliseconds
4. Error rate should remain below 1 percent
`},
		{"verbose-language", `
1. It is required that the user identifier be a positive integer value
2. The password must have a minimum length of at least 8 characters
3. The system response time must be maintained under 500 milliseconds
4. The error rate must be kept below 1 percent at all times
`},
		{"technical-jargon", `
1. UID shall be > 0
2. PWD length >= 8 chars
3. RT < 500ms
4. ER < 1%
`},
		{"business-language", `
- User identification numbers are required to be positive
- Passwords need to be at least 8 characters in length
- System response times should not exceed 500 milliseconds
- Error rates are expected to stay under 1 percent
`},
	}
}
