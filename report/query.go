package report

import (
	"fmt"
	"strings"
)

const queryPlaceholder = "XXXX"

// TrackingQuery builds the SQL lookup for the Jira tracking table from the
// digits of the record identifier. Non-digit characters are discarded; an
// identifier without any digit keeps the placeholder so the analyst can
// fill it in by hand.
func TrackingQuery(jiraNumber string) string {
	var digits strings.Builder
	for _, r := range jiraNumber {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	number := digits.String()
	if number == "" {
		number = queryPlaceholder
	}
	return fmt.Sprintf("SELECT * FROM suivi_jira WHERE numero_jira = '%s';", number)
}
